// Package viewer defines the observer surface the lighting engine distributes
// snapshots through. Who watches which chunk is tracked elsewhere; the engine
// only asks for the current set right before sending.
package viewer

import "github.com/sandertv/gophertunnel/minecraft/protocol"

// Viewer is a network-connected observer able to receive light updates for
// the chunks it watches.
type Viewer interface {
	// ViewLight sends the marshalled light snapshot of the chunk at the
	// position passed to the viewer.
	ViewLight(pos protocol.ChunkPos, payload []byte)
}

// Tracker reports the viewers currently watching a chunk.
type Tracker interface {
	// Viewers returns the viewers of the chunk at the position passed. The
	// returned slice may be empty and must not be retained by the engine.
	Viewers(pos protocol.ChunkPos) []Viewer
}
