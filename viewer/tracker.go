package viewer

import (
	"github.com/chewxy/math32"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sasha-s/go-deadlock"
)

// RadiusTracker is an in-memory Tracker that considers a viewer to watch
// every chunk within its view radius of its current chunk position.
type RadiusTracker struct {
	mu      deadlock.RWMutex
	viewers map[Viewer]state
}

type state struct {
	pos    protocol.ChunkPos
	radius int32
}

func NewRadiusTracker() *RadiusTracker {
	return &RadiusTracker{viewers: make(map[Viewer]state)}
}

// Add starts tracking a viewer at the chunk position passed. Adding a viewer
// twice updates its position and radius.
func (t *RadiusTracker) Add(v Viewer, pos protocol.ChunkPos, radius int32) {
	t.mu.Lock()
	t.viewers[v] = state{pos: pos, radius: radius}
	t.mu.Unlock()
}

// Move updates the chunk position of a tracked viewer.
func (t *RadiusTracker) Move(v Viewer, pos protocol.ChunkPos) {
	t.mu.Lock()
	if s, ok := t.viewers[v]; ok {
		s.pos = pos
		t.viewers[v] = s
	}
	t.mu.Unlock()
}

// Remove stops tracking a viewer.
func (t *RadiusTracker) Remove(v Viewer) {
	t.mu.Lock()
	delete(t.viewers, v)
	t.mu.Unlock()
}

func (t *RadiusTracker) Viewers(pos protocol.ChunkPos) []Viewer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Viewer
	for v, s := range t.viewers {
		if chunkInRange(s.radius, pos, s.pos) {
			out = append(out, v)
		}
	}
	return out
}

// chunkInRange returns true if the chunk position is within the given radius
// of the chunk position.
func chunkInRange(radius int32, chunkPos, pos protocol.ChunkPos) bool {
	diffX, diffZ := pos[0]-chunkPos[0], pos[1]-chunkPos[1]
	dist := math32.Sqrt(float32(diffX*diffX) + float32(diffZ*diffZ))

	return int32(dist) <= radius
}
