// Package world keeps the loaded chunk columns the lighting engine reads and
// annotates. Block storage itself is dragonfly's paletted chunk; the package
// adds the per-section light stores, the heightmap cache and the snapshot
// cache that the engine maintains on top of it.
package world

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sasha-s/go-deadlock"

	"github.com/emortalmc/glowstone/light"
)

// World holds the chunk columns currently loaded. All methods are safe for
// concurrent use.
type World struct {
	r       cube.Range
	columns map[protocol.ChunkPos]*Column

	blockChanged func(pos cube.Pos)
	chunkAdded   func(pos protocol.ChunkPos)

	deadlock.RWMutex
}

// New returns a world spanning the vertical block range passed.
func New(r cube.Range) *World {
	return &World{
		r:       r,
		columns: make(map[protocol.ChunkPos]*Column),
	}
}

// Range returns the vertical block range of the world.
func (w *World) Range() cube.Range {
	return w.r
}

// Handle registers the hooks invoked after a block mutation and after a chunk
// is added. The lighting engine registers itself here; hooks run on the
// calling goroutine and must not block.
func (w *World) Handle(blockChanged func(pos cube.Pos), chunkAdded func(pos protocol.ChunkPos)) {
	w.Lock()
	defer w.Unlock()
	w.blockChanged = blockChanged
	w.chunkAdded = chunkAdded
}

// AddChunk adds a chunk to the world, wrapping it into a column carrying
// fresh light state. An existing column at the position is replaced.
func (w *World) AddChunk(pos protocol.ChunkPos, c *chunk.Chunk) *Column {
	col := newColumn(pos, c, w.r)

	w.Lock()
	w.columns[pos] = col
	added := w.chunkAdded
	w.Unlock()

	if added != nil {
		added(pos)
	}
	return col
}

// Column returns the column at the chunk position passed, if loaded.
func (w *World) Column(pos protocol.ChunkPos) (*Column, bool) {
	w.RLock()
	col, ok := w.columns[pos]
	w.RUnlock()
	return col, ok
}

// Block returns the block runtime ID at the world position passed. Unloaded
// or out-of-range space reports air: light simply does not cross into it.
func (w *World) Block(x, y, z int) uint32 {
	if y < w.r.Min() || y > w.r.Max() {
		return light.AirRuntimeID
	}
	col, ok := w.Column(protocol.ChunkPos{int32(x >> 4), int32(z >> 4)})
	if !ok {
		return light.AirRuntimeID
	}
	return col.chunk.Block(uint8(x&0xf), int16(y), uint8(z&0xf), 0)
}

// SetBlock sets the block at the position passed and invokes the block change
// hook. The caller never waits for relighting: the hook only marks state and
// enqueues work.
func (w *World) SetBlock(pos cube.Pos, rid uint32) {
	if pos[1] < w.r.Min() || pos[1] > w.r.Max() {
		return
	}
	col, ok := w.Column(protocol.ChunkPos{int32(pos[0] >> 4), int32(pos[2] >> 4)})
	if !ok {
		return
	}
	col.chunk.SetBlock(uint8(pos[0]&0xf), int16(pos[1]), uint8(pos[2]&0xf), 0, rid)

	w.RLock()
	changed := w.blockChanged
	w.RUnlock()
	if changed != nil {
		changed(pos)
	}
}

// Store returns the light store of the kind passed for the section at pos, or
// nil if the chunk holding it is not loaded. Together with Block, HeightMap
// and Range this implements light.Source.
func (w *World) Store(pos protocol.SubChunkPos, k light.Kind) *light.Store {
	col, ok := w.Column(protocol.ChunkPos{pos[0], pos[2]})
	if !ok {
		return nil
	}
	return col.Light(pos[1], k)
}

// HeightMap returns the sky light heightmap of the chunk at the position
// passed, computing it first if required.
func (w *World) HeightMap(pos protocol.ChunkPos) (*light.HeightMap, bool) {
	col, ok := w.Column(pos)
	if !ok {
		return nil, false
	}
	return col.HeightMap(), true
}
