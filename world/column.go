package world

import (
	"sync/atomic"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sasha-s/go-deadlock"

	"github.com/emortalmc/glowstone/light"
)

// Column is a vertical stack of sections at one chunk position: the block
// storage plus the light state the engine annotates it with.
type Column struct {
	pos   protocol.ChunkPos
	chunk *chunk.Chunk
	r     cube.Range

	sky, block []*light.Store

	// hmu guards the heightmap: concurrent readers either observe the old
	// complete array or wait for the new one, never a half-built one.
	hmu       deadlock.Mutex
	heightmap *light.HeightMap

	cached atomic.Pointer[CachedLight]

	// fresh is set until the first snapshot is built, at which point the
	// engine kicks a one-time relight of the loaded neighborhood so that a
	// freshly generated chunk exchanges light with its neighbors.
	fresh atomic.Bool

	lastSent atomic.Uint64
}

// CachedLight is a memoized light snapshot together with its wire bytes and
// the content hash of those bytes.
type CachedLight struct {
	Snapshot *light.Snapshot
	Payload  []byte
	Hash     uint64
}

func newColumn(pos protocol.ChunkPos, c *chunk.Chunk, r cube.Range) *Column {
	n := ((r.Max() - r.Min() + 1) >> 4)
	col := &Column{
		pos:   pos,
		chunk: c,
		r:     r,
		sky:   make([]*light.Store, n),
		block: make([]*light.Store, n),
	}
	for i := 0; i < n; i++ {
		col.sky[i] = light.NewStore(light.Sky)
		col.block[i] = light.NewStore(light.Block)
	}
	col.fresh.Store(true)
	return col
}

// Pos returns the chunk position of the column.
func (c *Column) Pos() protocol.ChunkPos {
	return c.pos
}

// Chunk returns the block storage of the column.
func (c *Column) Chunk() *chunk.Chunk {
	return c.chunk
}

// Sections returns the number of sections the column holds.
func (c *Column) Sections() int {
	return len(c.sky)
}

// MinSection returns the lowest section Y coordinate of the column.
func (c *Column) MinSection() int32 {
	return int32(c.r.Min() >> 4)
}

// Light returns the light store of the kind passed for the section at the
// section Y coordinate given, or nil if the coordinate is out of range.
func (c *Column) Light(sy int32, k light.Kind) *light.Store {
	i := int(sy - c.MinSection())
	if i < 0 || i >= len(c.sky) {
		return nil
	}
	if k == light.Sky {
		return c.sky[i]
	}
	return c.block[i]
}

// HeightMap returns the column heightmap, computing it under the column guard
// if it was invalidated.
func (c *Column) HeightMap() *light.HeightMap {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	if c.heightmap == nil {
		c.heightmap = light.ComputeHeightMap(c.r, func(x, z uint8, y int) uint32 {
			return c.chunk.Block(x, int16(y), z, 0)
		})
	}
	return c.heightmap
}

// InvalidateHeightMap discards the heightmap, forcing a recomputation on the
// next read. Invalidation is chunk-granular: any block change in the column
// discards all 256 entries.
func (c *Column) InvalidateHeightMap() {
	c.hmu.Lock()
	c.heightmap = nil
	c.hmu.Unlock()
}

// Cached returns the memoized light snapshot, or nil after invalidation.
func (c *Column) Cached() *CachedLight {
	return c.cached.Load()
}

// StoreCached memoizes a freshly built snapshot.
func (c *Column) StoreCached(cl *CachedLight) {
	c.cached.Store(cl)
}

// InvalidateLight discards the memoized snapshot.
func (c *Column) InvalidateLight() {
	c.cached.Store(nil)
}

// ConsumeFresh reports whether this is the first snapshot built for the
// column, clearing the flag.
func (c *Column) ConsumeFresh() bool {
	return c.fresh.CompareAndSwap(true, false)
}

// LastSent returns the content hash of the last payload distributed for the
// column.
func (c *Column) LastSent() uint64 {
	return c.lastSent.Load()
}

// MarkSent records the content hash of the payload just distributed.
func (c *Column) MarkSent(hash uint64) {
	c.lastSent.Store(hash)
}
