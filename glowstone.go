// Package glowstone maintains sky and block light for a section-partitioned
// voxel world: it recomputes light after block edits, resolves propagation
// across chunk boundaries, and distributes network-ready snapshots to the
// observers of each chunk.
package glowstone

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sirupsen/logrus"

	"github.com/emortalmc/glowstone/assert"
	"github.com/emortalmc/glowstone/light"
	"github.com/emortalmc/glowstone/scheduler"
	"github.com/emortalmc/glowstone/util"
	"github.com/emortalmc/glowstone/viewer"
	"github.com/emortalmc/glowstone/world"
)

// Engine is the lighting engine of a single world. Block mutations are fire
// and forget: the mutating goroutine only marks sections stale and enqueues
// the chunk, while recomputation runs on the recurring drain job.
type Engine struct {
	log     *logrus.Logger
	conf    Config
	w       *world.World
	tracker viewer.Tracker
	sched   scheduler.Scheduler

	queueMu sync.Mutex
	pending *orderedmap.OrderedMap[protocol.ChunkPos, struct{}]

	taskMu    sync.Mutex
	drainTask scheduler.Task

	// relightMu serializes closure relights: the fixed point assumes a
	// consistent neighbor view for the duration of one closure.
	relightMu sync.Mutex
}

// New returns an engine for the world passed and registers it as the world's
// block change handler.
func New(log *logrus.Logger, conf Config, w *world.World, tracker viewer.Tracker, sched scheduler.Scheduler) *Engine {
	if conf.DrainInterval <= 0 {
		conf.DrainInterval = DefaultConfig().DrainInterval
	}
	if conf.Workers <= 0 {
		conf.Workers = DefaultConfig().Workers
	}
	e := &Engine{
		log:     log,
		conf:    conf,
		w:       w,
		tracker: tracker,
		sched:   sched,
		pending: orderedmap.NewOrderedMap[protocol.ChunkPos, struct{}](),
	}
	w.Handle(e.OnBlockChanged, e.chunkAdded)
	return e
}

// OnBlockChanged must be invoked after every block mutation. It marks the
// section holding the block, its vertical neighbors and the co-located
// sections of the eight lateral neighbor chunks stale, discards the affected
// caches and enqueues the affected chunks for the next drain. It never blocks
// on the relight itself.
func (e *Engine) OnBlockChanged(pos cube.Pos) {
	chunkPos := util.ChunkPosFromBlockPos(pos)
	e.invalidateAround(chunkPos, int32(pos[1]>>4))
	e.requestNeighbourhood(chunkPos)
}

// invalidateAround marks the sections within one chunk and one section of
// (pos, sy) stale. Light crosses chunk borders, so a block change close to a
// border affects the neighbor's light field too.
func (e *Engine) invalidateAround(pos protocol.ChunkPos, sy int32) {
	for i := int32(-1); i <= 1; i++ {
		for j := int32(-1); j <= 1; j++ {
			col, ok := e.w.Column(protocol.ChunkPos{pos[0] + i, pos[1] + j})
			if !ok {
				continue
			}
			col.InvalidateLight()
			col.InvalidateHeightMap()
			for k := sy - 1; k <= sy+1; k++ {
				if st := col.Light(k, light.Block); st != nil {
					st.Invalidate()
				}
				if st := col.Light(k, light.Sky); st != nil {
					st.Invalidate()
				}
			}
		}
	}
}

// RequestRelight enqueues the chunk for the next drain. The pending set is
// deduplicating: a chunk requested many times before the drain is relit once.
// The first request installs the recurring drain job, which stays armed for
// the lifetime of the engine.
func (e *Engine) RequestRelight(pos protocol.ChunkPos) {
	e.queueMu.Lock()
	e.pending.Set(pos, struct{}{})
	e.queueMu.Unlock()

	e.taskMu.Lock()
	if e.drainTask == nil {
		e.drainTask = e.sched.Schedule(e.drain, 0, e.conf.DrainInterval)
	}
	e.taskMu.Unlock()
}

// chunkAdded enqueues a freshly added chunk and its loaded neighbors, so that
// light immediately crosses into and out of the new chunk.
func (e *Engine) chunkAdded(pos protocol.ChunkPos) {
	e.requestNeighbourhood(pos)
}

func (e *Engine) requestNeighbourhood(pos protocol.ChunkPos) {
	for i := int32(-1); i <= 1; i++ {
		for j := int32(-1); j <= 1; j++ {
			n := protocol.ChunkPos{pos[0] + i, pos[1] + j}
			if _, ok := e.w.Column(n); ok {
				e.RequestRelight(n)
			}
		}
	}
}

// LightData returns the chunk's current light snapshot together with its wire
// payload, rebuilding it if the cache was invalidated. Rebuilding recomputes
// every section still marked stale through its full cross-chunk closure.
func (e *Engine) LightData(pos protocol.ChunkPos) (*world.CachedLight, bool) {
	col, ok := e.w.Column(pos)
	if !ok {
		return nil, false
	}
	if c := col.Cached(); c != nil {
		return c, true
	}

	snap := &light.Snapshot{}
	minSec := col.MinSection()
	for i := 0; i < col.Sections(); i++ {
		sy := minSec + int32(i)
		spos := protocol.SubChunkPos{pos[0], sy, pos[1]}
		// Bit 0 is the section below the world, so section indices map to
		// bits shifted by one.
		bit := uint64(1) << uint(i+1)

		for _, k := range [2]light.Kind{light.Sky, light.Block} {
			st := col.Light(sy, k)
			assert.IsTrue(st != nil, "no %d light store for section %d", k, sy)
			if st.NeedsUpdate() {
				e.relightSection(spos)
			}
			// Only sections holding content the viewers have not seen yet are
			// serialized; the rest keep their bits clear.
			if !st.NeedsSend() {
				continue
			}
			if k == light.Sky {
				if st.Empty() {
					snap.EmptySkyMask |= bit
				} else {
					snap.SkyMask |= bit
					snap.Sky = append(snap.Sky, st.Array())
				}
			} else {
				if st.Empty() {
					snap.EmptyBlockMask |= bit
				} else {
					snap.BlockMask |= bit
					snap.Block = append(snap.Block, st.Array())
				}
			}
			st.MarkSent()
		}
	}

	payload := snap.Marshal()
	c := &world.CachedLight{Snapshot: snap, Payload: payload, Hash: xxhash.Sum64(payload)}
	col.StoreCached(c)

	if col.ConsumeFresh() {
		// First build after the chunk appeared: kick the neighborhood once so
		// the new chunk exchanges light with already loaded neighbors.
		e.requestNeighbourhood(pos)
	}
	return c, true
}

// relightSection recomputes the closure of stale sections around pos, block
// light first and sky light second. Anything smaller than the closure would
// read stale boundary data.
func (e *Engine) relightSection(pos protocol.SubChunkPos) {
	closure := light.CollectRequiredNearby(e.w, pos)

	e.relightMu.Lock()
	defer e.relightMu.Unlock()
	light.Relight(e.w, closure, light.Block, e.conf.Workers)
	light.Relight(e.w, closure, light.Sky, e.conf.Workers)
}

// Relight synchronously relights the chunks passed in full, for bulk
// operations such as region pastes. Every section of every chunk is
// recomputed from scratch.
func (e *Engine) Relight(positions ...protocol.ChunkPos) {
	var sections []protocol.SubChunkPos
	for _, pos := range positions {
		col, ok := e.w.Column(pos)
		if !ok {
			continue
		}
		e.invalidateColumn(col)
		minSec := col.MinSection()
		for i := 0; i < col.Sections(); i++ {
			sections = append(sections, protocol.SubChunkPos{pos[0], minSec + int32(i), pos[1]})
		}
	}
	if len(sections) == 0 {
		return
	}

	e.relightMu.Lock()
	defer e.relightMu.Unlock()
	light.Relight(e.w, sections, light.Block, e.conf.Workers)
	light.Relight(e.w, sections, light.Sky, e.conf.Workers)
}

// invalidateColumn marks the column's snapshot, heightmap and every section
// store of both kinds stale, forcing the next rebuild to recompute the chunk
// from scratch.
func (e *Engine) invalidateColumn(col *world.Column) {
	col.InvalidateLight()
	col.InvalidateHeightMap()
	minSec := col.MinSection()
	for i := 0; i < col.Sections(); i++ {
		sy := minSec + int32(i)
		col.Light(sy, light.Sky).Invalidate()
		col.Light(sy, light.Block).Invalidate()
	}
}

// SendLighting pushes the chunk's current cached snapshot to its viewers,
// building it first if required.
func (e *Engine) SendLighting(pos protocol.ChunkPos) {
	c, ok := e.LightData(pos)
	if !ok {
		return
	}
	viewers := e.tracker.Viewers(pos)
	if len(viewers) == 0 {
		return
	}
	for _, v := range viewers {
		v.ViewLight(pos, c.Payload)
	}
	if col, ok := e.w.Column(pos); ok {
		col.MarkSent(c.Hash)
	}
}

// Close cancels the recurring drain job.
func (e *Engine) Close() {
	e.taskMu.Lock()
	if e.drainTask != nil {
		e.drainTask.Cancel()
		e.drainTask = nil
	}
	e.taskMu.Unlock()
}
