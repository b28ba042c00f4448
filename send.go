package glowstone

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// drain runs on the recurring job installed by RequestRelight. It swaps out
// the pending set, rebuilds the snapshot of every queued chunk and
// distributes the results to viewers.
func (e *Engine) drain() {
	e.queueMu.Lock()
	pending := e.pending
	e.pending = orderedmap.NewOrderedMap[protocol.ChunkPos, struct{}]()
	e.queueMu.Unlock()

	if pending.Len() == 0 {
		return
	}

	chunks := make([]protocol.ChunkPos, 0, pending.Len())
	for el := pending.Front(); el != nil; el = el.Next() {
		pos := el.Key
		col, ok := e.w.Column(pos)
		if !ok {
			continue
		}
		// A queued chunk is recomputed in full: marking every store stale
		// puts the whole chunk into the relight closure, so a clean chunk
		// next to a freshly loaded one exchanges border light instead of
		// keeping its converged state.
		e.invalidateColumn(col)
		if _, ok := e.LightData(pos); ok {
			chunks = append(chunks, pos)
		}
	}

	e.distribute(chunks)
	e.log.Debugf("lighting: drained %d queued chunk(s)", len(chunks))
}

// distribute sends the cached payloads of the chunks passed to their viewers,
// pausing after every batch to keep bursts of invalidations from flooding
// connections. Chunks without viewers and chunks whose payload is identical
// to the last one sent are skipped.
func (e *Engine) distribute(chunks []protocol.ChunkPos) {
	sent := 0
	for _, pos := range chunks {
		col, ok := e.w.Column(pos)
		if !ok {
			continue
		}
		c := col.Cached()
		if c == nil || c.Snapshot.Empty() {
			continue
		}
		viewers := e.tracker.Viewers(pos)
		if len(viewers) == 0 {
			continue
		}
		if col.LastSent() == c.Hash {
			continue
		}
		for _, v := range viewers {
			v.ViewLight(pos, c.Payload)
		}
		col.MarkSent(c.Hash)

		sent++
		if e.conf.ChunksPerBatch > 0 && sent%e.conf.ChunksPerBatch == 0 {
			time.Sleep(e.conf.BatchDelay)
		}
	}
}
