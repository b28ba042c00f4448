package light

import (
	"sync"

	"github.com/brentp/intintmap"
	"github.com/sandertv/gophertunnel/minecraft/protocol"

	"github.com/emortalmc/glowstone/worker"
)

// packSectionPos packs a section position into a single integer key: 22 bits
// per horizontal axis, 20 bits for the section Y. Used for O(1) membership in
// visited and frontier sets.
func packSectionPos(p protocol.SubChunkPos) int64 {
	return int64(p[0]&0x3fffff)<<42 | int64(p[2]&0x3fffff)<<20 | int64(uint32(p[1])&0xfffff)
}

// nearbyRequired returns the sections within one chunk and one section of pos
// that are marked for update. Unloaded chunks and in-bounds sections that are
// already up to date are skipped.
func nearbyRequired(src Source, pos protocol.SubChunkPos) []protocol.SubChunkPos {
	r := src.Range()
	minSec, maxSec := int32(r.Min()>>4), int32(r.Max()>>4)

	var out []protocol.SubChunkPos
	for x := pos[0] - 1; x <= pos[0]+1; x++ {
		for z := pos[2] - 1; z <= pos[2]+1; z++ {
			for y := pos[1] - 1; y <= pos[1]+1; y++ {
				if y < minSec || y > maxSec {
					continue
				}
				p := protocol.SubChunkPos{x, y, z}
				bl := src.Store(p, Block)
				if bl == nil {
					continue
				}
				if !bl.NeedsUpdate() && !src.Store(p, Sky).NeedsUpdate() {
					continue
				}
				out = append(out, p)
			}
		}
	}
	return out
}

// CollectRequiredNearby expands outward from origin, at each step visiting
// the sections within one chunk and one section of the current one and
// keeping those marked for update, until no new dirty sections are found.
// Recomputing any subset smaller than this closure would read stale boundary
// data. The worklist is explicit; closure sizes are unbounded for large
// relights and must not recurse.
func CollectRequiredNearby(src Source, origin protocol.SubChunkPos) []protocol.SubChunkPos {
	found := intintmap.New(64, 0.6)
	found.Put(packSectionPos(origin), 1)

	out := []protocol.SubChunkPos{origin}
	queue := []protocol.SubChunkPos{origin}
	for head := 0; head < len(queue); head++ {
		for _, p := range nearbyRequired(src, queue[head]) {
			k := packSectionPos(p)
			if _, ok := found.Get(k); ok {
				continue
			}
			found.Put(k, 1)
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out
}

// Relight recomputes the light of the kind passed for the section set given:
// one internal pass per section from its own sources, then waves of external
// passes over the discovered frontier until the fixed point is reached. Each
// wave fans out across workers and joins before the next frontier is built.
// Callers serialize Relight per world; waves of disjoint worlds may run
// concurrently.
func Relight(src Source, sections []protocol.SubChunkPos, k Kind, workers int) {
	frontier := runWave(src, sections, k, workers, (*Store).CalculateInternal)
	for len(frontier) > 0 {
		frontier = runWave(src, frontier, k, workers, (*Store).CalculateExternal)
	}
}

// runWave applies one propagation pass to every section of the wave and
// returns the union of the produced frontiers, deduplicated.
func runWave(src Source, wave []protocol.SubChunkPos, k Kind, workers int,
	pass func(*Store, Source, protocol.SubChunkPos) []protocol.SubChunkPos) []protocol.SubChunkPos {

	seen := intintmap.New(64, 0.6)
	var next []protocol.SubChunkPos
	collect := func(points []protocol.SubChunkPos) {
		for _, p := range points {
			key := packSectionPos(p)
			if _, ok := seen.Get(key); ok {
				continue
			}
			seen.Put(key, 1)
			next = append(next, p)
		}
	}
	one := func(pos protocol.SubChunkPos) []protocol.SubChunkPos {
		st := src.Store(pos, k)
		if st == nil {
			return nil
		}
		return pass(st, src, pos)
	}

	if workers <= 1 || len(wave) <= 1 {
		for _, pos := range wave {
			collect(one(pos))
		}
		return next
	}

	// Fan out over the shared pool, capped at the wave's worker budget. The
	// wave is a barrier: the next frontier is only built once every section
	// of this one finished.
	sem := make(chan struct{}, workers)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, pos := range wave {
		pos := pos
		wg.Add(1)
		sem <- struct{}{}
		worker.Submit(func() {
			defer wg.Done()
			defer func() { <-sem }()
			out := one(pos)
			if len(out) == 0 {
				return
			}
			mu.Lock()
			collect(out)
			mu.Unlock()
		})
	}
	wg.Wait()
	return next
}
