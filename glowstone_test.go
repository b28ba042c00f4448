package glowstone

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	dfworld "github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sirupsen/logrus"

	"github.com/emortalmc/glowstone/light"
	"github.com/emortalmc/glowstone/scheduler"
	"github.com/emortalmc/glowstone/viewer"
	"github.com/emortalmc/glowstone/world"
)

var (
	stoneRID = dfworld.BlockRuntimeID(block.Stone{})
	glowRID  = dfworld.BlockRuntimeID(block.Glowstone{})
)

// manualScheduler hands the scheduled job back to the test instead of running
// it on a ticker.
type manualScheduler struct {
	jobs []func()
}

func (s *manualScheduler) Schedule(job func(), delay, period time.Duration) scheduler.Task {
	s.jobs = append(s.jobs, job)
	return manualTask{}
}

type manualTask struct{}

func (manualTask) Cancel() {}

func (s *manualScheduler) drain(t *testing.T) {
	t.Helper()
	if len(s.jobs) != 1 {
		t.Fatalf("expected exactly one scheduled drain job, got %d", len(s.jobs))
	}
	s.jobs[0]()
}

// recordingViewer counts the payloads it receives per chunk.
type recordingViewer struct {
	mu  sync.Mutex
	got map[protocol.ChunkPos]int
}

func newRecordingViewer() *recordingViewer {
	return &recordingViewer{got: make(map[protocol.ChunkPos]int)}
}

func (v *recordingViewer) ViewLight(pos protocol.ChunkPos, payload []byte) {
	v.mu.Lock()
	v.got[pos]++
	v.mu.Unlock()
}

func (v *recordingViewer) count(pos protocol.ChunkPos) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.got[pos]
}

// stubTracker returns a fixed viewer set per chunk.
type stubTracker struct {
	viewers map[protocol.ChunkPos][]viewer.Viewer
}

func (t stubTracker) Viewers(pos protocol.ChunkPos) []viewer.Viewer {
	return t.viewers[pos]
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() Config {
	return Config{Workers: 1, DrainInterval: time.Second}
}

func flatChunk(r cube.Range, surface int16) *chunk.Chunk {
	c := chunk.New(light.AirRuntimeID, r)
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			for y := int16(r.Min()); y < surface; y++ {
				c.SetBlock(x, y, z, 0, stoneRID)
			}
		}
	}
	return c
}

func TestDrainDeduplicates(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	v := newRecordingViewer()
	pos := protocol.ChunkPos{0, 0}
	tracker := stubTracker{viewers: map[protocol.ChunkPos][]viewer.Viewer{pos: {v}}}
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, tracker, sched)
	defer e.Close()

	w.AddChunk(pos, flatChunk(r, 32))
	for i := 0; i < 5; i++ {
		e.RequestRelight(pos)
	}

	sched.drain(t)
	if got := v.count(pos); got != 1 {
		t.Fatalf("payloads after drain: got %d, want 1", got)
	}

	// Draining again recomputes the chunk, but the rebuilt payload hashes the
	// same and is not resent.
	sched.drain(t)
	if got := v.count(pos); got != 1 {
		t.Fatalf("payloads after empty drain: got %d, want 1", got)
	}
}

func TestDrainSkipsUnchangedPayload(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	v := newRecordingViewer()
	pos := protocol.ChunkPos{0, 0}
	tracker := stubTracker{viewers: map[protocol.ChunkPos][]viewer.Viewer{pos: {v}}}
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, tracker, sched)
	defer e.Close()

	w.AddChunk(pos, flatChunk(r, 32))
	sched.drain(t)
	if got := v.count(pos); got != 1 {
		t.Fatalf("payloads after first drain: got %d, want 1", got)
	}

	// Nothing changed, so the recomputed payload matches the one the viewer
	// already holds and is not resent.
	e.RequestRelight(pos)
	sched.drain(t)
	if got := v.count(pos); got != 1 {
		t.Fatalf("payloads after no-op drain: got %d, want 1", got)
	}

	// An actual edit changes the payload and forces a resend.
	w.SetBlock(cube.Pos{8, 40, 8}, glowRID)
	sched.drain(t)
	if got := v.count(pos); got != 2 {
		t.Fatalf("payloads after block change: got %d, want 2", got)
	}
}

func TestDrainSkipsViewerlessChunks(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	pos := protocol.ChunkPos{5, 5}
	tracker := stubTracker{viewers: map[protocol.ChunkPos][]viewer.Viewer{}}
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, tracker, sched)
	defer e.Close()

	w.AddChunk(pos, flatChunk(r, 32))
	sched.drain(t)

	col, _ := w.Column(pos)
	if col.Cached() == nil {
		t.Fatalf("expected snapshot to be built for a viewerless chunk")
	}
	if col.LastSent() != 0 {
		t.Fatalf("expected nothing to be sent for a viewerless chunk")
	}
}

func TestLightDataMasks(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	pos := protocol.ChunkPos{0, 0}
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, stubTracker{}, sched)
	defer e.Close()

	// An all-air chunk: every section in full sky light, no block light.
	w.AddChunk(pos, chunk.New(light.AirRuntimeID, r))

	c, ok := e.LightData(pos)
	if !ok {
		t.Fatalf("expected light data for loaded chunk")
	}
	snap := c.Snapshot

	// Bit 0 is reserved for the section below the world, so four sections
	// occupy bits 1 through 4.
	const allSections = 0b11110
	if snap.SkyMask != allSections {
		t.Fatalf("sky mask: got %b, want %b", snap.SkyMask, allSections)
	}
	if snap.EmptyBlockMask != allSections {
		t.Fatalf("empty block mask: got %b, want %b", snap.EmptyBlockMask, allSections)
	}
	if snap.BlockMask != 0 || snap.EmptySkyMask != 0 {
		t.Fatalf("unexpected masks: block %b, empty sky %b", snap.BlockMask, snap.EmptySkyMask)
	}
	if len(snap.Sky) != 4 || len(snap.Block) != 0 {
		t.Fatalf("array counts: got %d sky, %d block", len(snap.Sky), len(snap.Block))
	}
	for _, arr := range snap.Sky {
		for _, b := range arr {
			if b != 0xff {
				t.Fatalf("expected full sky light in an all-air chunk")
			}
		}
	}

	if c2, _ := e.LightData(pos); c2 != c {
		t.Fatalf("expected memoized snapshot on second read")
	}
}

func TestBlockChangeCrossesChunks(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	v := newRecordingViewer()
	viewers := map[protocol.ChunkPos][]viewer.Viewer{}
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, stubTracker{viewers: viewers}, sched)
	defer e.Close()

	for cx := int32(-1); cx <= 1; cx++ {
		for cz := int32(-1); cz <= 1; cz++ {
			pos := protocol.ChunkPos{cx, cz}
			viewers[pos] = []viewer.Viewer{v}
			w.AddChunk(pos, flatChunk(r, 32))
		}
	}
	sched.drain(t)

	// A glowstone block on the border of chunk (0, 0): its light must reach
	// into chunk (-1, 0).
	w.SetBlock(cube.Pos{0, 40, 8}, glowRID)
	sched.drain(t)

	st := w.Store(protocol.SubChunkPos{-1, 2, 0}, light.Block)
	if st == nil {
		t.Fatalf("expected block light store in neighbor chunk")
	}
	e2 := light.Emission(glowRID)
	if got := st.Level(15, 40&15, 8); got != e2-1 {
		t.Fatalf("light across chunk border: got %d, want %d", got, e2-1)
	}
	if v.count(protocol.ChunkPos{-1, 0}) < 2 {
		t.Fatalf("expected neighbor chunk to be redistributed after the edit")
	}
}

func TestLateLoadedChunkReceivesNeighborLight(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, stubTracker{}, sched)
	defer e.Close()

	// Chunk (0, 0) converges with a glowstone block right on its +x border.
	ca := flatChunk(r, 32)
	ca.SetBlock(15, 40, 8, 0, glowRID)
	w.AddChunk(protocol.ChunkPos{0, 0}, ca)
	sched.drain(t)

	// Chunk (1, 0) loads next to the already lit chunk. Its own pass has no
	// frontier into the clean neighbor, so the drain must mark both chunks
	// stale for the border light to cross over.
	w.AddChunk(protocol.ChunkPos{1, 0}, flatChunk(r, 32))
	sched.drain(t)

	st := w.Store(protocol.SubChunkPos{1, 2, 0}, light.Block)
	if st == nil {
		t.Fatalf("expected block light store in late-loaded chunk")
	}
	if got, want := st.Level(0, 40&15, 8), light.Emission(glowRID)-1; got != want {
		t.Fatalf("border light in late-loaded chunk: got %d, want %d", got, want)
	}
}

func TestSendLighting(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	v := newRecordingViewer()
	pos := protocol.ChunkPos{0, 0}
	tracker := stubTracker{viewers: map[protocol.ChunkPos][]viewer.Viewer{pos: {v}}}
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, tracker, sched)
	defer e.Close()

	w.AddChunk(pos, flatChunk(r, 32))

	// SendLighting bypasses the queue entirely, for viewers that just
	// subscribed to an already lit chunk.
	e.SendLighting(pos)
	if got := v.count(pos); got != 1 {
		t.Fatalf("payloads after SendLighting: got %d, want 1", got)
	}
	e.SendLighting(protocol.ChunkPos{9, 9})
	if got := v.count(protocol.ChunkPos{9, 9}); got != 0 {
		t.Fatalf("expected no payload for unloaded chunk")
	}
}

func TestBulkRelight(t *testing.T) {
	r := cube.Range{0, 63}
	w := world.New(r)
	sched := &manualScheduler{}
	e := New(testLogger(), testConfig(), w, stubTracker{}, sched)
	defer e.Close()

	pos := protocol.ChunkPos{0, 0}
	w.AddChunk(pos, flatChunk(r, 32))
	w.AddChunk(protocol.ChunkPos{1, 0}, flatChunk(r, 32))

	e.Relight(pos, protocol.ChunkPos{1, 0})

	col, _ := w.Column(pos)
	for i := 0; i < col.Sections(); i++ {
		sy := col.MinSection() + int32(i)
		if col.Light(sy, light.Sky).NeedsUpdate() || col.Light(sy, light.Block).NeedsUpdate() {
			t.Fatalf("section %d still marked stale after bulk relight", sy)
		}
	}
	st := w.Store(protocol.SubChunkPos{0, 3, 0}, light.Sky)
	if got := st.Level(8, 8, 8); got != light.MaxLevel {
		t.Fatalf("sky light above surface: got %d, want %d", got, light.MaxLevel)
	}
}
