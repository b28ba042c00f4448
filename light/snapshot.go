package light

import (
	"bytes"

	"github.com/sandertv/gophertunnel/minecraft/protocol"

	"github.com/emortalmc/glowstone/internal"
)

// Snapshot is the network-ready serialization of a chunk's light state: a
// presence bitmask per light kind, a known-empty bitmask per kind, and the
// non-empty 2048-byte arrays in ascending section order. The known-empty
// masks are meaningful data in themselves: they distinguish "no light
// information yet" from "light level is uniformly zero". A snapshot is never
// mutated once built; rebuilding replaces it wholesale.
type Snapshot struct {
	SkyMask, BlockMask           uint64
	EmptySkyMask, EmptyBlockMask uint64
	Sky, Block                   [][]byte
}

// Empty reports whether the snapshot carries no section information at all,
// which happens when a chunk is rebuilt without any of its sections having
// changed since the last build.
func (s *Snapshot) Empty() bool {
	return s.SkyMask == 0 && s.BlockMask == 0 && s.EmptySkyMask == 0 && s.EmptyBlockMask == 0
}

// Marshal encodes the snapshot into wire bytes: the four masks, then the sky
// arrays, then the block arrays, each list count-prefixed with every array
// length-prefixed.
func (s *Snapshot) Marshal() []byte {
	buf := internal.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer internal.BufferPool.Put(buf)

	w := protocol.NewWriter(buf, 0)
	w.Varuint64(&s.SkyMask)
	w.Varuint64(&s.BlockMask)
	w.Varuint64(&s.EmptySkyMask)
	w.Varuint64(&s.EmptyBlockMask)

	skyCount, blockCount := uint32(len(s.Sky)), uint32(len(s.Block))
	w.Varuint32(&skyCount)
	for i := range s.Sky {
		w.ByteSlice(&s.Sky[i])
	}
	w.Varuint32(&blockCount)
	for i := range s.Block {
		w.ByteSlice(&s.Block[i])
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}
