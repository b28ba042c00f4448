package light

import (
	"bytes"
	"testing"

	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

func TestSnapshotMarshal(t *testing.T) {
	sky := make([]byte, VolumeBytes)
	for i := range sky {
		sky[i] = 0xff
	}
	blk := make([]byte, VolumeBytes)
	blk[100] = 0x7a

	s := &Snapshot{
		SkyMask:        0b00110,
		BlockMask:      0b00100,
		EmptySkyMask:   0b11000,
		EmptyBlockMask: 0b11010,
		Sky:            [][]byte{sky, sky},
		Block:          [][]byte{blk},
	}
	payload := s.Marshal()

	r := protocol.NewReader(bytes.NewBuffer(payload), 0, false)
	var skyMask, blockMask, emptySky, emptyBlock uint64
	r.Varuint64(&skyMask)
	r.Varuint64(&blockMask)
	r.Varuint64(&emptySky)
	r.Varuint64(&emptyBlock)
	if skyMask != s.SkyMask || blockMask != s.BlockMask || emptySky != s.EmptySkyMask || emptyBlock != s.EmptyBlockMask {
		t.Fatalf("masks did not round trip: got %b %b %b %b", skyMask, blockMask, emptySky, emptyBlock)
	}

	var skyCount uint32
	r.Varuint32(&skyCount)
	if skyCount != 2 {
		t.Fatalf("sky array count: got %d, want 2", skyCount)
	}
	for i := uint32(0); i < skyCount; i++ {
		var arr []byte
		r.ByteSlice(&arr)
		if !bytes.Equal(arr, sky) {
			t.Fatalf("sky array %d did not round trip", i)
		}
	}

	var blockCount uint32
	r.Varuint32(&blockCount)
	if blockCount != 1 {
		t.Fatalf("block array count: got %d, want 1", blockCount)
	}
	var arr []byte
	r.ByteSlice(&arr)
	if !bytes.Equal(arr, blk) {
		t.Fatalf("block array did not round trip")
	}
}

func TestSnapshotMarshalStable(t *testing.T) {
	s := &Snapshot{EmptySkyMask: 0b110, EmptyBlockMask: 0b110}
	if !bytes.Equal(s.Marshal(), s.Marshal()) {
		t.Fatalf("expected identical payloads for identical snapshots")
	}
}
