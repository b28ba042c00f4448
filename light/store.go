package light

import "sync/atomic"

// emptyContent is returned by Array for stores that hold no light at all, so
// that callers always see a full-size array without every empty section
// allocating one.
var emptyContent [VolumeBytes]byte

// Store holds the light array of a single 16x16x16 section. The array is
// published atomically and never mutated in place once published: recomputation
// builds a fresh array and replaces the reference, so the send path may read
// it without locking. A nil array is the tagged "empty" representation, meaning
// every voxel is at level zero.
type Store struct {
	kind    Kind
	content atomic.Pointer[[VolumeBytes]byte]

	needsUpdate atomic.Bool
	needsSend   atomic.Bool
}

// NewStore returns a store of the kind passed. A fresh store holds no light
// and requires an update before its content is meaningful.
func NewStore(k Kind) *Store {
	s := &Store{kind: k}
	s.needsUpdate.Store(true)
	return s
}

// Kind returns the kind of light the store holds.
func (s *Store) Kind() Kind {
	return s.kind
}

// Empty reports whether every voxel of the store is at level zero.
func (s *Store) Empty() bool {
	return s.content.Load() == nil
}

// Array returns the 4-bit packed light array of the store. The returned slice
// must not be modified; empty stores share a single all-zero array.
func (s *Store) Array() []byte {
	if c := s.content.Load(); c != nil {
		return c[:]
	}
	return emptyContent[:]
}

// Level returns the light level of the voxel at the section-local coordinates
// passed.
func (s *Store) Level(x, y, z uint8) uint8 {
	c := s.content.Load()
	if c == nil {
		return 0
	}
	return nibbleAt(c, voxelIndex(x, y, z))
}

// Invalidate marks the store's content as stale, forcing a recomputation the
// next time the section is relit.
func (s *Store) Invalidate() {
	s.needsUpdate.Store(true)
}

// NeedsUpdate reports whether the store's content is stale.
func (s *Store) NeedsUpdate() bool {
	return s.needsUpdate.Load()
}

// NeedsSend reports whether the store holds content not yet reflected in the
// last snapshot built for its chunk.
func (s *Store) NeedsSend() bool {
	return s.needsSend.Load()
}

// MarkSent clears the send flag after the store's content was serialized into
// a snapshot.
func (s *Store) MarkSent() {
	s.needsSend.Store(false)
}

// publish replaces the store's array with the levels passed. An all-zero
// result is published as the tagged empty representation.
func (s *Store) publish(lv *[volume]uint8) {
	var c *[VolumeBytes]byte
	for i := 0; i < volume; i++ {
		if lv[i] == 0 {
			continue
		}
		if c == nil {
			c = new([VolumeBytes]byte)
		}
		if i&1 == 1 {
			c[i>>1] |= lv[i] << 4
		} else {
			c[i>>1] |= lv[i] & 0xf
		}
	}
	s.content.Store(c)
}

// voxelIndex packs section-local coordinates into a linear voxel index.
func voxelIndex(x, y, z uint8) uint16 {
	return uint16(y)<<8 | uint16(z)<<4 | uint16(x)
}

// nibbleAt reads the 4-bit level at the voxel index passed.
func nibbleAt(c *[VolumeBytes]byte, i uint16) uint8 {
	if i&1 == 1 {
		return c[i>>1] >> 4
	}
	return c[i>>1] & 0xf
}
