// Package light computes and maintains per-voxel sky and block light for a
// section-partitioned voxel world. Chunk storage, viewer tracking and task
// scheduling are collaborators supplied by the caller; the package only holds
// the light arrays, the flood fill and the cross-section dependency logic.
package light

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// Kind distinguishes the two light fields kept per section. Every section owns
// one store of each kind and both run the same propagation, parameterized only
// by their source function.
type Kind uint8

const (
	// Block light is emitted by light-emitting blocks and attenuates by one
	// level per voxel step.
	Block Kind = iota
	// Sky light is emitted downward from open sky, as decided by the chunk
	// heightmap.
	Sky
)

// MaxLevel is the highest light level a voxel can hold.
const MaxLevel = 15

const (
	// VolumeBytes is the size of a section light array: 16*16*16 voxels at 4
	// bits each.
	VolumeBytes = 2048
	volume      = 4096
)

// Source is the engine's read view of the world light is computed for. It is
// implemented by the world package; missing chunks simply report no stores and
// contribute nothing to propagation.
type Source interface {
	// Block returns the block runtime ID at the world position passed.
	// Unloaded space reports air.
	Block(x, y, z int) uint32
	// Store returns the store of the kind passed for the section at pos, or
	// nil if the chunk holding it is not loaded.
	Store(pos protocol.SubChunkPos, k Kind) *Store
	// HeightMap returns the sky light heightmap of the chunk at the position
	// passed, computing it first if necessary.
	HeightMap(pos protocol.ChunkPos) (*HeightMap, bool)
	// Range returns the vertical block range of the world.
	Range() cube.Range
}
