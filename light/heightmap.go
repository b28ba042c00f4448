package light

import "github.com/df-mc/dragonfly/server/block/cube"

// HeightMap records, for each column of a chunk, the Y coordinate one above
// the topmost sky-occluding block. Voxels at or above their column's entry are
// in open sky and emit sky light at MaxLevel.
type HeightMap [256]int16

// At returns the heightmap entry of the column at the chunk-local coordinates
// passed.
func (h *HeightMap) At(x, z uint8) int16 {
	return h[uint16(z)<<4|uint16(x)]
}

// ComputeHeightMap scans every column of a chunk downward from the top of the
// world until a sky-occluding block is found. blockAt is called with
// chunk-local x/z and a world Y coordinate.
func ComputeHeightMap(r cube.Range, blockAt func(x, z uint8, y int) uint32) *HeightMap {
	h := new(HeightMap)
	minY, maxY := r.Min(), r.Max()
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			y := maxY
			for y >= minY {
				if SkyOccluding(blockAt(x, z, y)) {
					break
				}
				y--
			}
			h[uint16(z)<<4|uint16(x)] = int16(y + 1)
		}
	}
	return h
}
