package light

import "github.com/df-mc/dragonfly/server/world/chunk"

// diffusesSkyLight is the fixed set of blocks that stop sky light regardless
// of their collision geometry: translucent materials that diffuse rather than
// transmit. Everything else falls back to the registry's light filter.
var diffusesSkyLight = map[string]struct{}{
	"minecraft:web":                     {},
	"minecraft:ice":                     {},
	"minecraft:honey_block":             {},
	"minecraft:slime":                   {},
	"minecraft:water":                   {},
	"minecraft:flowing_water":           {},
	"minecraft:acacia_leaves":           {},
	"minecraft:azalea_leaves":           {},
	"minecraft:birch_leaves":            {},
	"minecraft:cherry_leaves":           {},
	"minecraft:dark_oak_leaves":         {},
	"minecraft:azalea_leaves_flowered":  {},
	"minecraft:jungle_leaves":           {},
	"minecraft:oak_leaves":              {},
	"minecraft:spruce_leaves":           {},
	"minecraft:mangrove_leaves":         {},
	"minecraft:pale_oak_leaves":         {},
	"minecraft:leaves":                  {},
	"minecraft:leaves2":                 {},
	"minecraft:mob_spawner":             {},
	"minecraft:beacon":                  {},
	"minecraft:end_gateway":             {},
	"minecraft:chorus_plant":            {},
	"minecraft:chorus_flower":           {},
	"minecraft:frosted_ice":             {},
	"minecraft:seagrass":                {},
	"minecraft:lava":                    {},
	"minecraft:flowing_lava":            {},
}

// skyOccluding is indexed by block runtime ID. Built once at init, after the
// block registry is finalised.
var skyOccluding []bool

func buildOracle() {
	skyOccluding = make([]bool, len(chunk.FilteringBlocks))
	for rid := range skyOccluding {
		if uint32(rid) == AirRuntimeID {
			continue
		}
		name, _, found := chunk.RuntimeIDToState(uint32(rid))
		if found {
			if _, ok := diffusesSkyLight[name]; ok {
				skyOccluding[rid] = true
				continue
			}
		}
		skyOccluding[rid] = chunk.FilteringBlocks[rid] > 0
	}
}

// SkyOccluding reports whether the block runtime ID passed stops sky light,
// terminating the downward heightmap scan of its column.
func SkyOccluding(rid uint32) bool {
	if int(rid) >= len(skyOccluding) {
		return true
	}
	return skyOccluding[rid]
}

// Passes reports whether light may enter a voxel holding the block runtime ID
// passed. Propagation never crosses into a voxel that does not pass light.
func Passes(rid uint32) bool {
	if rid == AirRuntimeID {
		return true
	}
	if int(rid) >= len(chunk.FilteringBlocks) {
		return false
	}
	return chunk.FilteringBlocks[rid] == 0
}

// Emission returns the light level emitted by the block runtime ID passed, or
// zero for blocks that do not emit light.
func Emission(rid uint32) uint8 {
	if int(rid) >= len(chunk.LightBlocks) {
		return 0
	}
	return chunk.LightBlocks[rid]
}
