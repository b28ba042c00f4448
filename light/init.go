package light

import (
	_ "unsafe"

	_ "github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/world/chunk"

	"github.com/emortalmc/glowstone/gerror"
)

var AirRuntimeID uint32

// noinspection ALL
//
//go:linkname world_finaliseBlockRegistry github.com/df-mc/dragonfly/server/world.finaliseBlockRegistry
func world_finaliseBlockRegistry()

func init() {
	world_finaliseBlockRegistry()
	airRID, ok := chunk.StateToRuntimeID("minecraft:air", nil)
	if !ok {
		panic(gerror.New("unable to find runtime ID for air"))
	}
	AirRuntimeID = airRID
	buildOracle()
}
