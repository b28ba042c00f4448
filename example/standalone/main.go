package main

import (
	"fmt"
	"os"
	"time"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	dfworld "github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sirupsen/logrus"

	"github.com/emortalmc/glowstone"
	"github.com/emortalmc/glowstone/light"
	"github.com/emortalmc/glowstone/scheduler"
	"github.com/emortalmc/glowstone/viewer"
	"github.com/emortalmc/glowstone/world"

	"github.com/go-echarts/statsview"
	statsviewer "github.com/go-echarts/statsview/viewer"
)

// The following program generates a small flat world, runs the lighting
// engine over it and prints the light payloads a viewer standing in the
// middle would receive, before and after placing a glowstone block.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	logger.SetLevel(logrus.DebugLevel)

	conf, err := glowstone.ReadConfig("config.toml")
	if err != nil {
		logger.Fatalf("error reading config: %v", err)
	}
	conf.DrainInterval = time.Millisecond * 50

	if os.Getenv("PPROF_ENABLED") != "" {
		// set configurations before calling `statsview.New()` method
		statsviewer.SetConfiguration(statsviewer.WithTheme(statsviewer.ThemeWesteros), statsviewer.WithAddr("localhost:8080"))

		mgr := statsview.New()
		go mgr.Start()
	}

	r := cube.Range{-64, 319}
	w := world.New(r)
	tracker := viewer.NewRadiusTracker()
	engine := glowstone.New(logger, conf, w, tracker, scheduler.Ticker{})
	defer engine.Close()

	stone := dfworld.BlockRuntimeID(block.Stone{})
	glow := dfworld.BlockRuntimeID(block.Glowstone{})

	for cx := int32(-2); cx <= 2; cx++ {
		for cz := int32(-2); cz <= 2; cz++ {
			c := chunk.New(light.AirRuntimeID, r)
			for x := uint8(0); x < 16; x++ {
				for z := uint8(0); z < 16; z++ {
					for y := int16(r.Min()); y <= 64; y++ {
						c.SetBlock(x, y, z, 0, stone)
					}
				}
			}
			w.AddChunk(protocol.ChunkPos{cx, cz}, c)
		}
	}

	v := &printViewer{log: logger}
	tracker.Add(v, protocol.ChunkPos{0, 0}, 2)

	engine.SendLighting(protocol.ChunkPos{0, 0})

	w.SetBlock(cube.Pos{8, 65, 8}, glow)
	time.Sleep(conf.DrainInterval * 4)

	fmt.Printf("light at glowstone: block=%d sky=%d\n",
		levelAt(w, 8, 65, 8, light.Block), levelAt(w, 8, 80, 8, light.Sky))
}

func levelAt(w *world.World, x, y, z int, k light.Kind) uint8 {
	st := w.Store(protocol.SubChunkPos{int32(x >> 4), int32(y >> 4), int32(z >> 4)}, k)
	if st == nil {
		return 0
	}
	return st.Level(uint8(x&15), uint8(y&15), uint8(z&15))
}

// printViewer logs every light payload it receives.
type printViewer struct {
	log *logrus.Logger
}

func (v *printViewer) ViewLight(pos protocol.ChunkPos, payload []byte) {
	v.log.Infof("light for chunk (%d, %d): %d byte(s)", pos[0], pos[1], len(payload))
}
