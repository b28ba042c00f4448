package glowstone

import (
	"os"
	"runtime"
	"time"

	"github.com/restartfu/gophig"
)

// Config holds the tunables of the lighting engine. The zero value is usable:
// New fills in defaults for unset scheduling fields.
type Config struct {
	// ChunksPerBatch is the number of chunk snapshots distributed before each
	// inter-batch pause. Zero disables pausing.
	ChunksPerBatch int
	// BatchDelay is the pause inserted between distribution batches, bounding
	// the instantaneous network burst of a large relight.
	BatchDelay time.Duration
	// DrainInterval is the period of the recurring job draining the pending
	// relight set.
	DrainInterval time.Duration
	// Workers is the number of goroutines propagation waves fan out across.
	Workers int
}

// DefaultConfig returns the configuration the engine runs with when the
// caller has no opinion.
func DefaultConfig() Config {
	return Config{
		ChunksPerBatch: 10,
		BatchDelay:     time.Millisecond * 100,
		DrainInterval:  time.Second,
		Workers:        runtime.NumCPU(),
	}
}

// ReadConfig loads a TOML configuration from the path passed, writing one
// with the defaults first if the file does not exist yet.
func ReadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := gophig.SetConfComplex(path, gophig.TOMLMarshaler{}, c, 0644); err != nil {
			return c, err
		}
		return c, nil
	}
	if err := gophig.GetConfComplex(path, gophig.TOMLMarshaler{}, &c); err != nil {
		return c, err
	}
	return c, nil
}
