// Package worker runs CPU-bound jobs on a fixed pool sized to the machine,
// so that overlapping propagation waves cannot oversubscribe the scheduler
// with one goroutine per section.
package worker

import (
	"runtime"

	"github.com/getsentry/sentry-go"
)

var queue = make(chan func(), runtime.NumCPU())

func init() {
	for i := 0; i < runtime.NumCPU(); i++ {
		go run()
	}
}

func run() {
	defer sentry.Recover()

	for f := range queue {
		f()
	}
}

// Submit queues f for execution on the pool, blocking while the pool is
// saturated. Jobs must not Submit recursively.
func Submit(f func()) {
	queue <- f
}
