// Package scheduler provides the recurring-task collaborator the lighting
// engine installs its drain job on.
package scheduler

import (
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// Task is a recurring job installed on a Scheduler.
type Task interface {
	// Cancel stops future activations of the task. It does not interrupt an
	// activation already running.
	Cancel()
}

// Scheduler runs recurring jobs off the caller's goroutine.
type Scheduler interface {
	// Schedule runs job once after delay, then every period, until the
	// returned task is cancelled.
	Schedule(job func(), delay, period time.Duration) Task
}

// Ticker is the default Scheduler, backed by one goroutine per task. A panic
// in a job activation is reported and the task stays armed.
type Ticker struct{}

func (Ticker) Schedule(job func(), delay, period time.Duration) Task {
	t := &tickerTask{stop: make(chan struct{})}
	go t.run(job, delay, period)
	return t
}

type tickerTask struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() {
		close(t.stop)
	})
}

func (t *tickerTask) run(job func(), delay, period time.Duration) {
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-t.stop:
			return
		}
	}
	t.activate(job)

	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			t.activate(job)
		case <-t.stop:
			return
		}
	}
}

func (t *tickerTask) activate(job func()) {
	defer func() {
		if err := recover(); err != nil {
			hub := sentry.CurrentHub().Clone()
			hub.Recover(err)
			hub.Flush(time.Second * 5)
		}
	}()
	job()
}
