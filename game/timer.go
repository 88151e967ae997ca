package game

import (
	"sync"
	"time"
)

// interval is a stoppable repeating timer. Stop is idempotent and safe to call
// from inside the tick callback, so a transition can cancel the handle that
// fired it.
type interval struct {
	stop chan struct{}
	once sync.Once
}

func every(d time.Duration, fn func()) *interval {
	h := &interval{stop: make(chan struct{})}
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return h
}

func (h *interval) Stop() {
	h.once.Do(func() { close(h.stop) })
}
