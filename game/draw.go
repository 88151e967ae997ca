package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/zagwe-games/bingo-rooms/utils/logger"
)

// DrawResult is the outcome of one draw attempt.
type DrawResult struct {
	Number   int
	Drawn    bool // Number was newly added and should be broadcast
	Complete bool // all 75 numbers exhausted
	Busy     bool // another draw is in flight
}

// DrawEngine draws unique numbers 1-75 for one room without replacement, with
// best-effort durable append. The in-memory sequence never shrinks and never
// holds a duplicate.
type DrawEngine struct {
	roomID string
	store  DrawStore

	mu           sync.Mutex
	drawing      bool
	persistOff   bool // storage gave up for this room's life, memory-only
	epoch        int  // bumped on reset, invalidates in-flight draws
	clearPending bool // purge the durable log once the in-flight draw drains
	order        []int
	called       map[int]bool
	rng          *rand.Rand
}

func NewDrawEngine(roomID string, store DrawStore) *DrawEngine {
	return &DrawEngine{
		roomID: roomID,
		store:  store,
		called: make(map[int]bool),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Draw picks the next number. At most one draw is in flight per room: a
// concurrent call returns Busy instead of racing.
func (e *DrawEngine) Draw() DrawResult {
	e.mu.Lock()
	if e.drawing {
		e.mu.Unlock()
		return DrawResult{Busy: true}
	}
	e.drawing = true
	epoch := e.epoch
	persistOff := e.persistOff
	seen := make(map[int]bool, len(e.called))
	for n := range e.called {
		seen[n] = true
	}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.drawing = false
		doClear := e.clearPending
		e.clearPending = false
		e.mu.Unlock()
		if doClear {
			go e.clearLog()
		}
	}()

	// Union durable + memory: guards against double-draw if the two diverged
	// after a restart.
	if !persistOff {
		stored, err := e.store.List(e.roomID)
		if err != nil {
			logger.Warnf("[Room %s] draw log read failed, using memory only: %v", e.roomID, err)
		} else {
			for _, n := range stored {
				seen[n] = true
			}
		}
	}

	candidates := remaining(seen)
	if len(candidates) == 0 {
		return DrawResult{Complete: true}
	}

	pick := candidates[e.rng.Intn(len(candidates))]
	if !persistOff {
		if err := e.store.Append(e.roomID, pick); err != nil {
			if err == ErrDuplicateNumber {
				// Already drawn per durable storage: recompute and retry once.
				seen[pick] = true
				candidates = remaining(seen)
				if len(candidates) == 0 {
					return DrawResult{Complete: true}
				}
				pick = candidates[e.rng.Intn(len(candidates))]
				if err := e.store.Append(e.roomID, pick); err != nil && err != ErrDuplicateNumber {
					e.disablePersist(err)
				}
			} else {
				e.disablePersist(err)
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		// The round was reset while this draw was in the storage round-trip.
		// The number belongs to the finished round, not the next one.
		return DrawResult{}
	}
	if e.called[pick] {
		// Resolved duplicate, already broadcast earlier. Not re-broadcast.
		return DrawResult{Number: pick}
	}
	e.called[pick] = true
	e.order = append(e.order, pick)
	return DrawResult{Number: pick, Drawn: true}
}

// disablePersist degrades to memory-only for the remainder of the room's life.
// Logged once, not retried every draw, so gameplay never blocks on storage.
func (e *DrawEngine) disablePersist(err error) {
	e.mu.Lock()
	already := e.persistOff
	e.persistOff = true
	e.mu.Unlock()
	if !already {
		logger.Warnf("[Room %s] draw persist failed, memory-only from now on: %v", e.roomID, err)
	}
}

// Called returns a copy of the drawn sequence in call order.
func (e *DrawEngine) Called() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.order...)
}

// CalledSet returns a lookup copy of the drawn numbers.
func (e *DrawEngine) CalledSet() map[int]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := make(map[int]bool, len(e.called))
	for n := range e.called {
		set[n] = true
	}
	return set
}

// Count returns how many numbers have been drawn.
func (e *DrawEngine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// Reset clears the in-memory sequence, bumps the epoch so an in-flight draw
// discards its result, and purges the durable log for the next round. The purge
// runs off the caller's goroutine so a reset never blocks the room on storage;
// when a draw is still in its storage round-trip the purge waits until that
// draw drains, so a late append cannot re-pollute the cleared log.
func (e *DrawEngine) Reset() {
	e.mu.Lock()
	e.order = nil
	e.called = make(map[int]bool)
	e.epoch++
	persistOff := e.persistOff
	if e.drawing {
		e.clearPending = !persistOff
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if !persistOff {
		go e.clearLog()
	}
}

func (e *DrawEngine) clearLog() {
	if err := e.store.Clear(e.roomID); err != nil {
		logger.Errorf("[Room %s] failed to clear draw log: %v", e.roomID, err)
	}
}

func remaining(seen map[int]bool) []int {
	out := make([]int, 0, numbersTotal-len(seen))
	for n := 1; n <= numbersTotal; n++ {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}
