package game

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// ---- fakes for the external collaborators ----

type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64 // nil = unlimited funds
	stakes   map[string]int64
	refunds  map[string]int
	payouts  map[string]int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		stakes:  make(map[string]int64),
		refunds: make(map[string]int),
		payouts: make(map[string]int64),
	}
}

func refKey(userID int64, ref string) string {
	return fmt.Sprintf("%d|%s", userID, ref)
}

func (l *fakeLedger) Balance(userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *fakeLedger) ChargeStake(userID int64, amount int64, roundRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := refKey(userID, roundRef)
	if _, ok := l.stakes[k]; ok {
		return nil
	}
	if l.balances != nil {
		if l.balances[userID] < amount {
			return ErrInsufficientBalance
		}
		l.balances[userID] -= amount
	}
	l.stakes[k] = amount
	return nil
}

func (l *fakeLedger) Refund(userID int64, amount int64, roundRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := refKey(userID, roundRef)
	if l.refunds[k] > 0 {
		return nil
	}
	if _, ok := l.stakes[k]; !ok {
		return ErrNoStake
	}
	l.refunds[k]++
	if l.balances != nil {
		l.balances[userID] += amount
	}
	return nil
}

func (l *fakeLedger) CreditPayout(userID int64, amount int64, roundRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payouts[refKey(userID, roundRef)] = amount
	return nil
}

func (l *fakeLedger) stakeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.stakes)
}

func (l *fakeLedger) refundTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.refunds {
		n += c
	}
	return n
}

func (l *fakeLedger) payoutTotal() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, a := range l.payouts {
		n += a
	}
	return n
}

type memStore struct {
	mu         sync.Mutex
	rows       map[string][]int
	failAppend bool
	failAll    bool
	dupNext    bool // next append reports a duplicate-key conflict once
	appends    int
	listCalls  int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string][]int)}
}

func (s *memStore) Append(roomID string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.dupNext {
		s.dupNext = false
		return ErrDuplicateNumber
	}
	if s.failAppend || s.failAll {
		return errors.New("storage down")
	}
	for _, n := range s.rows[roomID] {
		if n == number {
			return ErrDuplicateNumber
		}
	}
	s.rows[roomID] = append(s.rows[roomID], number)
	return nil
}

func (s *memStore) List(roomID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.failAll {
		return nil, errors.New("storage down")
	}
	return append([]int(nil), s.rows[roomID]...), nil
}

func (s *memStore) Clear(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("storage down")
	}
	delete(s.rows, roomID)
	return nil
}

type busEvent struct {
	Room    string
	Name    string
	Payload any
}

type fakeBus struct {
	mu     sync.Mutex
	events []busEvent
}

func (b *fakeBus) Broadcast(roomID string, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, busEvent{Room: roomID, Name: event, Payload: payload})
}

func (b *fakeBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (b *fakeBus) last(name string) (busEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Name == name {
			return b.events[i], true
		}
	}
	return busEvent{}, false
}

type fakeConn struct {
	mu     sync.Mutex
	events []string
}

func (c *fakeConn) Send(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *fakeConn) got(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e == event {
			return true
		}
	}
	return false
}

const testTimeout = 5 * time.Second

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
