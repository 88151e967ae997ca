package game

import "math/rand"

const (
	PoolSize     = 100 // cards per room
	gridSize     = 5
	freeCol      = 2
	freeRow      = 2
	numbersTotal = 75
)

// Card is a 5x5 bingo grid laid out column-first: B 1-15, I 16-30, N 31-45,
// G 46-60, O 61-75. The center cell is the free space and holds 0.
type Card struct {
	ID   int       `json:"card_id"`
	Grid [5][5]int `json:"grid"` // Grid[col][row]
}

// generateCard builds the grid for a card id. Seeded by the id so every room
// hands out the same card #n and clients can pre-render the pool.
func generateCard(id int) *Card {
	rng := rand.New(rand.NewSource(int64(id) * 7919))
	c := &Card{ID: id}
	for col := 0; col < gridSize; col++ {
		lo := col*15 + 1
		perm := rng.Perm(15)
		for row := 0; row < gridSize; row++ {
			c.Grid[col][row] = lo + perm[row]
		}
	}
	c.Grid[freeCol][freeRow] = 0
	return c
}

// Numbers returns the 24 playable numbers on the card.
func (c *Card) Numbers() []int {
	out := make([]int, 0, 24)
	for col := 0; col < gridSize; col++ {
		for row := 0; row < gridSize; row++ {
			if n := c.Grid[col][row]; n != 0 {
				out = append(out, n)
			}
		}
	}
	return out
}

// cardSlot tracks both reservation generations for one card. taken claims a
// seat in the round currently forming/running, reservedNext the round after.
type cardSlot struct {
	card    *Card
	takenBy int64 // user id, 0 = free
	nextBy  int64
}

// Pool is a room's card inventory. It has no lock of its own: the owning Room
// serializes access.
type Pool struct {
	slots []*cardSlot
}

func NewPool() *Pool {
	p := &Pool{slots: make([]*cardSlot, PoolSize)}
	for i := range p.slots {
		p.slots[i] = &cardSlot{card: generateCard(i + 1)}
	}
	return p
}

// Reserve atomically claims a card for a user. forNext selects which
// reservation generation the claim lands in.
func (p *Pool) Reserve(cardID int, userID int64, forNext bool) (*Card, bool) {
	s := p.slot(cardID)
	if s == nil {
		return nil, false
	}
	if forNext {
		if s.nextBy != 0 {
			return nil, false
		}
		s.nextBy = userID
	} else {
		if s.takenBy != 0 {
			return nil, false
		}
		s.takenBy = userID
	}
	return s.card, true
}

// Release clears a reservation flag. Idempotent.
func (p *Pool) Release(cardID int, forNext bool) {
	s := p.slot(cardID)
	if s == nil {
		return
	}
	if forNext {
		s.nextBy = 0
	} else {
		s.takenBy = 0
	}
}

// Rotate promotes next-round reservations into the current round and frees
// every card the finished round held. There is no window where a rotated card
// is unreserved.
func (p *Pool) Rotate() {
	for _, s := range p.slots {
		s.takenBy = s.nextBy
		s.nextBy = 0
	}
}

// CardStatus is the broadcast view of one card, both flags distinct so clients
// can render "taken this round" vs "reserved for next".
type CardStatus struct {
	CardID       int       `json:"cardId"`
	Grid         [5][5]int `json:"grid"`
	Taken        bool      `json:"taken"`
	ReservedNext bool      `json:"reservedNext"`
}

// Snapshot returns a read-only copy of the pool for broadcast.
func (p *Pool) Snapshot() []CardStatus {
	out := make([]CardStatus, len(p.slots))
	for i, s := range p.slots {
		out[i] = CardStatus{
			CardID:       s.card.ID,
			Grid:         s.card.Grid,
			Taken:        s.takenBy != 0,
			ReservedNext: s.nextBy != 0,
		}
	}
	return out
}

// Card returns the grid for a card id, nil if out of range.
func (p *Pool) Card(cardID int) *Card {
	if s := p.slot(cardID); s != nil {
		return s.card
	}
	return nil
}

func (p *Pool) slot(cardID int) *cardSlot {
	if cardID < 1 || cardID > len(p.slots) {
		return nil
	}
	return p.slots[cardID-1]
}
