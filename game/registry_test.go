package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestRegistry() (*Registry, *fakeLedger) {
	ledger := newFakeLedger()
	deps := Deps{Ledger: ledger, Store: newMemStore(), Bus: &fakeBus{}}
	return NewRegistry(syncConfig(), deps), ledger
}

func TestRegistry_GetCreatesLazilyAndReuses(t *testing.T) {
	g, _ := newTestRegistry()

	a := g.Get("10")
	b := g.Get("10")
	assert.Same(t, a, b)

	_, ok := g.Lookup("20")
	assert.False(t, ok, "Lookup must not create rooms")
	g.Get("20")
	_, ok = g.Lookup("20")
	assert.True(t, ok)
}

func TestRegistry_CreateAppliesSettings(t *testing.T) {
	g, _ := newTestRegistry()
	stake := int64(50)
	players := 6

	r := g.Create("vip", Settings{Stake: &stake, MaxPlayers: &players})

	sum := r.Summary()
	assert.Equal(t, int64(50), sum.Stake)
	assert.Equal(t, 6, sum.MaxPlayers)
}

func TestRegistry_ListSortedByID(t *testing.T) {
	g, _ := newTestRegistry()
	g.Get("20")
	g.Get("10")
	g.Get("100")

	list := g.List()
	assert.Len(t, list, 3)
	assert.Equal(t, "10", list[0].ID)
	assert.Equal(t, "100", list[1].ID)
	assert.Equal(t, "20", list[2].ID)
}

func TestRegistry_StatsCountsSeatedPlayers(t *testing.T) {
	g, _ := newTestRegistry()
	g.Get("10").SelectCard(User{ID: 1}, 1, 0, "", nil)
	g.Get("10").SelectCard(User{ID: 2}, 2, 0, "", nil)
	g.Get("20").SelectCard(User{ID: 3}, 1, 0, "", nil)

	rooms, players := g.Stats()
	assert.Equal(t, 2, rooms)
	assert.Equal(t, 3, players)
}

func TestRegistry_DisconnectEverywhere(t *testing.T) {
	g, ledger := newTestRegistry()
	g.Get("10").SelectCard(User{ID: 7}, 1, 0, "", nil)
	g.Get("20").SelectCard(User{ID: 7}, 1, 0, "", nil)

	g.DisconnectEverywhere(7)

	_, players := g.Stats()
	assert.Equal(t, 0, players)
	assert.Equal(t, 2, ledger.refundTotal(), "pre-start stakes refunded in every room")
}
