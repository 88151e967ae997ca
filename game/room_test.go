package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncConfig keeps all timers effectively frozen so tests drive transitions
// themselves.
func syncConfig() Config {
	return Config{
		TickEvery:    time.Hour,
		DrawEvery:    time.Hour,
		DefaultStake: 10,
	}
}

func newTestRoom(cfg Config) (*Room, *fakeLedger, *memStore, *fakeBus) {
	ledger := newFakeLedger()
	store := newMemStore()
	bus := &fakeBus{}
	r := NewRoom("room-1", cfg, Deps{Ledger: ledger, Store: store, Bus: bus})
	return r, ledger, store, bus
}

func (r *Room) forceStart() {
	r.mu.Lock()
	r.beginRoundLocked()
	r.mu.Unlock()
}

func (r *Room) lobbyTimerActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lobbyTimer != nil
}

// setCalled injects drawn numbers directly into the engine.
func setCalled(r *Room, nums ...int) {
	r.draw.mu.Lock()
	defer r.draw.mu.Unlock()
	for _, n := range nums {
		if !r.draw.called[n] {
			r.draw.called[n] = true
			r.draw.order = append(r.draw.order, n)
		}
	}
}

func column(c *Card, col int) []int {
	out := make([]int, 0, 5)
	for row := 0; row < 5; row++ {
		if n := c.Grid[col][row]; n != 0 {
			out = append(out, n)
		}
	}
	return out
}

func TestSelectCard_JoinsRosterAndCharges(t *testing.T) {
	r, ledger, _, bus := newTestRoom(syncConfig())
	conn := &fakeConn{}

	r.SelectCard(User{ID: 1, Name: "abebe"}, 5, 0, "", conn)

	assert.Equal(t, 1, r.PlayerCount())
	assert.Equal(t, 1, ledger.stakeCount())
	assert.True(t, conn.got(EventPlayerJoined))
	assert.True(t, conn.got(EventNeedMorePlayers)) // lone player nudge

	snap, ok := bus.last(EventAllCards)
	require.True(t, ok)
	cards := snap.Payload.([]CardStatus)
	assert.True(t, cards[4].Taken)
	assert.False(t, cards[4].ReservedNext)
}

func TestSelectCard_ConflictRejectedToSenderOnly(t *testing.T) {
	r, _, _, _ := newTestRoom(syncConfig())
	c1, c2 := &fakeConn{}, &fakeConn{}

	r.SelectCard(User{ID: 1}, 5, 0, "", c1)
	r.SelectCard(User{ID: 2}, 5, 0, "", c2)

	assert.Equal(t, 1, r.PlayerCount())
	assert.True(t, c2.got(EventCardTaken))
	assert.False(t, c1.got(EventCardTaken))
}

func TestSelectCard_InsufficientBalanceRollsBack(t *testing.T) {
	r, ledger, _, _ := newTestRoom(syncConfig())
	ledger.balances = map[int64]int64{2: 5} // below the 10 stake
	conn := &fakeConn{}

	r.SelectCard(User{ID: 2}, 5, 0, "", conn)

	assert.Equal(t, 0, r.PlayerCount())
	assert.True(t, conn.got(EventRejected))
	_, ok := r.pool.Reserve(5, 9, false)
	assert.True(t, ok, "card must be released after a failed charge")
}

func TestSelectCard_SwitchReleasesOldAndKeepsCharge(t *testing.T) {
	r, ledger, _, _ := newTestRoom(syncConfig())
	conn := &fakeConn{}

	r.SelectCard(User{ID: 1}, 5, 0, "", conn)
	r.SelectCard(User{ID: 1}, 7, 0, "", conn)

	assert.Equal(t, 1, r.PlayerCount())
	assert.Equal(t, 1, ledger.stakeCount(), "switching cards must not charge twice")

	snap := r.CardsSnapshot()
	assert.False(t, snap[4].Taken, "old card released")
	assert.True(t, snap[6].Taken, "new card held")
}

func TestCountdown_StartsAtTwoPlayers(t *testing.T) {
	r, _, _, bus := newTestRoom(syncConfig())

	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	assert.False(t, r.lobbyTimerActive(), "one player never starts a countdown")
	assert.Equal(t, 0, bus.count(EventLobbyCountdown))

	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	assert.True(t, r.lobbyTimerActive())
	assert.Equal(t, 1, bus.count(EventLobbyCountdown))
}

func TestCountdown_CancelledBelowTwoPlayers(t *testing.T) {
	r, ledger, _, _ := newTestRoom(syncConfig())
	c1 := &fakeConn{}

	r.SelectCard(User{ID: 1}, 1, 0, "", c1)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	require.True(t, r.lobbyTimerActive())

	r.Cancel(2, nil)

	assert.False(t, r.lobbyTimerActive())
	assert.True(t, c1.got(EventNeedMorePlayers))
	assert.Equal(t, 1, ledger.refundTotal(), "cancelled player's stake refunded once")
}

func TestLateJoinerRoutedToNextRound(t *testing.T) {
	r, ledger, _, _ := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	r.forceStart()

	conn := &fakeConn{}
	r.SelectCard(User{ID: 3}, 3, 0, "", conn)

	assert.Equal(t, 2, r.PlayerCount(), "live roster untouched")
	assert.Equal(t, 3, ledger.stakeCount(), "queued player still pays a stake")

	snap := r.CardsSnapshot()
	assert.False(t, snap[2].Taken)
	assert.True(t, snap[2].ReservedNext, "late selection reserves for next round")
}

func TestClaim_NonParticipantNeverWins(t *testing.T) {
	r, _, _, bus := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	r.forceStart()

	// User 3 joined after round start: queued, not in the frozen snapshot.
	c3 := &fakeConn{}
	r.SelectCard(User{ID: 3}, 3, 0, "", c3)

	// Even with every number on their card called and marked.
	card := r.pool.Card(3)
	setCalled(r, card.Numbers()...)
	for _, n := range card.Numbers() {
		r.Mark(3, n)
	}
	r.Claim(3, c3)

	assert.True(t, c3.got(EventInvalidBingo))
	assert.Equal(t, 0, bus.count(EventBingoWinner))
}

func TestClaim_WithoutPatternRejected(t *testing.T) {
	r, _, _, _ := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	r.forceStart()

	c1 := &fakeConn{}
	r.Claim(1, c1)
	assert.True(t, c1.got(EventInvalidBingo))
}

func TestClaim_WinnerSettlesAndResets(t *testing.T) {
	r, ledger, _, bus := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1, Name: "abebe"}, 5, 0, "", nil)
	r.SelectCard(User{ID: 2, Name: "mulu"}, 6, 0, "", nil)
	r.forceStart()

	win := column(r.pool.Card(5), 0)
	setCalled(r, win...)
	for _, n := range win {
		r.Mark(1, n)
	}
	r.Claim(1, &fakeConn{})

	assert.Equal(t, 1, bus.count(EventBingoWinner))
	assert.Equal(t, 1, bus.count(EventPayouts))
	assert.Equal(t, 1, bus.count(EventGameEnd))
	assert.Equal(t, 1, bus.count(EventNewGameReady))

	ev, ok := bus.last(EventPayouts)
	require.True(t, ok)
	payout := ev.Payload.(Payout)
	assert.Equal(t, int64(20), payout.Pool)
	assert.Equal(t, int64(18), payout.WinnerReward)
	assert.Equal(t, int64(2), payout.Commission)
	assert.Equal(t, int64(1), payout.WinnerID)
	assert.Equal(t, int64(18), ledger.payoutTotal())

	sum := r.Summary()
	assert.False(t, sum.Started)
	assert.Equal(t, 0, sum.DrawnCount, "drawn numbers cleared on reset")
	assert.Equal(t, 0, sum.Players)
}

func TestStakeRollback_AfterRoundStartShrinksPool(t *testing.T) {
	r, _, _, bus := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	r.SelectCard(User{ID: 3}, 3, 0, "", nil)
	r.forceStart()

	// A slow charge can come back rejected only after the countdown already
	// froze the snapshot; the pool must not count the uncollected stake.
	r.rollbackSelection(3, 3, false)

	win := column(r.pool.Card(1), 0)
	setCalled(r, win...)
	for _, n := range win {
		r.Mark(1, n)
	}
	r.Claim(1, &fakeConn{})

	ev, ok := bus.last(EventPayouts)
	require.True(t, ok)
	payout := ev.Payload.(Payout)
	assert.Equal(t, int64(20), payout.Pool, "rolled-back stake excluded from the pool")
	assert.Equal(t, int64(18), payout.WinnerReward)
}

func TestReset_RotatesNextRoundIntoRoster(t *testing.T) {
	r, _, _, _ := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 5, 0, "", nil)
	r.SelectCard(User{ID: 2}, 6, 0, "", nil)
	r.forceStart()

	c3 := &fakeConn{}
	r.SelectCard(User{ID: 3}, 9, 0, "", c3)

	win := column(r.pool.Card(5), 0)
	setCalled(r, win...)
	for _, n := range win {
		r.Mark(1, n)
	}
	r.Claim(1, &fakeConn{})

	// Queued player is now in the new lobby with the same card, no
	// re-selection needed.
	assert.Equal(t, 1, r.PlayerCount())
	snap := r.CardsSnapshot()
	assert.True(t, snap[8].Taken)
	assert.False(t, snap[8].ReservedNext)
	_, free := r.pool.Reserve(9, 99, false)
	assert.False(t, free, "rotated card stays reserved")
}

func TestDisconnect_BeforeStartRefundsExactlyOnce(t *testing.T) {
	r, ledger, _, _ := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)

	r.Disconnect(2)
	r.Disconnect(2) // duplicate transport event

	assert.Equal(t, 1, ledger.refundTotal())
	snap := r.CardsSnapshot()
	assert.False(t, snap[1].Taken)
}

func TestDisconnect_FrozenParticipantNotRefunded(t *testing.T) {
	r, ledger, _, bus := newTestRoom(syncConfig())
	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)
	r.forceStart()

	r.Disconnect(1)
	assert.Equal(t, 0, ledger.refundTotal(), "snapshot member keeps their stake")
	assert.True(t, r.Summary().Started, "round continues with one player left")

	// Last roster player leaving force-ends the round.
	r.Disconnect(2)
	assert.False(t, r.Summary().Started)
	assert.GreaterOrEqual(t, bus.count(EventGameEnd), 1)
	assert.Equal(t, 0, ledger.refundTotal())
}

func TestLockedRoom_RejectsJoinAndSelection(t *testing.T) {
	r, _, _, _ := newTestRoom(syncConfig())
	assert.True(t, r.SetLocked(true))
	assert.False(t, r.SetLocked(true), "locking twice reports no change")

	conn := &fakeConn{}
	r.Join(conn)
	r.SelectCard(User{ID: 1}, 1, 0, "", conn)

	assert.True(t, conn.got(EventRoomLocked))
	assert.Equal(t, 0, r.PlayerCount())
}

func TestForceEnd_IsIdempotentOnIdleRoom(t *testing.T) {
	r, _, _, _ := newTestRoom(syncConfig())
	r.ForceEnd()
	r.ForceEnd()
	assert.False(t, r.Summary().Started)
}

func TestFullDraw_GraceThenResetWithRotation(t *testing.T) {
	cfg := Config{
		CountdownTicks: 2,
		GraceTicks:     2,
		TickEvery:      time.Millisecond,
		DrawEvery:      time.Millisecond,
		DefaultStake:   10,
	}
	r, _, _, bus := newTestRoom(cfg)

	r.SelectCard(User{ID: 1}, 1, 0, "", nil)
	r.SelectCard(User{ID: 2}, 2, 0, "", nil)

	waitUntil(t, testTimeout, func() bool { return r.Summary().Started })

	// Queue a player mid-round; nobody claims, all 75 numbers drain.
	r.SelectCard(User{ID: 3}, 3, 0, "", nil)

	waitUntil(t, testTimeout, func() bool { return bus.count(EventGraceStart) >= 1 })
	waitUntil(t, testTimeout, func() bool { return bus.count(EventNewGameReady) >= 1 })

	assert.Equal(t, 75, bus.count(EventNumberCalled))
	assert.GreaterOrEqual(t, bus.count(EventGameEnd), 1)

	waitUntil(t, testTimeout, func() bool {
		sum := r.Summary()
		return sum.DrawnCount == 0 && !sum.Locked
	})
	snap := r.CardsSnapshot()
	assert.True(t, snap[2].Taken, "queued card rotated into new roster")
	assert.False(t, snap[2].ReservedNext)
}
