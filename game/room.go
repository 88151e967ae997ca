package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zagwe-games/bingo-rooms/utils/logger"
)

// Config holds per-room tunables. Tick counts are in units of TickEvery so
// tests can compress time without changing transition logic.
type Config struct {
	CountdownTicks int           // lobby countdown length
	GraceTicks     int           // post-draw grace length
	TickEvery      time.Duration // countdown/grace tick period
	DrawEvery      time.Duration // number draw period
	DefaultStake   int64         // stake restored on reset, 0 = cleared
	MaxPlayers     int
	Type           string
}

func (c Config) withDefaults() Config {
	if c.CountdownTicks == 0 {
		c.CountdownTicks = 15
	}
	if c.GraceTicks == 0 {
		c.GraceTicks = 10
	}
	if c.TickEvery == 0 {
		c.TickEvery = time.Second
	}
	if c.DrawEvery == 0 {
		c.DrawEvery = 3 * time.Second
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 10
	}
	if c.Type == "" {
		c.Type = "Classic"
	}
	return c
}

// User identifies a player on the transport layer.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Entry binds a user and connection to a reserved card for one round.
type Entry struct {
	User     User
	CardID   int
	Card     *Card
	Marked   map[int]bool
	Stake    int64
	RoundRef string
	Conn     Messenger
}

// Deps are the external collaborators a room calls out to.
type Deps struct {
	Ledger Ledger
	Store  DrawStore
	Bus    Broadcaster
	Rounds RoundArchive
}

// Room owns one game's lifecycle: roster, card pool, timers, draw engine and
// the frozen settlement snapshot. All state is mutated under mu; the draw
// engine serializes its own storage round-trips so the room lock is never held
// across them.
type Room struct {
	ID string

	mu         sync.Mutex
	cfg        Config
	stake      int64
	maxPlayers int
	gameType   string
	locked     bool
	started    bool

	players    []*Entry // current roster
	next       []*Entry // next-round reservation queue
	settlement []*Entry // frozen at lobby->running, nil otherwise

	countdownLeft int
	graceLeft     int
	lobbyTimer    *interval
	drawTimer     *interval
	graceTimer    *interval

	pool *Pool
	draw *DrawEngine
	deps Deps
}

func NewRoom(id string, cfg Config, deps Deps) *Room {
	cfg = cfg.withDefaults()
	return &Room{
		ID:         id,
		cfg:        cfg,
		stake:      cfg.DefaultStake,
		maxPlayers: cfg.MaxPlayers,
		gameType:   cfg.Type,
		pool:       NewPool(),
		draw:       NewDrawEngine(id, deps.Store),
		deps:       deps,
	}
}

// -------------------- transport events --------------------

// Join admits a bare connection to the room. A reconnect into a running round
// gets the running snapshot so the client can re-render.
func (r *Room) Join(m Messenger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		send(m, EventRoomLocked, map[string]any{"gameId": r.ID})
		return
	}
	if r.started {
		send(m, EventGameStart, map[string]any{
			"participantUserIds": entryIDs(r.settlement),
			"calledNumbers":      r.draw.Called(),
		})
	}
}

// SelectCard reserves a card for a user and charges the stake. While a round
// is running the reservation lands in the next-round queue, never the live
// roster. Re-selecting releases the previous reservation first.
func (r *Room) SelectCard(u User, cardID int, stake int64, roundRef string, m Messenger) {
	r.mu.Lock()
	if r.locked {
		r.mu.Unlock()
		send(m, EventRoomLocked, map[string]any{"gameId": r.ID})
		return
	}
	if stake > 0 && r.stake == 0 {
		r.stake = stake
	}

	forNext := r.started
	if !forNext && len(r.players) >= r.maxPlayers && r.findPlayer(u.ID) == nil {
		r.mu.Unlock()
		send(m, EventRejected, map[string]any{"message": "room is full"})
		return
	}

	// Release a previous reservation, whichever generation held it.
	prev := r.removePlayer(u.ID)
	prevNext := false
	if prev == nil {
		prev = r.removeNext(u.ID)
		prevNext = prev != nil
	}
	if prev != nil {
		r.pool.Release(prev.CardID, prevNext)
	}

	card, ok := r.pool.Reserve(cardID, u.ID, forNext)
	if !ok {
		r.emitAllCards()
		r.mu.Unlock()
		send(m, EventCardTaken, map[string]any{"cardId": cardID})
		return
	}

	entry := &Entry{
		User:   u,
		CardID: cardID,
		Card:   card,
		Marked: make(map[int]bool),
		Stake:  r.stake,
		Conn:   m,
	}
	charge := false
	if prev != nil {
		// Card switch within the same round: keep the original charge.
		entry.Stake = prev.Stake
		entry.RoundRef = prev.RoundRef
	} else {
		entry.RoundRef = roundRef
		if entry.RoundRef == "" {
			entry.RoundRef = uuid.NewString()
		}
		charge = entry.Stake > 0
	}

	if forNext {
		r.next = append(r.next, entry)
	} else {
		r.players = append(r.players, entry)
	}
	r.emit(EventCardSelected, map[string]any{"cardId": cardID, "user": u})
	r.emitAllCards()
	send(m, EventPlayerJoined, map[string]any{"user": u, "card": card, "forNextRound": forNext})

	if !forNext {
		if len(r.players) >= 2 && !r.started && r.lobbyTimer == nil {
			r.startCountdownLocked()
		} else if len(r.players) == 1 {
			send(r.players[0].Conn, EventNeedMorePlayers, nil)
		}
	}
	stakeDue := entry.Stake
	ref := entry.RoundRef
	r.mu.Unlock()

	if !charge {
		return
	}
	if err := r.deps.Ledger.ChargeStake(u.ID, stakeDue, ref); err != nil {
		logger.Infof("[Room %s] stake rejected for user %d: %v", r.ID, u.ID, err)
		r.rollbackSelection(u.ID, cardID, forNext)
		send(m, EventRejected, map[string]any{"message": "insufficient balance"})
	}
}

// rollbackSelection undoes a reservation whose stake charge failed.
func (r *Room) rollbackSelection(userID int64, cardID int, forNext bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var e *Entry
	if forNext {
		e = r.removeNext(userID)
	} else {
		e = r.removePlayer(userID)
	}
	if e == nil || e.CardID != cardID {
		return
	}
	r.pool.Release(cardID, forNext)
	// The countdown may have completed while the charge was pending: the
	// settlement snapshot must not count a stake that was never collected.
	for i, se := range r.settlement {
		if se.User.ID == userID {
			r.settlement = append(r.settlement[:i], r.settlement[i+1:]...)
			break
		}
	}
	r.emitAllCards()
	if !r.started && len(r.players) < 2 && r.lobbyTimer != nil {
		r.stopCountdownLocked()
	}
}

// Mark toggles a number on the player's card.
func (r *Room) Mark(userID int64, number int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.findPlayer(userID)
	if e == nil {
		return
	}
	if e.Marked[number] {
		delete(e.Marked, number)
	} else {
		e.Marked[number] = true
	}
}

// Claim validates a bingo claim against the frozen settlement snapshot and the
// called numbers. A claimant outside the snapshot is rejected even with a
// winning card.
func (r *Room) Claim(userID int64, m Messenger) {
	r.mu.Lock()
	e := r.findPlayer(userID)
	if e == nil || !r.started {
		r.mu.Unlock()
		send(m, EventInvalidBingo, nil)
		return
	}
	if !containsUser(r.settlement, userID) {
		r.mu.Unlock()
		send(m, EventInvalidBingo, nil)
		return
	}
	called := r.draw.CalledSet()
	if !HasBingo(e.Card, e.Marked, called) {
		r.mu.Unlock()
		send(m, EventInvalidBingo, nil)
		return
	}

	payout := ComputePayout(r.stake, len(r.settlement))
	payout.WinnerID = userID
	participants := entryIDs(r.settlement)
	numbers := r.draw.Called()
	ref := e.RoundRef
	reward := payout.WinnerReward

	// Winner and payout breakdown go out as two events so clients can render
	// them independently.
	r.emit(EventBingoWinner, map[string]any{
		"userId": userID, "name": e.User.Name, "cardId": e.CardID, "stake": r.stake,
	})
	r.emit(EventPayouts, payout)
	r.emit(EventGameEnd, map[string]any{"participantUserIds": participants})
	logger.Infof("[Room %s] user %d won, reward=%d commission=%d", r.ID, userID, reward, payout.Commission)

	r.resetLocked()
	r.mu.Unlock()

	if err := r.deps.Ledger.CreditPayout(userID, reward, ref); err != nil {
		logger.Errorf("[Room %s] payout credit failed for user %d ref %s: %v", r.ID, userID, ref, err)
	}
	if r.deps.Rounds != nil {
		if err := r.deps.Rounds.SaveRound(r.ID, payout, participants, numbers); err != nil {
			logger.Errorf("[Room %s] round archive failed: %v", r.ID, err)
		}
	}
}

// Cancel removes the user's pending reservation. While a round runs only the
// next-round queue is touched; a live roster exit goes through Disconnect.
func (r *Room) Cancel(userID int64, m Messenger) {
	r.mu.Lock()
	var refund *Entry
	if r.started {
		if e := r.removeNext(userID); e != nil {
			r.pool.Release(e.CardID, true)
			refund = e
			r.emitAllCards()
		}
	} else {
		if e := r.removePlayer(userID); e != nil {
			r.pool.Release(e.CardID, false)
			refund = e
			r.emitAllCards()
		}
		r.reviewCountdownLocked()
	}
	r.mu.Unlock()

	send(m, EventCancelled, nil)
	r.issueRefund(refund)
}

// Disconnect drops the user from the roster and the next-round queue. Stakes
// not yet captured in a settlement snapshot are refunded; if the live roster
// empties mid-run the round is force-ended for the frozen participants.
func (r *Room) Disconnect(userID int64) {
	r.mu.Lock()
	var refunds []*Entry
	if e := r.removePlayer(userID); e != nil {
		r.pool.Release(e.CardID, false)
		if !r.started {
			refunds = append(refunds, e)
			r.reviewCountdownLocked()
		} else if len(r.players) == 0 {
			r.emit(EventGameEnd, map[string]any{"participantUserIds": entryIDs(r.settlement)})
			r.resetLocked()
		}
		r.emitAllCards()
	}
	if e := r.removeNext(userID); e != nil {
		r.pool.Release(e.CardID, true)
		refunds = append(refunds, e)
		r.emitAllCards()
	}
	r.mu.Unlock()

	for _, e := range refunds {
		r.issueRefund(e)
	}
}

// issueRefund credits back a stake that never reached settlement. The ledger
// is idempotent on (userID, roundRef) so a duplicate event cannot double-credit.
func (r *Room) issueRefund(e *Entry) {
	if e == nil || e.Stake <= 0 || e.RoundRef == "" {
		return
	}
	if err := r.deps.Ledger.Refund(e.User.ID, e.Stake, e.RoundRef); err != nil {
		logger.Errorf("[Room %s] refund failed for user %d ref %s: %v", r.ID, e.User.ID, e.RoundRef, err)
	}
}

// CardsSnapshot returns the broadcast view of the pool.
func (r *Room) CardsSnapshot() []CardStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pool.Snapshot()
}

// -------------------- lobby countdown --------------------

func (r *Room) startCountdownLocked() {
	r.countdownLeft = r.cfg.CountdownTicks
	r.emit(EventLobbyCountdown, map[string]any{"timeLeft": r.countdownLeft})
	r.lobbyTimer = every(r.cfg.TickEvery, func() { r.guardTick(r.countdownTick) })
}

func (r *Room) stopCountdownLocked() {
	if r.lobbyTimer != nil {
		r.lobbyTimer.Stop()
		r.lobbyTimer = nil
	}
	if len(r.players) == 1 {
		send(r.players[0].Conn, EventNeedMorePlayers, nil)
	}
}

// reviewCountdownLocked re-evaluates the countdown after a roster change.
func (r *Room) reviewCountdownLocked() {
	if r.started {
		return
	}
	if len(r.players) < 2 {
		r.stopCountdownLocked()
	} else if r.lobbyTimer == nil {
		r.startCountdownLocked()
	}
}

func (r *Room) countdownTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lobbyTimer == nil || r.started {
		return
	}
	r.countdownLeft--
	r.emit(EventLobbyCountdown, map[string]any{"timeLeft": r.countdownLeft})
	if r.countdownLeft > 0 {
		return
	}
	r.lobbyTimer.Stop()
	r.lobbyTimer = nil
	r.beginRoundLocked()
}

// beginRoundLocked transitions lobby -> running and freezes the settlement
// snapshot. Only users in this snapshot may win or be charged for the round.
func (r *Room) beginRoundLocked() {
	r.started = true
	r.settlement = append([]*Entry(nil), r.players...)
	r.emit(EventGameStart, map[string]any{"participantUserIds": entryIDs(r.settlement)})
	logger.Infof("[Room %s] round started with %d participants, stake=%d", r.ID, len(r.settlement), r.stake)
	r.drawTimer = every(r.cfg.DrawEvery, func() { r.guardTick(r.drawTick) })
}

// -------------------- number draw --------------------

func (r *Room) drawTick() {
	// The engine does its own storage round-trip; the room lock is not held
	// across it. Its busy-guard keeps draws at-most-one-in-flight.
	res := r.draw.Draw()
	if res.Busy {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.drawTimer == nil {
		return
	}
	if res.Drawn {
		r.emit(EventNumberCalled, map[string]any{"number": res.Number})
	}
	if res.Complete || r.draw.Count() >= numbersTotal {
		r.drawTimer.Stop()
		r.drawTimer = nil
		r.startGraceLocked()
	}
}

// -------------------- grace period --------------------

func (r *Room) startGraceLocked() {
	r.graceLeft = r.cfg.GraceTicks
	r.emit(EventGraceStart, map[string]any{"timeLeft": r.graceLeft})
	r.graceTimer = every(r.cfg.TickEvery, func() { r.guardTick(r.graceTick) })
}

func (r *Room) graceTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graceTimer == nil {
		return
	}
	r.graceLeft--
	r.emit(EventGraceCountdown, map[string]any{"timeLeft": r.graceLeft})
	if r.graceLeft > 0 {
		return
	}
	r.graceTimer.Stop()
	r.graceTimer = nil
	r.emit(EventGameEnd, map[string]any{"participantUserIds": entryIDs(r.settlement)})
	r.resetLocked()
}

// -------------------- reset --------------------

// resetLocked returns the room to lobby: cancels every timer, clears drawn
// numbers (memory + durable log), rotates next-round reservations into the new
// roster and notifies the rotated players. Idempotent on an idle room.
func (r *Room) resetLocked() {
	if r.lobbyTimer != nil {
		r.lobbyTimer.Stop()
		r.lobbyTimer = nil
	}
	if r.drawTimer != nil {
		r.drawTimer.Stop()
		r.drawTimer = nil
	}
	if r.graceTimer != nil {
		r.graceTimer.Stop()
		r.graceTimer = nil
	}

	r.draw.Reset()
	r.started = false
	r.stake = r.cfg.DefaultStake
	r.settlement = nil

	// Promote next-round reservations: their cards flip reservedNext -> taken
	// with no unreserved window, no re-selection required.
	r.pool.Rotate()
	rotated := r.next
	r.next = nil
	r.players = r.players[:0]
	for _, e := range rotated {
		e.Marked = make(map[int]bool)
		r.players = append(r.players, e)
		send(e.Conn, EventPlayerJoined, map[string]any{"user": e.User, "card": e.Card, "rotated": true})
	}
	if len(rotated) > 0 && r.stake == 0 {
		r.stake = rotated[0].Stake
	}

	r.emit(EventNewGameReady, nil)
	r.emitAllCards()
	if len(r.players) >= 2 {
		r.startCountdownLocked()
	}
}

// -------------------- admin --------------------

// SetLocked flips the admin lock. Returns false when already in that state.
// Locking blocks new joins and selections; a running round is unaffected.
func (r *Room) SetLocked(locked bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked == locked {
		return false
	}
	r.locked = locked
	if locked {
		r.emit(EventRoomLocked, map[string]any{"gameId": r.ID})
	} else {
		r.emit(EventRoomUnlocked, map[string]any{"gameId": r.ID})
	}
	return true
}

// ForceEnd terminates the round for the frozen participants and resets.
func (r *Room) ForceEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(EventGameEnd, map[string]any{"participantUserIds": entryIDs(r.settlement)})
	r.resetLocked()
}

func (r *Room) SetStake(stake int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stake = stake
	r.cfg.DefaultStake = stake
}

// Settings applies optional admin overrides.
type Settings struct {
	MaxPlayers *int
	Type       *string
	Stake      *int64
}

func (r *Room) SetSettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.MaxPlayers != nil {
		r.maxPlayers = *s.MaxPlayers
	}
	if s.Type != nil {
		r.gameType = *s.Type
	}
	if s.Stake != nil {
		r.stake = *s.Stake
		r.cfg.DefaultStake = *s.Stake
	}
}

// Summary is the admin list-rooms view.
type Summary struct {
	ID         string `json:"id"`
	Players    int    `json:"players"`
	Started    bool   `json:"started"`
	Locked     bool   `json:"locked"`
	Stake      int64  `json:"stake"`
	Type       string `json:"type"`
	MaxPlayers int    `json:"maxPlayers"`
	DrawnCount int    `json:"calledNumbers"`
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		ID:         r.ID,
		Players:    len(r.players),
		Started:    r.started,
		Locked:     r.locked,
		Stake:      r.stake,
		Type:       r.gameType,
		MaxPlayers: r.maxPlayers,
		DrawnCount: r.draw.Count(),
	}
}

// PlayerCount returns the current roster size.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// -------------------- internals --------------------

// guardTick keeps a panicking timer callback from crashing the process. The
// room is forced back to lobby rather than left with half-cancelled timers.
func (r *Room) guardTick(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("[Room %s] timer callback panic: %v", r.ID, rec)
			if r.mu.TryLock() {
				r.resetLocked()
				r.mu.Unlock()
			}
		}
	}()
	fn()
}

func (r *Room) emit(event string, payload any) {
	if r.deps.Bus != nil {
		r.deps.Bus.Broadcast(r.ID, event, payload)
	}
}

func (r *Room) emitAllCards() {
	r.emit(EventAllCards, r.pool.Snapshot())
}

func (r *Room) findPlayer(userID int64) *Entry {
	for _, e := range r.players {
		if e.User.ID == userID {
			return e
		}
	}
	return nil
}

func (r *Room) removePlayer(userID int64) *Entry {
	for i, e := range r.players {
		if e.User.ID == userID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return e
		}
	}
	return nil
}

func (r *Room) removeNext(userID int64) *Entry {
	for i, e := range r.next {
		if e.User.ID == userID {
			r.next = append(r.next[:i], r.next[i+1:]...)
			return e
		}
	}
	return nil
}

func containsUser(entries []*Entry, userID int64) bool {
	for _, e := range entries {
		if e.User.ID == userID {
			return true
		}
	}
	return false
}

func entryIDs(entries []*Entry) []int64 {
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.User.ID)
	}
	return ids
}

func send(m Messenger, event string, payload any) {
	if m != nil {
		m.Send(event, payload)
	}
}
