package game

import "errors"

// Sentinel outcomes from the external collaborators. These are expected
// results, not faults: callers branch on them.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyApplied      = errors.New("already applied")
	ErrNoStake             = errors.New("no stake found for round")
	ErrDuplicateNumber     = errors.New("number already drawn")
)

// Ledger is the external wallet collaborator. All operations are keyed by
// (userID, roundRef) for idempotency.
type Ledger interface {
	Balance(userID int64) (int64, error)
	// ChargeStake atomically checks and deducts the balance. Returns
	// ErrInsufficientBalance if the balance is short at the moment of the
	// transaction. A repeat charge for the same (userID, roundRef) is a no-op.
	ChargeStake(userID int64, amount int64, roundRef string) error
	// Refund credits a stake back. No-op if a refund already exists for
	// (userID, roundRef); ErrNoStake if no matching stake was ever charged.
	Refund(userID int64, amount int64, roundRef string) error
	// CreditPayout credits the winner's reward, idempotent per (userID, roundRef).
	CreditPayout(userID int64, amount int64, roundRef string) error
}

// DrawStore is the durable draw log. Append returns ErrDuplicateNumber on a
// uniqueness conflict so the engine can recompute and retry.
type DrawStore interface {
	Append(roomID string, number int) error
	List(roomID string) ([]int, error)
	Clear(roomID string) error
}

// RoundArchive records settled rounds. Optional; a nil archive disables it.
type RoundArchive interface {
	SaveRound(roomID string, result Payout, participants []int64, numbers []int) error
}

// Messenger delivers an event to a single connection.
type Messenger interface {
	Send(event string, payload any)
}

// Broadcaster delivers an event to every connection in a room.
type Broadcaster interface {
	Broadcast(roomID string, event string, payload any)
}
