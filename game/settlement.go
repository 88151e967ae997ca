package game

// Payout is the settlement split for a winning claim. The house keeps what the
// floor leaves over, so reward + commission always equals the pool exactly.
type Payout struct {
	WinnerID     int64 `json:"winnerId"`
	Pool         int64 `json:"poolTotal"`
	WinnerReward int64 `json:"winnerReward"`
	Commission   int64 `json:"commission"`
}

// ComputePayout splits the pool for a round: pool = stake x participants,
// reward = floor(0.9 x pool). Deterministic regardless of caller.
func ComputePayout(stake int64, participants int) Payout {
	pool := stake * int64(participants)
	reward := pool * 9 / 10
	return Payout{
		Pool:         pool,
		WinnerReward: reward,
		Commission:   pool - reward,
	}
}
