package topics

const (
	// Bets
	BetPlaced    = "bet_placed"
	BetConfirmed = "bet_confirmed"
)
