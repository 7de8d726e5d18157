package topics

const (
	// Liquidações
	WagerSettled = "wager_settled"
)
