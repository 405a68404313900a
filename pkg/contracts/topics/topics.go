package topics

const (
	// Tickets
	TicketPlaced = "ticket_placed"

	// Liquidação
	BetSettled  = "bet_settled"
	GameResults = "game_results"

	// DLQs
	GameResultsDLQ = "game_results_dlq"
)
