package events

type TicketPlaced struct {
	TicketID  string `json:"ticket_id"`
	BetID     string `json:"bet_id"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Side      string `json:"side"` // "over" | "under"
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
