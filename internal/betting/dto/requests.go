package dto

type CreateBetRequest struct {
	Name           string  `json:"name"`
	Time           string  `json:"time"` // RFC3339
	Line           float64 `json:"line"`
	OddsMultiplier float64 `json:"oddsMultiplier"`
}

type PlaceTicketRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
	Side   string `json:"side"` // "over" | "under"
}

type SettleBetRequest struct {
	FinalValue *float64 `json:"finalValue"` // ponteiro pra distinguir ausente de zero
}
