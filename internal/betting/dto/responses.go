package dto

type CreateBetResponse struct {
	BetID string `json:"betId"`
}

type PlaceTicketResponse struct {
	OK       bool   `json:"ok"`
	TicketID string `json:"ticketId"`
}

type SettlementSummary struct {
	Settled int   `json:"settled"`
	Won     int   `json:"won"`
	Lost    int   `json:"lost"`
	Voided  int   `json:"voided,omitempty"`
	PaidOut int64 `json:"paidOut"`
}

type SettleBetResponse struct {
	OK      bool              `json:"ok"`
	Summary SettlementSummary `json:"summary"`
}

type TicketStatusResponse struct {
	TicketID string `json:"ticketId"`
	Status   string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
