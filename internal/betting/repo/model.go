package repo

import (
	"database/sql"
	"time"
)

// Lados de um ticket
const (
	SideOver  = "over"
	SideUnder = "under"
)

// Status de um ticket. Transição única: placed -> won | lost | void
const (
	StatusPlaced = "placed"
	StatusWon    = "won"
	StatusLost   = "lost"
	StatusVoid   = "void"
)

// Account é a conta de pontos persistida no Postgres.
type Account struct {
	ID       string
	Username string
	Email    string
	Points   int64
}

// Bet é o modelo persistido no Postgres.
// Imutável após a criação; a liquidação só mexe nos tickets.
type Bet struct {
	ID             string
	Name           string
	Time           time.Time
	Line           float64
	OddsMultiplier float64
}

// Ticket é a aposta de um usuário em um lado de uma bet.
type Ticket struct {
	ID        string
	AccountID string
	BetID     string
	Amount    int64
	Side      string
	Status    string
	CreatedAt time.Time
	SettledAt sql.NullTime
}

// Summary resume o resultado de uma liquidação ou cancelamento.
type Summary struct {
	Settled int
	Won     int
	Lost    int
	Voided  int
	PaidOut int64
}
