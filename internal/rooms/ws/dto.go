package ws

import "encoding/json"

// Tipos de mensagem do envelope das salas
const (
	TypeMessage    = "message"     // chat, repassado a todos menos o remetente
	TypeStartBet   = "start-bet"   // privilegiado, só o dono com saldo mínimo
	TypeBetSettled = "bet-settled" // gerado pelo servidor após liquidação
)

// Envelope é a mensagem JSON trocada nas salas
type Envelope struct {
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timeStamp"`
	Message   string          `json:"message,omitempty"`
	Bet       json.RawMessage `json:"bet,omitempty"`
}
