package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/rooms/registry"
)

const writeWait = 10 * time.Second

// BalanceReader consulta o saldo atual direto no ledger; nunca cacheado,
// a autorização do "start-bet" exige o valor fresco no momento do envio
type BalanceReader interface {
	Balance(ctx context.Context, accountID string) (int64, error)
}

// Hub gerencia o ciclo de vida das conexões WebSocket das salas
// e roteia as mensagens recebidas para o fan-out correto
type Hub struct {
	log             *zap.Logger
	upgrader        websocket.Upgrader
	reg             *registry.Registry
	ledger          BalanceReader
	minStartBalance int64
}

// NewHub cria o hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, reg *registry.Registry, ledger BalanceReader, minStartBalance int64, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:             log,
		upgrader:        websocket.Upgrader{CheckOrigin: allowOrigin},
		reg:             reg,
		ledger:          ledger,
		minStartBalance: minStartBalance,
	}
}

// Serve faz o upgrade e cuida da conexão até o fim.
// Sala inexistente: o canal é fechado na hora com o motivo.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	room, ok := h.reg.Get(roomID)
	if !ok {
		closeWith(conn, websocket.ClosePolicyViolation, "room does not exist")
		return
	}

	userID := r.URL.Query().Get("userId")
	userName := r.URL.Query().Get("userName")
	if userID == "" {
		closeWith(conn, websocket.ClosePolicyViolation, "userId required")
		return
	}

	m := registry.NewMember(userID, userName)
	if err := h.reg.Join(r.Context(), roomID, m); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "room does not exist")
		return
	}

	go h.writePump(conn, m)

	// Leave roda em qualquer saída do loop de leitura, inclusive fechamento
	// anormal do transporte
	defer h.reg.Leave(context.Background(), roomID, m)

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("ws read", zap.String("roomId", roomID), zap.Error(err))
			}
			break
		}
		h.dispatch(r.Context(), room, m, &env)
	}
}

// dispatch aplica a semântica de cada tipo de mensagem.
// Tentativa não autorizada de start-bet é descartada em silêncio: política
// documentada, o remetente não recebe erro.
func (h *Hub) dispatch(ctx context.Context, room *registry.Room, sender *registry.Member, env *Envelope) {
	switch env.Type {
	case TypeMessage:
		b, err := json.Marshal(env)
		if err != nil {
			return
		}
		room.Broadcast(b, sender)

	case TypeStartBet:
		if sender.AccountID != room.OwnerID {
			h.log.Debug("start-bet dropped: not owner",
				zap.String("roomId", room.ID), zap.String("userId", sender.AccountID))
			return
		}
		bal, err := h.ledger.Balance(ctx, sender.AccountID)
		if err != nil || bal < h.minStartBalance {
			h.log.Debug("start-bet dropped: balance below threshold",
				zap.String("roomId", room.ID), zap.Int64("balance", bal), zap.Error(err))
			return
		}
		b, err := json.Marshal(env)
		if err != nil {
			return
		}
		// evento privilegiado vai pra todo mundo, remetente incluso
		room.Broadcast(b, nil)

	default:
		h.log.Debug("unknown message type dropped", zap.String("type", env.Type))
	}
}

// writePump drena o canal do membro para a conexão.
// Canal fechado significa saída ou sala encerrada: envia o close frame.
func (h *Hub) writePump(conn *websocket.Conn, m *registry.Member) {
	for b := range m.Out {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = conn.Close()
			return
		}
	}
	closeWith(conn, websocket.CloseNormalClosure, "room closed")
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
	_ = conn.Close()
}
