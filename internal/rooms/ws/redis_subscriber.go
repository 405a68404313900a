package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/rooms/registry"
	"github.com/diodzi/gthacks-backend/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal Pub/Sub de liquidações e repassa
// um envelope "bet-settled" para todas as salas ativas.
//
// É o que liga o settlement-worker (ou o endpoint de settle de outra
// instância) aos espectadores conectados neste processo.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, reg *registry.Registry, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var e events.BetSettled
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					log.Warn("bad bet_settled payload", zap.Error(err))
					continue
				}
				env := Envelope{
					Type:      TypeBetSettled,
					Timestamp: time.Now().UnixMilli(),
					Bet:       json.RawMessage(msg.Payload),
				}
				b, err := json.Marshal(env)
				if err != nil {
					continue
				}
				reg.BroadcastAll(b)
			}
		}
	}()
}
