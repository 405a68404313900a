package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/betting/repo"
	"github.com/diodzi/gthacks-backend/pkg/contracts/events"
)

// Settler liquida uma bet contra o valor final observado
type Settler interface {
	SettleBet(ctx context.Context, betID string, finalValue float64) (repo.Summary, error)
}

// Publisher emite o evento bet_settled no Kafka
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Broadcaster repassa a liquidação para o fan-out das salas
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// DeadLetter recebe as mensagens que não puderam ser processadas
type DeadLetter interface {
	Send(ctx context.Context, key string, payload []byte) error
}

// Processor aplica resultados de jogo consumidos do Kafka.
// O offset já foi commitado quando Process roda, então o broker não vai
// reentregar: falha transitória do store é retentada aqui mesmo (a
// liquidação é idempotente) e falha persistente vai pra DLQ, nunca pro lixo.
type Processor struct {
	log     *zap.Logger
	settler Settler
	publ    Publisher
	bcast   Broadcaster
	dlq     DeadLetter // opcional
	channel string

	retries int
	backoff time.Duration
}

func NewProcessor(log *zap.Logger, s Settler, p Publisher, b Broadcaster, dlq DeadLetter, channel string) *Processor {
	return &Processor{
		log:     log,
		settler: s,
		publ:    p,
		bcast:   b,
		dlq:     dlq,
		channel: channel,
		retries: 3,
		backoff: 300 * time.Millisecond,
	}
}

// Process trata uma mensagem do tópico de resultados.
// Retorna erro só quando a bet ficou sem liquidar (mensagem já na DLQ).
func (p *Processor) Process(ctx context.Context, key, raw []byte) error {
	var res events.GameResult
	if err := json.Unmarshal(raw, &res); err != nil || res.BetID == "" {
		p.log.Error("unmarshal game_result", zap.Error(err))
		// bet_id indisponível aqui; a chave da mensagem consumida identifica o quadro
		p.toDLQ(ctx, string(key), raw)
		return nil
	}

	sum, err := p.settler.SettleBet(ctx, res.BetID, res.FinalValue)
	for attempt := 1; err != nil && !errors.Is(err, repo.ErrBetNotFound) && attempt <= p.retries; attempt++ {
		time.Sleep(time.Duration(attempt) * p.backoff)
		sum, err = p.settler.SettleBet(ctx, res.BetID, res.FinalValue)
	}
	if err != nil {
		p.toDLQ(ctx, res.BetID, raw)
		if errors.Is(err, repo.ErrBetNotFound) {
			// resultado de jogo sem bet correspondente; nada mais a fazer
			return nil
		}
		return err
	}

	evc := events.BetSettled{
		BetID:      res.BetID,
		FinalValue: res.FinalValue,
		Settled:    sum.Settled,
		Won:        sum.Won,
		Lost:       sum.Lost,
		PaidOut:    sum.PaidOut,
		Ts:         time.Now(),
	}
	b, _ := json.Marshal(evc)

	if err := p.publ.PublishBetSettled(ctx, evc); err != nil {
		p.log.Warn("publish bet_settled", zap.Error(err))
	}
	if err := p.bcast.Publish(ctx, p.channel, b); err != nil {
		p.log.Warn("pubsub bet_settled", zap.Error(err))
	}
	return nil
}

func (p *Processor) toDLQ(ctx context.Context, key string, raw []byte) {
	if p.dlq == nil {
		return
	}
	if err := p.dlq.Send(ctx, key, raw); err != nil {
		p.log.Error("dlq publish", zap.String("key", key), zap.Error(err))
	}
}
