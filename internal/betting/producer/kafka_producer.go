package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/diodzi/gthacks-backend/pkg/contracts/events"
)

// KafkaPublisher emite os eventos de ticket e liquidação em tópicos separados
type KafkaPublisher struct {
	TicketWriter  *kafka.Writer
	SettledWriter *kafka.Writer
}

func NewKafkaPublisher(ticketW, settledW *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{TicketWriter: ticketW, SettledWriter: settledW}
}

func (p *KafkaPublisher) PublishTicketPlaced(ctx context.Context, e events.TicketPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.TicketWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	b, _ := json.Marshal(e)
	return p.SettledWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}
