package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/betting/producer"
	"github.com/diodzi/gthacks-backend/internal/betting/pubsub"
	brepo "github.com/diodzi/gthacks-backend/internal/betting/repo"
	"github.com/diodzi/gthacks-backend/internal/betting/worker"
	"github.com/diodzi/gthacks-backend/internal/shared/cache"
	"github.com/diodzi/gthacks-backend/internal/shared/config"
	"github.com/diodzi/gthacks-backend/internal/shared/db"
	"github.com/diodzi/gthacks-backend/internal/shared/kafka"
	"github.com/diodzi/gthacks-backend/internal/shared/logger"
	"github.com/diodzi/gthacks-backend/internal/shared/metrics"
)

// kafkaDeadLetter publica mensagens rejeitadas no tópico de DLQ
type kafkaDeadLetter struct {
	w *kafkago.Writer
}

func (d kafkaDeadLetter) Send(ctx context.Context, key string, payload []byte) error {
	return kafka.WriteJSON(ctx, d.w, key, payload)
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameResults, "settlement-worker")
	defer reader.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()

	var dlq worker.DeadLetter
	if cfg.TopicGameResultsDLQ != "" {
		dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameResultsDLQ)
		defer dlqWriter.Close()
		dlq = kafkaDeadLetter{w: dlqWriter}
	}

	// deps
	repo := brepo.NewPostgres(pg)
	bcast := pubsub.NewRedisBroadcaster(rdb)
	publ := &producer.KafkaPublisher{SettledWriter: settledWriter}

	proc := worker.NewProcessor(log, repo, publ, bcast, dlq, cfg.RedisPubSubChannel)

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("settlement worker consuming",
		zap.String("topic", cfg.TopicGameResults),
		zap.String("dlq", cfg.TopicGameResultsDLQ))

	ctx := context.Background()
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := proc.Process(ctx, key, value); err != nil {
			log.Error("process game_result", zap.ByteString("key", key), zap.Error(err))
			time.Sleep(500 * time.Millisecond)
		}
	}
}
