package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	bhttp "github.com/diodzi/gthacks-backend/internal/betting/http"
	"github.com/diodzi/gthacks-backend/internal/betting/producer"
	"github.com/diodzi/gthacks-backend/internal/betting/pubsub"
	brepo "github.com/diodzi/gthacks-backend/internal/betting/repo"
	rhttp "github.com/diodzi/gthacks-backend/internal/rooms/http"
	"github.com/diodzi/gthacks-backend/internal/rooms/registry"
	rrepo "github.com/diodzi/gthacks-backend/internal/rooms/repo"
	"github.com/diodzi/gthacks-backend/internal/rooms/ws"
	"github.com/diodzi/gthacks-backend/internal/shared/cache"
	"github.com/diodzi/gthacks-backend/internal/shared/config"
	"github.com/diodzi/gthacks-backend/internal/shared/db"
	"github.com/diodzi/gthacks-backend/internal/shared/kafka"
	"github.com/diodzi/gthacks-backend/internal/shared/logger"
	"github.com/diodzi/gthacks-backend/internal/shared/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api"
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

	// Kafka writers
	ticketWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlaced)
	defer ticketWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()

	// deps
	betRepo := brepo.NewPostgres(pg)
	roomRepo := rrepo.NewPostgres(pg)
	reg := registry.New(log, roomRepo)
	hub := ws.NewHub(log, reg, betRepo, cfg.StartBetMinBalance, func(r *http.Request) bool { return true })
	publ := producer.NewKafkaPublisher(ticketWriter, settledWriter)
	bcast := pubsub.NewRedisBroadcaster(rdb)

	// Fan-out de liquidações vindas do settlement-worker (ou de outra instância)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, reg, log)

	// HTTP público
	mux := http.NewServeMux()
	bhttp.NewServer(log, betRepo, publ, bcast, cfg.RedisPubSubChannel).Register(mux)
	rhttp.NewServer(log, reg, hub).Register(mux)

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: mux,
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
