package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	shttp "github.com/radieske/spin-wheel-settlement/internal/settlement-service/http"
	"github.com/radieske/spin-wheel-settlement/internal/settlement-service/publisher"
	"github.com/radieske/spin-wheel-settlement/internal/shared/cache"
	"github.com/radieske/spin-wheel-settlement/internal/shared/config"
	"github.com/radieske/spin-wheel-settlement/internal/shared/db"
	"github.com/radieske/spin-wheel-settlement/internal/shared/kafka"
	"github.com/radieske/spin-wheel-settlement/internal/shared/logger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service",
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreDriver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ledger: Postgres em produção, memória para demos locais
	var store ledger.Store
	switch cfg.StoreDriver {
	case "memory":
		store = ledger.NewMemory()
		log.Warn("using in-memory ledger; state is lost on restart")
	default:
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		if cfg.AutoMigrate {
			if err := db.RunMigrations(pg); err != nil {
				log.Fatal("migrations", zap.Error(err))
			}
		}
		store = ledger.NewPostgres(pg)
	}

	// Publicação pós-commit: snapshot no Redis e evento no Kafka
	var notifiers publisher.Fanout
	var snapshots *publisher.RedisSnapshots
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		snapshots = publisher.NewRedisSnapshots(rdb, cfg.SnapshotTTL, cfg.RedisSnapshotChannel)
		notifiers = append(notifiers, snapshots)
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		var dlq kafka.MessageWriter
		if cfg.TopicSettlementEventsDLQ != "" {
			dlq = kafka.NewWriter(brokers, cfg.TopicSettlementEventsDLQ)
		}
		kp := publisher.NewKafkaPublisher(kafka.NewWriter(brokers, cfg.TopicSettlementEvents), dlq)
		defer kp.Close()
		notifiers = append(notifiers, kp)
	}

	engine := settlement.NewEngine(store, settlement.Options{
		Params:   settlement.Params(cfg.Game),
		Logger:   log,
		Metrics:  metrics.NewSettlement(prometheus.DefaultRegisterer),
		Notifier: notifiers,
	})

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, engine.Ping)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	var snapCache shttp.SnapshotCache
	if snapshots != nil {
		snapCache = snapshots
	}
	api := shttp.NewServer(log, engine, snapCache)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8084
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// Inicia servidor principal da API de liquidação
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api srv", zap.Error(err))
	}
	log.Info("service stopped")
}
