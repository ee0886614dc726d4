package main

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/shared/config"
	"github.com/radieske/game-gateway-poc/internal/shared/db"
	"github.com/radieske/game-gateway-poc/internal/shared/kafka"
	"github.com/radieske/game-gateway-poc/internal/shared/logger"
	"github.com/radieske/game-gateway-poc/internal/shared/metrics"
	"github.com/radieske/game-gateway-poc/internal/sync-audit/repo"
	ev "github.com/radieske/game-gateway-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres guarda a trilha de auditoria das passadas de sync
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	auditRepo := repo.NewPostgres(pg)

	// Kafka consumer: eventos vendor_sync_completed publicados pelo gateway
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSyncCompleted, "sync-audit")
	defer reader.Close()

	// DLQ para mensagens que não conseguimos persistir
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSyncCompletedDLQ)
	defer dlqWriter.Close()

	// Servidor de métricas e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("sync-audit-worker started",
		zap.String("consume", cfg.TopicSyncCompleted),
		zap.String("dlq", cfg.TopicSyncCompletedDLQ),
	)

	ctx := context.Background()

	// Loop principal: consome eventos e grava a linha de auditoria
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var e ev.VendorSyncCompleted
		if jerr := json.Unmarshal(value, &e); jerr != nil {
			log.Error("unmarshal sync_completed", zap.Error(jerr))
			_ = kafka.WriteJSON(ctx, dlqWriter, string(key), value)
			continue
		}

		if err := persistWithRetry(ctx, auditRepo, &e); err != nil {
			log.Error("persist sync audit", zap.String("userId", e.UserID), zap.Error(err))
			_ = kafka.WriteJSON(ctx, dlqWriter, string(key), value)
		}
	}
}

// persistWithRetry tenta a inserção algumas vezes antes de desistir pra DLQ
func persistWithRetry(ctx context.Context, r *repo.Postgres, e *ev.VendorSyncCompleted) error {
	err := r.InsertSyncAudit(ctx, *e)
	if err == nil {
		return nil
	}
	const retries = 3
	for i := 0; i < retries; i++ {
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
		if err = r.InsertSyncAudit(ctx, *e); err == nil {
			return nil
		}
	}
	return err
}
