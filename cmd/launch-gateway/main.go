package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/balance"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/gwmetrics"
	ghttp "github.com/radieske/game-gateway-poc/internal/launch-gateway/http"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/launch"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/ledger"
	kpub "github.com/radieske/game-gateway-poc/internal/launch-gateway/producer"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/provider"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/recon"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/ws"
	"github.com/radieske/game-gateway-poc/internal/shared/cache"
	"github.com/radieske/game-gateway-poc/internal/shared/config"
	skafka "github.com/radieske/game-gateway-poc/internal/shared/kafka"
	"github.com/radieske/game-gateway-poc/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	gwmetrics.MustRegister()

	// Redis: watermark por usuário, cache de saldo e flag de resync
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writers (auditoria de sync + launches efetivados)
	syncWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSyncCompleted)
	defer syncWriter.Close()
	launchWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameLaunched)
	defer launchWriter.Close()
	publ := kpub.NewKafkaPublisher(syncWriter, launchWriter)

	// Clientes externos
	vcli := vendor.New(cfg.VendorBaseURL)
	lcli := ledger.New(cfg.LedgerBaseURL)
	pcli := provider.New(cfg.ProviderBaseURL)

	// Pipeline de reconciliação
	wmStore := watermark.NewStore(rdb, log)
	balances := balance.NewReconciler(rdb, lcli, cfg.Currency, log)
	ingestor := recon.NewIngestor(lcli, wmStore, cfg.BatchSize, cfg.BatchDelay, log)
	reconciler := recon.NewReconciler(vcli, wmStore, ingestor, balances, publ, log)

	// Orquestração de launch
	flag := launch.NewResyncFlag(rdb)
	orch := launch.NewOrchestrator(
		reconciler, balances, pcli, flag, publ,
		cfg.AgencyID, cfg.Currency, cfg.Language, cfg.HomeURL,
		log,
	)

	hub := ws.NewHub(func(r *http.Request) bool { return true })

	// HTTP público
	api := ghttp.NewServer(log, reconciler, orch, balances, flag, hub)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("launch-gateway listening",
		zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)),
		zap.String("vendor", cfg.VendorBaseURL),
		zap.String("ledger", cfg.LedgerBaseURL),
		zap.String("provider", cfg.ProviderBaseURL),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
