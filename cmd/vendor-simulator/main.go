package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/shared/config"
	"github.com/radieske/game-gateway-poc/internal/shared/logger"
	"github.com/radieske/game-gateway-poc/internal/vendor-simulator/state"
)

var (
	// Métricas Prometheus por endpoint simulado
	simRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_requests_total",
		Help: "Requisições atendidas pelo simulador",
	}, []string{"endpoint"})
	simRecordsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_records_ingested_total",
		Help: "Registros aceitos pelo ledger simulado (pós-dedup)",
	})
)

type server struct {
	log   *zap.Logger
	store *state.Store
}

// historyHandler devolve a janela do dia do usuário. Metade das respostas sai
// como array plano, metade no envelope aninhado - o gateway precisa aceitar
// os dois formatos.
func (s *server) historyHandler(w http.ResponseWriter, r *http.Request) {
	simRequests.WithLabelValues("history").Inc()
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "user required", http.StatusBadRequest)
		return
	}

	// cada consulta tem chance de encontrar rodadas novas
	s.store.AppendRandom(userID, rand.Intn(4))
	records := s.store.History(userID)

	w.Header().Set("Content-Type", "application/json")
	if rand.Intn(2) == 0 {
		_ = json.NewEncoder(w).Encode(records)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"payload": map[string]any{
				"records":     records,
				"total_count": len(records),
			},
		},
	})
}

func (s *server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	simRequests.WithLabelValues("ingest").Inc()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 10% de falha transiente pra exercitar a política best-effort do gateway
	if rand.Intn(100) < 10 {
		http.Error(w, "ledger busy mock", http.StatusInternalServerError)
		return
	}

	var req struct {
		Records []vendor.TransactionRecord `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	accepted := s.store.Ingest(req.Records)
	simRecordsIngested.Add(float64(accepted))
	s.log.Info("ingest batch",
		zap.Int("received", len(req.Records)),
		zap.Int("accepted", accepted),
	)
	w.WriteHeader(http.StatusOK)
}

func (s *server) balanceHandler(w http.ResponseWriter, r *http.Request) {
	simRequests.WithLabelValues("balance").Inc()
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":  userID,
		"balance":  s.store.Balance(userID),
		"currency": "BRL",
	})
}

func (s *server) launchHandler(w http.ResponseWriter, r *http.Request) {
	simRequests.WithLabelValues("launch").Inc()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		GameID     string `json:"game_id"`
		TransferID string `json:"transfer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if rand.Intn(100) < 10 {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    1001,
			"message": "provider_reject_mock",
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code": 0,
		"payload": map[string]any{
			"game_launch_url": fmt.Sprintf("http://play.localhost/session/%s?game=%s", req.TransferID, req.GameID),
		},
	})
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(simRequests, simRecordsIngested)

	s := &server{log: log, store: state.NewStore(cfg.AgencyID)}

	// ==== MUX PÚBLICO: vendor + ledger + provider num processo só
	appMux := http.NewServeMux()
	appMux.HandleFunc("/history", s.historyHandler)
	appMux.HandleFunc("/transactions/ingest", s.ingestHandler)
	appMux.HandleFunc("/balance", s.balanceHandler)
	appMux.HandleFunc("/launch", s.launchHandler)

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("vendor simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("vendor simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/history,/transactions/ingest,/balance,/launch"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
