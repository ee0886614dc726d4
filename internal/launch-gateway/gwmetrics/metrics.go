package gwmetrics

import "github.com/prometheus/client_golang/prometheus"

// Métricas Prometheus do pipeline de sync e do fluxo de launch
var (
	SyncPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_sync_passes_total",
		Help: "Passadas de reconciliação por resultado",
	}, []string{"outcome"}) // ok | vendor_error | cancelled | skipped

	BatchesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_ingest_batches_total",
		Help: "Batches enviados ao ledger por resultado",
	}, []string{"outcome"}) // ok | failed

	RecordsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_records_ingested_total",
		Help: "Registros aceitos pelo ledger",
	})

	Launches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_launches_total",
		Help: "Tentativas de launch por estado final",
	}, []string{"state"}) // redirecting | blocked | failed

	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
)

// MustRegister registra todas as métricas do gateway; chamar uma vez no main.
func MustRegister() {
	prometheus.MustRegister(SyncPasses, BatchesSent, RecordsIngested, Launches, WSConnections)
}
