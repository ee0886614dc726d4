package recon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/gwmetrics"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
)

// BatchSender entrega um batch ao ledger.
type BatchSender interface {
	IngestBatch(ctx context.Context, records []vendor.TransactionRecord) error
}

// CursorSetter persiste o watermark avançado.
type CursorSetter interface {
	Set(ctx context.Context, userID string, w watermark.Watermark) error
}

// IngestResult é o resultado estruturado de uma passada de ingestão.
// Falhas parciais não abortam a passada; ficam visíveis aqui em vez de
// só em log.
type IngestResult struct {
	Committed []vendor.TransactionRecord // batches que o ledger aceitou
	Failed    []vendor.TransactionRecord // batches recusados (política best-effort)
	Remaining []vendor.TransactionRecord // nunca tentados (só em cancelamento)
	Batches   int
	Watermark watermark.Watermark
	Advanced  bool // false quando a passada foi cancelada antes do commit
}

// Ingestor envia registros novos ao ledger em batches sequenciais de tamanho
// fixo, com pausa entre batches pra respeitar rate limit do ledger.
//
// O avanço do watermark é em duas fases: o candidato (máximo do conjunto novo
// inteiro) é calculado no início, mas só é gravado depois que o desfecho do
// último batch foi observado. Cancelamento no meio da passada não grava nada,
// então a próxima passada reavalia a partir do watermark antigo — o ledger
// idempotente absorve os replays.
type Ingestor struct {
	ledger    BatchSender
	store     CursorSetter
	batchSize int
	delay     time.Duration
	log       *zap.Logger
}

func NewIngestor(ledger BatchSender, store CursorSetter, batchSize int, delay time.Duration, log *zap.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Ingestor{ledger: ledger, store: store, batchSize: batchSize, delay: delay, log: log}
}

// Run executa uma passada de ingestão para o conjunto de registros novos.
// Retorna erro apenas em cancelamento de contexto; falha de batch individual
// não é erro da passada.
func (in *Ingestor) Run(ctx context.Context, userID, day string, newRecords []vendor.TransactionRecord) (IngestResult, error) {
	var res IngestResult
	if len(newRecords) == 0 {
		return res, nil
	}

	sorted := make([]vendor.TransactionRecord, len(newRecords))
	copy(sorted, newRecords)
	SortAscending(sorted)

	// candidato calculado sobre o conjunto inteiro, não só sobre os batches
	// que derem certo
	max := sorted[len(sorted)-1].Cursor()
	staged := watermark.Watermark{Day: day, LastTimestamp: max.Timestamp, LastSerial: max.Serial}

	for start := 0; start < len(sorted); start += in.batchSize {
		if err := ctx.Err(); err != nil {
			res.Remaining = sorted[start:]
			return res, err
		}

		end := start + in.batchSize
		if end > len(sorted) {
			end = len(sorted)
		}
		batch := sorted[start:end]
		res.Batches++

		err := in.ledger.IngestBatch(ctx, batch)
		if err != nil && ctx.Err() != nil {
			// cancelado no meio do POST: watermark fica exatamente como estava
			res.Remaining = sorted[start:]
			return res, ctx.Err()
		}
		if err != nil {
			in.log.Warn("ingest batch failed",
				zap.String("userId", userID),
				zap.Int("batch", res.Batches),
				zap.Int("records", len(batch)),
				zap.Error(err),
			)
			gwmetrics.BatchesSent.WithLabelValues("failed").Inc()
			res.Failed = append(res.Failed, batch...)
		} else {
			in.log.Info("ingest batch ok",
				zap.String("userId", userID),
				zap.Int("batch", res.Batches),
				zap.Int("records", len(batch)),
			)
			gwmetrics.BatchesSent.WithLabelValues("ok").Inc()
			gwmetrics.RecordsIngested.Add(float64(len(batch)))
			res.Committed = append(res.Committed, batch...)
		}

		if end < len(sorted) && in.delay > 0 {
			select {
			case <-ctx.Done():
				res.Remaining = sorted[end:]
				return res, ctx.Err()
			case <-time.After(in.delay):
			}
		}
	}

	// todos os batches observados (sucesso ou falha): commit do candidato
	if err := in.store.Set(ctx, userID, staged); err != nil {
		// não-fatal: pior caso é reingestão no próximo sync
		in.log.Warn("watermark commit", zap.String("userId", userID), zap.Error(err))
		return res, nil
	}
	res.Watermark = staged
	res.Advanced = true
	return res, nil
}
