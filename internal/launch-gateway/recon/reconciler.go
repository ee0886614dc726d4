package recon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/game-gateway-poc/internal/launch-gateway/balance"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/gwmetrics"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/vendor"
	"github.com/radieske/game-gateway-poc/internal/launch-gateway/watermark"
	"github.com/radieske/game-gateway-poc/pkg/contracts/events"
)

// ErrSyncInProgress: já existe passada em andamento pro mesmo usuário.
// Passadas do mesmo usuário nunca se sobrepõem; usuários diferentes sim.
var ErrSyncInProgress = errors.New("sync already in progress for user")

// ErrVendorFetch marca falha de transporte/parse no vendor; a passada vira
// no-op (watermark intacto, nada ingerido).
var ErrVendorFetch = errors.New("vendor fetch failed")

// HistoryFetcher é o que o reconciler precisa do vendor.
type HistoryFetcher interface {
	History(ctx context.Context, userID string) ([]vendor.TransactionRecord, error)
}

// CursorStore lê e grava o watermark por usuário.
type CursorStore interface {
	Get(ctx context.Context, userID, day string) (watermark.Watermark, bool)
	Set(ctx context.Context, userID string, w watermark.Watermark) error
}

// BalanceRefresher invalida e recarrega o snapshot de saldo.
type BalanceRefresher interface {
	Invalidate(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) (balance.Snapshot, error)
}

// SyncPublisher publica o evento de auditoria da passada. Pode ser nil.
type SyncPublisher interface {
	PublishSyncCompleted(ctx context.Context, e events.VendorSyncCompleted) error
}

// SyncOutcome resume uma passada de reconciliação completa.
type SyncOutcome struct {
	Fetched   int
	New       int
	Committed int
	Failed    int
	Balance   balance.Snapshot
	BalanceOK bool
}

// Reconciler executa a passada completa: vendor → filtro → ingestão →
// watermark → saldo. Uma instância por processo, guard por usuário.
type Reconciler struct {
	vendor   HistoryFetcher
	store    CursorStore
	ingestor *Ingestor
	balances BalanceRefresher
	publ     SyncPublisher
	log      *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewReconciler(v HistoryFetcher, s CursorStore, in *Ingestor, b BalanceRefresher, p SyncPublisher, log *zap.Logger) *Reconciler {
	return &Reconciler{
		vendor:   v,
		store:    s,
		ingestor: in,
		balances: b,
		publ:     p,
		log:      log,
		inflight: make(map[string]struct{}),
	}
}

func (r *Reconciler) acquire(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[userID]; busy {
		return false
	}
	r.inflight[userID] = struct{}{}
	return true
}

func (r *Reconciler) release(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, userID)
}

// Sync roda uma passada de reconciliação para o usuário.
//
// Erros possíveis: ErrSyncInProgress (gatilho sobreposto), ErrVendorFetch
// (passada virou no-op) e cancelamento de contexto vindo do Ingestor.
// Falha parcial de batch NÃO é erro: aparece em SyncOutcome.Failed.
func (r *Reconciler) Sync(ctx context.Context, userID string) (SyncOutcome, error) {
	var out SyncOutcome

	if !r.acquire(userID) {
		gwmetrics.SyncPasses.WithLabelValues("skipped").Inc()
		return out, ErrSyncInProgress
	}
	defer r.release(userID)

	started := time.Now()
	day := watermark.Day(started)

	// 1) vendor: uma chamada, janela recente
	records, err := r.vendor.History(ctx, userID)
	if err != nil {
		gwmetrics.SyncPasses.WithLabelValues("vendor_error").Inc()
		r.log.Warn("vendor history", zap.String("userId", userID), zap.Error(err))
		return out, fmt.Errorf("%w: %v", ErrVendorFetch, err)
	}
	out.Fetched = len(records)

	// 2) filtro contra o watermark do dia corrente
	mark, hasMark := r.store.Get(ctx, userID, day)
	fresh := NewSince(records, mark.Cursor(), hasMark)
	out.New = len(fresh)

	// 3) ingestão em batches; cancelamento deixa o watermark intacto
	var ingested IngestResult
	if len(fresh) > 0 {
		ingested, err = r.ingestor.Run(ctx, userID, day, fresh)
		if err != nil {
			gwmetrics.SyncPasses.WithLabelValues("cancelled").Inc()
			return out, err
		}
		out.Committed = len(ingested.Committed)
		out.Failed = len(ingested.Failed)
	}

	// 4) saldo: invalida e recarrega síncrono antes de qualquer launch
	if err := r.balances.Invalidate(ctx, userID); err != nil {
		r.log.Warn("balance invalidate", zap.String("userId", userID), zap.Error(err))
	}
	if snap, berr := r.balances.Refresh(ctx, userID); berr != nil {
		r.log.Warn("balance refresh", zap.String("userId", userID), zap.Error(berr))
	} else {
		out.Balance = snap
		out.BalanceOK = true
	}

	gwmetrics.SyncPasses.WithLabelValues("ok").Inc()
	r.log.Info("sync pass done",
		zap.String("userId", userID),
		zap.Int("fetched", out.Fetched),
		zap.Int("new", out.New),
		zap.Int("committed", out.Committed),
		zap.Int("failed", out.Failed),
	)

	if r.publ != nil {
		final, hasFinal := r.store.Get(ctx, userID, day)
		e := events.VendorSyncCompleted{
			UserID:     userID,
			Day:        day,
			Fetched:    out.Fetched,
			New:        out.New,
			Committed:  out.Committed,
			Failed:     out.Failed,
			DurationMs: time.Since(started).Milliseconds(),
			TsUnixMs:   time.Now().UnixMilli(),
		}
		if hasFinal {
			e.LastTimestamp = final.LastTimestamp
			e.LastSerial = final.LastSerial
		}
		if perr := r.publ.PublishSyncCompleted(ctx, e); perr != nil {
			r.log.Warn("publish sync_completed", zap.String("userId", userID), zap.Error(perr))
		}
	}

	return out, nil
}
