package balance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Snapshot é o saldo conhecido de um usuário, sempre vindo do ledger,
// nunca calculado localmente.
type Snapshot struct {
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetched_at"`
}

// LedgerReader é o que o reconciler precisa do ledger.
type LedgerReader interface {
	Balance(ctx context.Context, userID string) (float64, error)
}

// Reconciler mantém o snapshot de saldo em cache no Redis, chaveado por
// usuário, e o invalida/recarrega após cada passada de ingestão.
type Reconciler struct {
	rdb      *redis.Client
	ledger   LedgerReader
	ttl      time.Duration
	currency string
	log      *zap.Logger
}

func NewReconciler(rdb *redis.Client, ledger LedgerReader, currency string, log *zap.Logger) *Reconciler {
	return &Reconciler{rdb: rdb, ledger: ledger, ttl: 5 * time.Minute, currency: currency, log: log}
}

func key(userID string) string { return "balance:user:" + userID }

// Invalidate marca o snapshot como obsoleto removendo a chave.
func (r *Reconciler) Invalidate(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, key(userID)).Err()
}

// Refresh busca o saldo no ledger de forma síncrona e regrava o cache.
// Nunca serve valor cacheado: quem pediu refresh quer o saldo corrente.
func (r *Reconciler) Refresh(ctx context.Context, userID string) (Snapshot, error) {
	amount, err := r.ledger.Balance(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		UserID:    userID,
		Amount:    amount,
		Currency:  r.currency,
		FetchedAt: time.Now().UTC(),
	}

	b, _ := json.Marshal(snap)
	if err := r.rdb.Set(ctx, key(userID), b, r.ttl).Err(); err != nil {
		// cache é conveniência; o snapshot em mãos continua válido
		r.log.Warn("balance cache set", zap.String("userId", userID), zap.Error(err))
	}
	return snap, nil
}

// Get devolve o snapshot cacheado; em cache miss recarrega do ledger.
func (r *Reconciler) Get(ctx context.Context, userID string) (Snapshot, error) {
	b, err := r.rdb.Get(ctx, key(userID)).Bytes()
	if err == nil {
		var snap Snapshot
		if jerr := json.Unmarshal(b, &snap); jerr == nil {
			return snap, nil
		}
	} else if err != redis.Nil {
		r.log.Warn("balance cache get", zap.String("userId", userID), zap.Error(err))
	}
	return r.Refresh(ctx, userID)
}
