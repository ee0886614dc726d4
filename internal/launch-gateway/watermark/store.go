package watermark

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store guarda um watermark por usuário no Redis.
// Erros de I/O nunca são fatais: um watermark perdido só causa reingestão
// de registros já vistos, e o ledger é idempotente por
// (agency, serial_number, timestamp, member_account).
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewStore(rdb *redis.Client, log *zap.Logger) *Store {
	// TTL de 48h: chaves de dias anteriores expiram sozinhas,
	// o reset de virada de dia não depende de delete explícito
	return &Store{rdb: rdb, ttl: 48 * time.Hour, log: log}
}

func key(userID string) string { return "wm:user:" + userID }

// Get retorna o watermark do usuário para o dia informado.
// ok=false quando não há watermark, quando o valor gravado pertence a outro
// dia UTC (reset preguiçoso, sem apagar o valor) ou quando o storage falhou.
func (s *Store) Get(ctx context.Context, userID, day string) (Watermark, bool) {
	b, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if err == redis.Nil {
		return Watermark{}, false
	}
	if err != nil {
		s.log.Warn("watermark get", zap.String("userId", userID), zap.Error(err))
		return Watermark{}, false
	}

	var w Watermark
	if err := json.Unmarshal(b, &w); err != nil {
		s.log.Warn("watermark decode", zap.String("userId", userID), zap.Error(err))
		return Watermark{}, false
	}

	if !w.CurrentFor(day) {
		return Watermark{}, false
	}
	return w, true
}

// Set grava o watermark do usuário (last-write-wins).
func (s *Store) Set(ctx context.Context, userID string, w Watermark) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(userID), b, s.ttl).Err()
}
