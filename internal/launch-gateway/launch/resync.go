package launch

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResyncFlag é o marcador por usuário de "precisa ressincronizar na volta".
// Gravado antes de navegar pro provider e consumido no próximo gatilho de
// sync. Por ser chaveado por usuário, abas/usuários concorrentes não
// sobrescrevem o flag uns dos outros.
type ResyncFlag struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResyncFlag(rdb *redis.Client) *ResyncFlag {
	return &ResyncFlag{rdb: rdb, ttl: time.Hour}
}

func flagKey(userID string) string { return "resync:user:" + userID }

func (f *ResyncFlag) Set(ctx context.Context, userID string) error {
	return f.rdb.Set(ctx, flagKey(userID), "1", f.ttl).Err()
}

// Consume lê e limpa o flag numa operação só.
func (f *ResyncFlag) Consume(ctx context.Context, userID string) (bool, error) {
	n, err := f.rdb.Del(ctx, flagKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
