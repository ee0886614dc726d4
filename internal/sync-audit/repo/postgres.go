package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/game-gateway-poc/pkg/contracts/events"
)

// Postgres grava a trilha de auditoria das passadas de reconciliação.
// Uma linha por passada; falhas parciais ficam consultáveis em vez de
// só em log.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) InsertSyncAudit(ctx context.Context, e events.VendorSyncCompleted) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sync_audit
			(user_id, day, fetched, new_records, committed, failed,
			 last_timestamp, last_serial, duration_ms, event_ts_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())`,
		e.UserID, e.Day, e.Fetched, e.New, e.Committed, e.Failed,
		e.LastTimestamp, e.LastSerial, e.DurationMs, e.TsUnixMs)
	return err
}
