package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leakscan/internal/domain"
)

// AppendThreat inserts the log row and moves lastScan in one transaction.
// Rows are never rewritten, so concurrent appends cannot lose each other.
func (db *DB) AppendThreat(ctx context.Context, e domain.ThreatLogEntry) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Unavailable("append threat", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = domain.Unavailable("append threat", tx.Commit(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO threat_log (url, ts, risk_score, risk_level, type)
		VALUES ($1, $2, $3, $4, $5)
	`, e.URL, e.Timestamp, e.RiskScore, string(e.RiskLevel), string(e.Type)); err != nil {
		return domain.Unavailable("append threat", err)
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, domain.KeyLastScan, string(domain.EncodeLastScan(e.Timestamp))); err != nil {
		return domain.Unavailable("append threat", err)
	}
	return nil
}

func (db *DB) RecentThreats(ctx context.Context, limit int) ([]domain.ThreatLogEntry, error) {
	query := `SELECT url, ts, risk_score, risk_level, type FROM threat_log ORDER BY id`
	args := []any{}
	if limit > 0 {
		query = `
			SELECT url, ts, risk_score, risk_level, type FROM (
				SELECT id, url, ts, risk_score, risk_level, type
				FROM threat_log ORDER BY id DESC LIMIT $1
			) t ORDER BY id`
		args = append(args, limit)
	}
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Unavailable("list threats", err)
	}
	defer rows.Close()

	out := []domain.ThreatLogEntry{}
	for rows.Next() {
		var e domain.ThreatLogEntry
		var level, typ string
		if err := rows.Scan(&e.URL, &e.Timestamp, &e.RiskScore, &level, &typ); err != nil {
			return nil, domain.Unavailable("list threats", err)
		}
		e.RiskLevel, e.Type = domain.RiskLevel(level), domain.LogType(typ)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("threat_log row: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list threats", err)
	}
	return out, nil
}
