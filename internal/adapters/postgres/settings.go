package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"leakscan/internal/domain"
)

// Seed inserts a default for every scalar key that has no row yet. The
// threat log needs no seed: an empty table is the empty log.
func (db *DB) Seed(ctx context.Context, defaults domain.Settings) (err error) {
	values, err := defaults.EncodeScalars()
	if err != nil {
		return err
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Unavailable("seed", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = domain.Unavailable("seed", tx.Commit(ctx))
		}
	}()
	for _, key := range domain.ScalarKeys {
		if _, err = tx.Exec(ctx, `
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, key, string(values[key])); err != nil {
			return domain.Unavailable("seed", err)
		}
	}
	return nil
}

func (db *DB) Load(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	rows, err := db.Pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return out, domain.Unavailable("load", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return out, domain.Unavailable("load", err)
		}
		if err := out.DecodeScalar(key, raw); err != nil {
			return out, err
		}
	}
	if err := rows.Err(); err != nil {
		return out, domain.Unavailable("load", err)
	}
	threats, err := db.RecentThreats(ctx, 0)
	if err != nil {
		return out, err
	}
	out.DetectedThreats = threats
	return out, nil
}

func (db *DB) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Settings, error) {
	if err := db.upsert(ctx, "update preferences", domain.EncodePreferences(prefs)); err != nil {
		return domain.Settings{}, err
	}
	return db.Load(ctx)
}

func (db *DB) upsert(ctx context.Context, op string, values map[string][]byte) (err error) {
	if len(values) == 0 {
		return nil
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Unavailable(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = domain.Unavailable(op, tx.Commit(ctx))
		}
	}()
	for key, v := range values {
		if _, err = tx.Exec(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, key, string(v)); err != nil {
			return domain.Unavailable(op, err)
		}
	}
	return nil
}
