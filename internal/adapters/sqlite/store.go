package sqlite

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/sqlite" // CGO-based driver (mattn/go-sqlite3)
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"leakscan/internal/domain"
)

// settingRow is one key of the settings key/value table.
type settingRow struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (settingRow) TableName() string { return "settings" }

// threatRow is one append-only threat-log record; ID gives insertion order.
type threatRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	URL       string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
	RiskScore int       `gorm:"not null"`
	RiskLevel string    `gorm:"not null"`
	Type      string    `gorm:"not null"`
}

func (threatRow) TableName() string { return "threat_log" }

type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database file at path and migrates it.
func Open(path string, conf ...gorm.Config) (*Store, error) {
	dbConf := gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if len(conf) != 0 {
		dbConf = conf[0]
	}
	db, err := gorm.Open(sqlite.Open(dsn(path)), &dbConf)
	if err != nil {
		return nil, domain.Unavailable("open", err)
	}
	if err := db.AutoMigrate(&settingRow{}, &threatRow{}); err != nil {
		return nil, domain.Unavailable("migrate", err)
	}
	return &Store{db: db}, nil
}

func dsn(path string) string {
	if !strings.HasSuffix(path, ".db") && path != ":memory:" {
		path += ".db"
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func (s *Store) Seed(ctx context.Context, defaults domain.Settings) error {
	values, err := defaults.EncodeScalars()
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range domain.ScalarKeys {
			row := settingRow{Key: key, Value: string(values[key]), UpdatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return domain.Unavailable("seed", err)
}

func (s *Store) Load(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	var rows []settingRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return out, domain.Unavailable("load", err)
	}
	for _, r := range rows {
		if err := out.DecodeScalar(r.Key, []byte(r.Value)); err != nil {
			return out, err
		}
	}
	threats, err := s.RecentThreats(ctx, 0)
	if err != nil {
		return out, err
	}
	out.DetectedThreats = threats
	return out, nil
}

// AppendThreat inserts the row and moves lastScan in one transaction.
func (s *Store) AppendThreat(ctx context.Context, e domain.ThreatLogEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := threatRow{
			URL:       e.URL,
			Timestamp: e.Timestamp.UTC(),
			RiskScore: e.RiskScore,
			RiskLevel: string(e.RiskLevel),
			Type:      string(e.Type),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return upsert(tx, domain.KeyLastScan, domain.EncodeLastScan(e.Timestamp))
	})
	return domain.Unavailable("append threat", err)
}

func (s *Store) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Settings, error) {
	values := domain.EncodePreferences(prefs)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, v := range values {
			if err := upsert(tx, key, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Settings{}, domain.Unavailable("update preferences", err)
	}
	return s.Load(ctx)
}

func (s *Store) RecentThreats(ctx context.Context, limit int) ([]domain.ThreatLogEntry, error) {
	var rows []threatRow
	q := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.Unavailable("list threats", err)
	}
	out := make([]domain.ThreatLogEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		e := domain.ThreatLogEntry{
			URL:       r.URL,
			Timestamp: r.Timestamp.UTC(),
			RiskScore: r.RiskScore,
			RiskLevel: domain.RiskLevel(r.RiskLevel),
			Type:      domain.LogType(r.Type),
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsert(tx *gorm.DB, key string, value []byte) error {
	row := settingRow{Key: key, Value: string(value), UpdatedAt: time.Now()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
