package ports

import (
	"context"

	"leakscan/internal/domain"
)

// SettingsStore is the durable key-value store owned by the orchestrator.
// Implementations wrap driver failures in *domain.StoreUnavailableError.
type SettingsStore interface {
	// Seed writes defaults for absent keys only. Safe to call on every start.
	Seed(ctx context.Context, defaults domain.Settings) error
	Load(ctx context.Context) (domain.Settings, error)
	// AppendThreat atomically appends entry and sets lastScan to its timestamp.
	AppendThreat(ctx context.Context, entry domain.ThreatLogEntry) error
	UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Settings, error)
	// RecentThreats returns up to limit newest entries, oldest first. limit <= 0 means all.
	RecentThreats(ctx context.Context, limit int) ([]domain.ThreatLogEntry, error)
	Close() error
}
