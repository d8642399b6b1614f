package ports

import (
	"context"

	"leakscan/internal/domain"
)

// RandomSource is the injected randomness for the analyzer.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// Scanner is the client-side view of the bus: send a scan request, get a reply.
type Scanner interface {
	ScanPage(ctx context.Context, req domain.ScanRequest) (domain.ScanReply, error)
}

// Navigator is the client-side view of the fire-and-forget navigation channel.
type Navigator interface {
	NavigationComplete(ctx context.Context, ev domain.NavigationEvent) error
}

// Preferences exposes the popup's read/update surface over persisted settings.
type Preferences interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Settings, error)
	RecentThreats(ctx context.Context, limit int) ([]domain.ThreatLogEntry, error)
}
