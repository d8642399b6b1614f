package memory

import (
	"context"
	"sync"
	"time"

	"leakscan/internal/domain"
)

// Store keeps settings in process memory. Each key is tracked separately
// so seeding only fills what is missing.
type Store struct {
	mu sync.Mutex

	scanEnabled          *bool
	notificationsEnabled *bool
	lastScanSet          bool
	lastScan             *time.Time
	threats              []domain.ThreatLogEntry
	threatsSet           bool
}

func New() *Store { return &Store{} }

func (s *Store) Seed(_ context.Context, d domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanEnabled == nil {
		v := d.ScanEnabled
		s.scanEnabled = &v
	}
	if s.notificationsEnabled == nil {
		v := d.NotificationsEnabled
		s.notificationsEnabled = &v
	}
	if !s.lastScanSet {
		s.lastScan = copyTime(d.LastScan)
		s.lastScanSet = true
	}
	if !s.threatsSet {
		s.threats = append([]domain.ThreatLogEntry{}, d.DetectedThreats...)
		s.threatsSet = true
	}
	return nil
}

func (s *Store) Load(_ context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *Store) AppendThreat(_ context.Context, e domain.ThreatLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threats = append(s.threats, e)
	s.threatsSet = true
	ts := e.Timestamp
	s.lastScan = &ts
	s.lastScanSet = true
	return nil
}

func (s *Store) UpdatePreferences(_ context.Context, p domain.Preferences) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ScanEnabled != nil {
		v := *p.ScanEnabled
		s.scanEnabled = &v
	}
	if p.NotificationsEnabled != nil {
		v := *p.NotificationsEnabled
		s.notificationsEnabled = &v
	}
	return s.snapshot(), nil
}

func (s *Store) RecentThreats(_ context.Context, limit int) ([]domain.ThreatLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := 0
	if limit > 0 && len(s.threats) > limit {
		from = len(s.threats) - limit
	}
	return append([]domain.ThreatLogEntry{}, s.threats[from:]...), nil
}

func (s *Store) Close() error { return nil }

// snapshot reports unseeded keys with their zero values; callers must lock.
func (s *Store) snapshot() domain.Settings {
	out := domain.Settings{
		LastScan:        copyTime(s.lastScan),
		DetectedThreats: append([]domain.ThreatLogEntry{}, s.threats...),
	}
	if s.scanEnabled != nil {
		out.ScanEnabled = *s.scanEnabled
	}
	if s.notificationsEnabled != nil {
		out.NotificationsEnabled = *s.notificationsEnabled
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
