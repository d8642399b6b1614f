package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leakscan/internal/domain"
)

func threat(url string, ts time.Time) domain.ThreatLogEntry {
	return domain.ThreatLogEntry{URL: url, Timestamp: ts, RiskScore: 72, RiskLevel: domain.RiskHigh, Type: domain.LogTypeDataLeak}
}

func TestSeedOnlyFillsMissingKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Seed(ctx, domain.DefaultSettings()))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.AppendThreat(ctx, threat("https://a.test/", ts)))
	off := false
	_, err := s.UpdatePreferences(ctx, domain.Preferences{NotificationsEnabled: &off})
	require.NoError(t, err)

	require.NoError(t, s.Seed(ctx, domain.DefaultSettings()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.ScanEnabled)
	assert.False(t, got.NotificationsEnabled)
	require.Len(t, got.DetectedThreats, 1)
	require.NotNil(t, got.LastScan)
	assert.Equal(t, ts, *got.LastScan)
}

func TestAppendThreatMovesLastScan(t *testing.T) {
	ctx := context.Background()
	s := New()
	t1 := time.Unix(100, 0).UTC()
	t2 := time.Unix(200, 0).UTC()
	require.NoError(t, s.AppendThreat(ctx, threat("https://1.test/", t1)))
	require.NoError(t, s.AppendThreat(ctx, threat("https://2.test/", t2)))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2, *got.LastScan)
	assert.Equal(t, "https://1.test/", got.DetectedThreats[0].URL)
	assert.Equal(t, "https://2.test/", got.DetectedThreats[1].URL)
}

func TestRecentThreatsLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendThreat(ctx, threat("https://"+string(rune('a'+i))+".test/", time.Unix(int64(i), 0))))
	}

	last2, err := s.RecentThreats(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "https://d.test/", last2[0].URL)
	assert.Equal(t, "https://e.test/", last2[1].URL)

	all, err := s.RecentThreats(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.AppendThreat(ctx, threat("https://a.test/", time.Now())))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	got.DetectedThreats[0].URL = "mutated"
	*got.LastScan = time.Time{}

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/", again.DetectedThreats[0].URL)
	assert.False(t, again.LastScan.IsZero())
}
