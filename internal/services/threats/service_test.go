package threats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leakscan/internal/domain"
)

var (
	strong   = domain.DomainProfile{Encryption: domain.EncryptionStrong}
	moderate = domain.DomainProfile{Encryption: domain.EncryptionModerate}
	unknown  = domain.DefaultProfile
)

type shape struct {
	Title    string
	Severity domain.Severity
	Category string
}

func shapes(ts []domain.Threat) []shape {
	out := make([]shape, 0, len(ts))
	for _, t := range ts {
		out = append(out, shape{t.Title, t.Severity, t.Category})
	}
	return out
}

func TestSynthesizeRules(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		score   int
		profile domain.DomainProfile
		want    []shape
	}{
		{"low strong", 20, strong, []shape{}},
		{"boundary 40 strong", 40, strong, []shape{}},
		{"cookie medium", 41, strong, []shape{
			{TitleCookieTracking, domain.SeverityMedium, CategoryPrivacy},
		}},
		{"boundary 60", 60, strong, []shape{
			{TitleCookieTracking, domain.SeverityMedium, CategoryPrivacy},
		}},
		{"collection", 61, strong, []shape{
			{TitleCookieTracking, domain.SeverityMedium, CategoryPrivacy},
			{TitleDataCollection, domain.SeverityHigh, CategoryPrivacy},
		}},
		{"boundary 70 moderate", 70, moderate, []shape{
			{TitleCookieTracking, domain.SeverityMedium, CategoryPrivacy},
			{TitleDataCollection, domain.SeverityHigh, CategoryPrivacy},
			{TitleWeakEncryption, domain.SeverityMedium, CategorySecurity},
		}},
		{"facebook high", 78, moderate, []shape{
			{TitleCookieTracking, domain.SeverityHigh, CategoryPrivacy},
			{TitleDataCollection, domain.SeverityHigh, CategoryPrivacy},
			{TitleWeakEncryption, domain.SeverityMedium, CategorySecurity},
		}},
		{"unknown encryption only", 10, unknown, []shape{
			{TitleWeakEncryption, domain.SeverityMedium, CategorySecurity},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.score, tt.profile, now)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, shapes(got))
			for _, th := range got {
				assert.Equal(t, now, th.DetectedAt)
				assert.NotEmpty(t, th.Description)
			}
		})
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	a := Synthesize(66, moderate, time.Unix(1, 0))
	b := Synthesize(66, moderate, time.Unix(2, 0))
	assert.Equal(t, shapes(a), shapes(b))
	assert.NotEqual(t, a[0].DetectedAt, b[0].DetectedAt)
}
