package analyzer

import (
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"leakscan/internal/domain"
	"leakscan/internal/ports"
)

const (
	maxVariability = 15  // draws in [0,15)
	minSpeedMs     = 300 // illustrative, not measured
	speedSpanMs    = 500
)

// Lookup resolves a hostname to its baseline profile.
type Lookup interface {
	Lookup(hostname string) domain.DomainProfile
}

type Service struct {
	profiles Lookup
	now      func() time.Time
}

func New(profiles Lookup) *Service {
	return &Service{profiles: profiles, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Analyze scores rawurl. The returned result has no threats yet; the
// profile is returned so the caller can synthesize them.
func (s *Service) Analyze(rawurl string, rnd ports.RandomSource) (domain.ScanResult, domain.DomainProfile, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return domain.ScanResult{}, domain.DomainProfile{}, &domain.InvalidURLError{URL: rawurl, Err: err}
	}
	host := u.Hostname()
	if host == "" {
		return domain.ScanResult{}, domain.DomainProfile{}, &domain.InvalidURLError{URL: rawurl}
	}
	profile := s.profiles.Lookup(host)

	score := Score(profile.BaseRisk, rnd)
	speed := minSpeedMs + rnd.IntN(speedSpanMs)

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}

	return domain.ScanResult{
		RiskScore:             score,
		RiskLevel:             domain.LevelFor(score),
		DataLeakDetected:      score > domain.DataLeakThreshold,
		SensitiveDataFound:    score > domain.SensitiveDataThreshold,
		EncryptionStrength:    profile.Encryption,
		DataHandlingPractices: profile.DataHandling,
		ConnectionSpeedMs:     &speed,
		Domain:                registrable,
		Threats:               []domain.Threat{},
		Timestamp:             s.now().UTC(),
	}, profile, nil
}

// Score draws a variability in [0,15), flips its sign on a coin toss and
// clamps baseRisk±variability into [5,95].
func Score(baseRisk int, rnd ports.RandomSource) int {
	variability := rnd.IntN(maxVariability)
	if rnd.IntN(2) == 0 {
		variability = -variability
	}
	return clamp(baseRisk+variability, domain.MinRiskScore, domain.MaxRiskScore)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
