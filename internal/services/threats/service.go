package threats

import (
	"time"

	"leakscan/internal/domain"
)

const (
	CategoryPrivacy  = "Privacy"
	CategorySecurity = "Security"

	TitleCookieTracking = "Cookie Tracking"
	TitleDataCollection = "Data Collection"
	TitleWeakEncryption = "Weak Encryption"
)

const (
	cookieThreshold     = 40
	collectionThreshold = 60
	cookieHighThreshold = 70
)

// Synthesize applies the fixed rule list in order. Identical inputs give
// identical (title, severity, category) sequences; only DetectedAt varies.
func Synthesize(score int, profile domain.DomainProfile, now time.Time) []domain.Threat {
	out := []domain.Threat{}
	if score > cookieThreshold {
		sev := domain.SeverityMedium
		if score > cookieHighThreshold {
			sev = domain.SeverityHigh
		}
		out = append(out, domain.Threat{
			Title:       TitleCookieTracking,
			Description: "This site uses extensive cookie tracking that may collect personal data",
			Severity:    sev,
			Category:    CategoryPrivacy,
			DetectedAt:  now,
		})
	}
	if score > collectionThreshold {
		out = append(out, domain.Threat{
			Title:       TitleDataCollection,
			Description: "Excessive user data collection detected without clear privacy policy",
			Severity:    domain.SeverityHigh,
			Category:    CategoryPrivacy,
			DetectedAt:  now,
		})
	}
	if profile.Encryption != domain.EncryptionStrong {
		out = append(out, domain.Threat{
			Title:       TitleWeakEncryption,
			Description: "This site may not use strong encryption for all data transfers",
			Severity:    domain.SeverityMedium,
			Category:    CategorySecurity,
			DetectedAt:  now,
		})
	}
	return out
}
