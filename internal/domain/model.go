package domain

import "time"

// Core domain models shared by the orchestrator, the store adapters and the
// bus clients. JSON tags are the wire schema.

type DataHandling string

const (
	DataHandlingGood       DataHandling = "good"
	DataHandlingModerate   DataHandling = "moderate"
	DataHandlingConcerning DataHandling = "concerning"
	DataHandlingUnknown    DataHandling = "unknown"
)

type Encryption string

const (
	EncryptionStrong   Encryption = "strong"
	EncryptionModerate Encryption = "moderate"
	EncryptionWeak     Encryption = "weak"
	EncryptionUnknown  Encryption = "unknown"
)

type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type LogType string

const (
	LogTypeDataLeak      LogType = "data_leak"
	LogTypeSensitiveData LogType = "sensitive_data"
)

// Score bounds and level thresholds.
const (
	MinRiskScore = 5
	MaxRiskScore = 95

	lowThreshold    = 30
	mediumThreshold = 50
	highThreshold   = 70

	DataLeakThreshold      = 70
	SensitiveDataThreshold = 50
)

// LevelFor maps a risk score to its bucket.
func LevelFor(score int) RiskLevel {
	switch {
	case score < lowThreshold:
		return RiskSafe
	case score < mediumThreshold:
		return RiskLow
	case score < highThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// DomainProfile holds baseline risk attributes for hostnames containing Pattern.
type DomainProfile struct {
	Pattern      string       `json:"pattern" yaml:"pattern"`
	BaseRisk     int          `json:"baseRisk" yaml:"baseRisk"`
	DataHandling DataHandling `json:"dataHandling" yaml:"dataHandling"`
	Encryption   Encryption   `json:"encryption" yaml:"encryption"`
}

// DefaultProfile applies when no pattern matches.
var DefaultProfile = DomainProfile{
	BaseRisk:     50,
	DataHandling: DataHandlingUnknown,
	Encryption:   EncryptionUnknown,
}

type Threat struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// ScanResult is built fresh per request and never persisted as is.
// ConnectionSpeedMs is illustrative only; nil means unknown.
type ScanResult struct {
	RiskScore             int          `json:"riskScore"`
	RiskLevel             RiskLevel    `json:"riskLevel"`
	DataLeakDetected      bool         `json:"dataLeakDetected"`
	SensitiveDataFound    bool         `json:"sensitiveDataFound"`
	EncryptionStrength    Encryption   `json:"encryptionStrength"`
	DataHandlingPractices DataHandling `json:"dataHandlingPractices"`
	ConnectionSpeedMs     *int         `json:"connectionSpeedMs"`
	Domain                string       `json:"domain,omitempty"`
	Threats               []Threat     `json:"threats"`
	Timestamp             time.Time    `json:"timestamp"`
}

// Qualifies reports whether the scan must be appended to the threat log.
func (r ScanResult) Qualifies() bool {
	return r.DataLeakDetected || r.SensitiveDataFound
}

// NeutralResult is substituted when the URL cannot be analyzed.
func NeutralResult(now time.Time) ScanResult {
	return ScanResult{
		RiskScore:             50,
		RiskLevel:             RiskMedium,
		EncryptionStrength:    EncryptionUnknown,
		DataHandlingPractices: DataHandlingUnknown,
		Threats:               []Threat{},
		Timestamp:             now,
	}
}

type ThreatLogEntry struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	RiskScore int       `json:"riskScore"`
	RiskLevel RiskLevel `json:"riskLevel"`
	Type      LogType   `json:"type"`
}

// LogEntryFor derives the threat-log record for a qualifying scan.
func LogEntryFor(url string, r ScanResult) ThreatLogEntry {
	typ := LogTypeSensitiveData
	if r.DataLeakDetected {
		typ = LogTypeDataLeak
	}
	return ThreatLogEntry{
		URL:       url,
		Timestamp: r.Timestamp,
		RiskScore: r.RiskScore,
		RiskLevel: r.RiskLevel,
		Type:      typ,
	}
}

type Settings struct {
	ScanEnabled          bool             `json:"scanEnabled"`
	NotificationsEnabled bool             `json:"notificationsEnabled"`
	LastScan             *time.Time       `json:"lastScan"`
	DetectedThreats      []ThreatLogEntry `json:"detectedThreats"`
}

// DefaultSettings is what first-run seeding writes for absent keys.
func DefaultSettings() Settings {
	return Settings{
		ScanEnabled:          true,
		NotificationsEnabled: true,
		LastScan:             nil,
		DetectedThreats:      []ThreatLogEntry{},
	}
}

// Preferences is a partial settings update; nil fields are left alone.
type Preferences struct {
	ScanEnabled          *bool `json:"scanEnabled,omitempty"`
	NotificationsEnabled *bool `json:"notificationsEnabled,omitempty"`
}
