package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Persisted key names.
const (
	KeyScanEnabled          = "scanEnabled"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyLastScan             = "lastScan"
	KeyDetectedThreats      = "detectedThreats"
)

// ScalarKeys are stored as JSON values in a key/value table. The threat
// log is kept apart as an append-only table.
var ScalarKeys = []string{KeyScanEnabled, KeyNotificationsEnabled, KeyLastScan}

// EncodeScalars returns the JSON encoding of each scalar key.
func (s Settings) EncodeScalars() (map[string][]byte, error) {
	out := make(map[string][]byte, len(ScalarKeys))
	for key, v := range map[string]any{
		KeyScanEnabled:          s.ScanEnabled,
		KeyNotificationsEnabled: s.NotificationsEnabled,
		KeyLastScan:             s.LastScan,
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// EncodePreferences returns the keys a preferences update touches.
func EncodePreferences(p Preferences) map[string][]byte {
	out := map[string][]byte{}
	if p.ScanEnabled != nil {
		out[KeyScanEnabled], _ = json.Marshal(*p.ScanEnabled)
	}
	if p.NotificationsEnabled != nil {
		out[KeyNotificationsEnabled], _ = json.Marshal(*p.NotificationsEnabled)
	}
	return out
}

// EncodeLastScan is the stored form of the lastScan key.
func EncodeLastScan(t time.Time) []byte {
	b, _ := json.Marshal(t.UTC())
	return b
}

// DecodeScalar sets one scalar key on s. Unknown keys are ignored.
func (s *Settings) DecodeScalar(key string, raw []byte) error {
	var err error
	switch key {
	case KeyScanEnabled:
		err = json.Unmarshal(raw, &s.ScanEnabled)
	case KeyNotificationsEnabled:
		err = json.Unmarshal(raw, &s.NotificationsEnabled)
	case KeyLastScan:
		var t *time.Time
		if err = json.Unmarshal(raw, &t); err == nil {
			s.LastScan = t
		}
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Validate checks a stored log row before it is handed out.
func (e ThreatLogEntry) Validate() error {
	if !e.RiskLevel.Valid() {
		return fmt.Errorf("invalid riskLevel %q", e.RiskLevel)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("invalid type %q", e.Type)
	}
	return nil
}
