package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{5, RiskSafe},
		{29, RiskSafe},
		{30, RiskLow},
		{49, RiskLow},
		{50, RiskMedium},
		{69, RiskMedium},
		{70, RiskHigh},
		{95, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %d", tt.score)
	}
}

func TestLogEntryFor(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	leak := LogEntryFor("https://x.test/", ScanResult{RiskScore: 78, RiskLevel: RiskHigh, DataLeakDetected: true, SensitiveDataFound: true, Timestamp: now})
	assert.Equal(t, LogTypeDataLeak, leak.Type)
	assert.Equal(t, 78, leak.RiskScore)
	assert.Equal(t, now, leak.Timestamp)

	sensitive := LogEntryFor("https://x.test/", ScanResult{RiskScore: 55, RiskLevel: RiskMedium, SensitiveDataFound: true, Timestamp: now})
	assert.Equal(t, LogTypeSensitiveData, sensitive.Type)
	assert.Equal(t, RiskMedium, sensitive.RiskLevel)
}

func TestNeutralResult(t *testing.T) {
	r := NeutralResult(time.Now())
	assert.Equal(t, 50, r.RiskScore)
	assert.Equal(t, RiskMedium, r.RiskLevel)
	assert.False(t, r.DataLeakDetected)
	assert.False(t, r.SensitiveDataFound)
	assert.False(t, r.Qualifies())
	assert.Nil(t, r.ConnectionSpeedMs)
	assert.NotNil(t, r.Threats)
	assert.Empty(t, r.Threats)
}

func TestEnumDecodeIsStrict(t *testing.T) {
	var p DomainProfile
	err := json.Unmarshal([]byte(`{"pattern":"x.com","baseRisk":10,"dataHandling":"good","encryption":"quantum"}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantum")

	require.NoError(t, json.Unmarshal([]byte(`{"pattern":"x.com","baseRisk":10,"dataHandling":"moderate","encryption":"weak"}`), &p))
	assert.Equal(t, EncryptionWeak, p.Encryption)

	var e ThreatLogEntry
	assert.Error(t, json.Unmarshal([]byte(`{"riskLevel":"extreme","type":"data_leak"}`), &e))
	assert.Error(t, json.Unmarshal([]byte(`{"riskLevel":"high","type":"leak"}`), &e))
}

func TestScanReplyJSON(t *testing.T) {
	b, err := json.Marshal(ErrorReply(ErrNoURL))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"No URL provided"}`, string(b))

	speed := 420
	res := ScanResult{
		RiskScore:             78,
		RiskLevel:             RiskHigh,
		DataLeakDetected:      true,
		SensitiveDataFound:    true,
		EncryptionStrength:    EncryptionModerate,
		DataHandlingPractices: DataHandlingConcerning,
		ConnectionSpeedMs:     &speed,
		Threats:               []Threat{},
		Timestamp:             time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	b, err = json.Marshal(ResultReply(res))
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"error"`)
	assert.Contains(t, string(b), `"riskScore":78`)

	var back ScanReply
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.Result)
	assert.Equal(t, 78, back.Result.RiskScore)
	assert.Equal(t, 420, *back.Result.ConnectionSpeedMs)

	require.NoError(t, json.Unmarshal([]byte(`{"error":"No URL provided"}`), &back))
	assert.Nil(t, back.Result)
	assert.Equal(t, "No URL provided", back.Error)
}

func TestScanRequestTargetURL(t *testing.T) {
	assert.Equal(t, "https://a.test/", ScanRequest{URL: " https://a.test/ "}.TargetURL())
	assert.Equal(t, "https://tab.test/", ScanRequest{Sender: &Sender{TabID: 3, URL: "https://tab.test/"}}.TargetURL())
	assert.Equal(t, "https://a.test/", ScanRequest{URL: "https://a.test/", Sender: &Sender{URL: "https://tab.test/"}}.TargetURL())
	assert.Empty(t, ScanRequest{}.TargetURL())
}

func TestScanRequestValidate(t *testing.T) {
	assert.NoError(t, ScanRequest{}.Validate())
	assert.NoError(t, ScanRequest{Action: ActionScanPage}.Validate())
	assert.Error(t, ScanRequest{Action: ActionAutoScan}.Validate())
	assert.Error(t, ScanRequest{Sender: &Sender{TabID: -1}}.Validate())
}

func TestNavigationEventValidate(t *testing.T) {
	assert.NoError(t, NavigationEvent{TabID: 0, URL: "https://a.test/"}.Validate())
	assert.Error(t, NavigationEvent{TabID: 1}.Validate())
	assert.Error(t, NavigationEvent{TabID: -2, URL: "https://a.test/"}.Validate())
}

func TestSettingsScalarsRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	in := Settings{ScanEnabled: false, NotificationsEnabled: true, LastScan: &ts}
	values, err := in.EncodeScalars()
	require.NoError(t, err)
	assert.Len(t, values, len(ScalarKeys))
	assert.Equal(t, "null", string(mustEncode(t, DefaultSettings())[KeyLastScan]))

	out := Settings{ScanEnabled: true}
	for k, v := range values {
		require.NoError(t, out.DecodeScalar(k, v))
	}
	assert.False(t, out.ScanEnabled)
	assert.True(t, out.NotificationsEnabled)
	require.NotNil(t, out.LastScan)
	assert.True(t, ts.Equal(*out.LastScan))

	assert.Error(t, out.DecodeScalar(KeyScanEnabled, []byte(`"yes"`)))
	assert.NoError(t, out.DecodeScalar("unknownKey", []byte(`{}`)))
}

func TestEncodePreferencesPartial(t *testing.T) {
	off := false
	values := EncodePreferences(Preferences{ScanEnabled: &off})
	assert.Equal(t, map[string][]byte{KeyScanEnabled: []byte("false")}, values)
	assert.Empty(t, EncodePreferences(Preferences{}))
}

func TestUnavailable(t *testing.T) {
	assert.NoError(t, Unavailable("load", nil))

	cause := errors.New("connection refused")
	err := Unavailable("load", cause)
	var su *StoreUnavailableError
	require.ErrorAs(t, err, &su)
	assert.Equal(t, "load", su.Op)
	assert.ErrorIs(t, err, cause)
}

func mustEncode(t *testing.T, s Settings) map[string][]byte {
	t.Helper()
	v, err := s.EncodeScalars()
	require.NoError(t, err)
	return v
}
