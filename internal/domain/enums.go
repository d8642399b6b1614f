package domain

import (
	"encoding/json"
	"fmt"
)

func (d DataHandling) Valid() bool {
	switch d {
	case DataHandlingGood, DataHandlingModerate, DataHandlingConcerning, DataHandlingUnknown:
		return true
	}
	return false
}

func (e Encryption) Valid() bool {
	switch e {
	case EncryptionStrong, EncryptionModerate, EncryptionWeak, EncryptionUnknown:
		return true
	}
	return false
}

func (l RiskLevel) Valid() bool {
	switch l {
	case RiskSafe, RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

func (t LogType) Valid() bool {
	return t == LogTypeDataLeak || t == LogTypeSensitiveData
}

// enum is satisfied by every closed string set above.
type enum interface {
	~string
	Valid() bool
}

func decodeEnum[T enum](data []byte, kind string) (T, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	v := T(raw)
	if !v.Valid() {
		return "", fmt.Errorf("invalid %s %q", kind, raw)
	}
	return v, nil
}

func (d *DataHandling) UnmarshalJSON(data []byte) (err error) {
	*d, err = decodeEnum[DataHandling](data, "dataHandling")
	return err
}

func (e *Encryption) UnmarshalJSON(data []byte) (err error) {
	*e, err = decodeEnum[Encryption](data, "encryption")
	return err
}

func (l *RiskLevel) UnmarshalJSON(data []byte) (err error) {
	*l, err = decodeEnum[RiskLevel](data, "riskLevel")
	return err
}

func (s *Severity) UnmarshalJSON(data []byte) (err error) {
	*s, err = decodeEnum[Severity](data, "severity")
	return err
}

func (t *LogType) UnmarshalJSON(data []byte) (err error) {
	*t, err = decodeEnum[LogType](data, "type")
	return err
}
