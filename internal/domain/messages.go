package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	ActionScanPage = "scanPage"
	ActionAutoScan = "autoScan"
)

// Sender identifies the tab a request came from, when known.
type Sender struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url,omitempty"`
}

// ScanRequest asks for a fresh analysis of URL. It always gets a ScanReply.
type ScanRequest struct {
	Action string  `json:"action,omitempty"`
	URL    string  `json:"url,omitempty"`
	Sender *Sender `json:"sender,omitempty"`
}

// Validate checks the envelope only. A missing URL is not a schema error;
// it is answered with ErrNoURL by the orchestrator.
func (r ScanRequest) Validate() error {
	if r.Action != "" && r.Action != ActionScanPage {
		return fmt.Errorf("unexpected action %q", r.Action)
	}
	if r.Sender != nil && r.Sender.TabID < 0 {
		return errors.New("sender.tabId must be >= 0")
	}
	return nil
}

// TargetURL resolves the URL to scan, falling back to the sender tab.
func (r ScanRequest) TargetURL() string {
	if u := strings.TrimSpace(r.URL); u != "" {
		return u
	}
	if r.Sender != nil {
		return strings.TrimSpace(r.Sender.URL)
	}
	return ""
}

// ScanReply carries either Result or Error, never both.
type ScanReply struct {
	Result *ScanResult
	Error  string
}

func ErrorReply(err error) ScanReply { return ScanReply{Error: err.Error()} }

func ResultReply(r ScanResult) ScanReply { return ScanReply{Result: &r} }

func (r ScanReply) MarshalJSON() ([]byte, error) {
	if r.Result == nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(r.Result)
}

func (r *ScanReply) UnmarshalJSON(data []byte) error {
	var shape struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	if shape.Error != nil {
		*r = ScanReply{Error: *shape.Error}
		return nil
	}
	var res ScanResult
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	*r = ScanReply{Result: &res}
	return nil
}

// NavigationEvent is the host's per-tab "navigation complete" signal.
type NavigationEvent struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}

func (e NavigationEvent) Validate() error {
	if e.TabID < 0 {
		return errors.New("tabId must be >= 0")
	}
	if strings.TrimSpace(e.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}

// AutoScanTrigger tells one tab's observer to re-scan itself. No reply.
type AutoScanTrigger struct {
	Action string `json:"action"`
}

func NewAutoScanTrigger() AutoScanTrigger { return AutoScanTrigger{Action: ActionAutoScan} }
