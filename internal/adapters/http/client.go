package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"leakscan/internal/domain"
)

// Client talks to a Server. It satisfies ports.Scanner, ports.Navigator and
// ports.Preferences, so observers and the popup can run out of process.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: hc}
}

// ScanPage returns the orchestrator's reply. An {error} body is a reply,
// not a Go error; transport failures are.
func (c *Client) ScanPage(ctx context.Context, req domain.ScanRequest) (domain.ScanReply, error) {
	var reply domain.ScanReply
	status, err := c.do(ctx, http.MethodPost, "/v1/scan", req, &reply)
	if err != nil {
		return reply, err
	}
	if status != http.StatusOK && reply.Error == "" {
		return reply, fmt.Errorf("scan: unexpected status %d", status)
	}
	return reply, nil
}

func (c *Client) NavigationComplete(ctx context.Context, ev domain.NavigationEvent) error {
	status, err := c.do(ctx, http.MethodPost, "/v1/navigation", ev, nil)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted {
		return fmt.Errorf("navigation: unexpected status %d", status)
	}
	return nil
}

func (c *Client) GetSettings(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	err := c.expectOK(ctx, http.MethodGet, "/v1/settings", nil, &out)
	return out, err
}

func (c *Client) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Settings, error) {
	var out domain.Settings
	err := c.expectOK(ctx, http.MethodPut, "/v1/settings", prefs, &out)
	return out, err
}

func (c *Client) RecentThreats(ctx context.Context, limit int) ([]domain.ThreatLogEntry, error) {
	var out []domain.ThreatLogEntry
	err := c.expectOK(ctx, http.MethodGet, "/v1/threats?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// ListenTriggers holds the tab's trigger socket open and calls fn for each
// autoScan. It returns when ctx ends or the socket closes.
func (c *Client) ListenTriggers(ctx context.Context, tabID int, fn func(domain.AutoScanTrigger)) error {
	u, err := url.Parse(c.base + "/v1/tabs/" + strconv.Itoa(tabID) + "/triggers")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{HTTPClient: c.hc})
	if err != nil {
		return fmt.Errorf("dial triggers: %w", err)
	}
	defer conn.CloseNow()

	for {
		var t domain.AutoScanTrigger
		if err := wsjson.Read(ctx, conn, &t); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		if t.Action == domain.ActionAutoScan {
			fn(t)
		}
	}
}

func (c *Client) expectOK(ctx context.Context, method, path string, in, out any) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	raw := json.RawMessage{}
	status, err := c.do(ctx, method, path, in, &raw)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("%s %s: status %d: %s", method, path, status, apiErr.Error)
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.ContentLength != 0 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
