// Package observer plays the per-page content observer: it scans its own
// page once the page has settled and again on every autoScan trigger.
package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leakscan/internal/domain"
	"leakscan/internal/ports"
)

// DefaultSettleDelay is the wait after page load before the first scan.
const DefaultSettleDelay = 1500 * time.Millisecond

// WarnThreshold: a reply above this score surfaces a warning.
const WarnThreshold = 70

// WarnFunc surfaces a high-risk result; rendering is up to the caller.
type WarnFunc func(domain.ScanResult)

type Observer struct {
	scanner ports.Scanner
	tabID   int
	pageURL string
	settle  time.Duration
	warn    WarnFunc
	log     *slog.Logger
}

func New(scanner ports.Scanner, tabID int, pageURL string, settle time.Duration, warn WarnFunc, log *slog.Logger) *Observer {
	if warn == nil {
		warn = func(domain.ScanResult) {}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Observer{
		scanner: scanner,
		tabID:   tabID,
		pageURL: pageURL,
		settle:  settle,
		warn:    warn,
		log:     log.With("component", "observer", "tab_id", tabID),
	}
}

// OnLoad waits the settle delay, then scans.
func (o *Observer) OnLoad(ctx context.Context) (domain.ScanResult, error) {
	select {
	case <-time.After(o.settle):
	case <-ctx.Done():
		return domain.ScanResult{}, ctx.Err()
	}
	return o.Scan(ctx)
}

// OnAutoScan re-scans immediately.
func (o *Observer) OnAutoScan(ctx context.Context) (domain.ScanResult, error) {
	return o.Scan(ctx)
}

// Scan issues one scanPage request for the observer's own URL.
func (o *Observer) Scan(ctx context.Context) (domain.ScanResult, error) {
	o.log.Debug("analyzing page", "url", o.pageURL)
	reply, err := o.scanner.ScanPage(ctx, domain.ScanRequest{
		Action: domain.ActionScanPage,
		URL:    o.pageURL,
		Sender: &domain.Sender{TabID: o.tabID, URL: o.pageURL},
	})
	if err != nil {
		return domain.ScanResult{}, err
	}
	if reply.Result == nil {
		if reply.Error == "" {
			return domain.ScanResult{}, errors.New("empty reply")
		}
		return domain.ScanResult{}, fmt.Errorf("scan refused: %s", reply.Error)
	}
	res := *reply.Result
	if res.RiskScore > WarnThreshold {
		o.warn(res)
	}
	return res, nil
}
