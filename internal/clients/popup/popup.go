package popup

import (
	"context"
	"errors"
	"fmt"

	"leakscan/internal/domain"
	"leakscan/internal/ports"
)

// ActiveTab resolves the tab the user is looking at.
type ActiveTab interface {
	ActiveTab(ctx context.Context) (domain.Sender, error)
}

// StaticTab is an ActiveTab that always returns the same tab.
type StaticTab domain.Sender

func (t StaticTab) ActiveTab(context.Context) (domain.Sender, error) { return domain.Sender(t), nil }

// Present receives a completed scan.
type Present func(domain.ScanResult)

type Popup struct {
	scanner ports.Scanner
	tabs    ActiveTab
	present Present
}

func New(scanner ports.Scanner, tabs ActiveTab, present Present) *Popup {
	if present == nil {
		present = func(domain.ScanResult) {}
	}
	return &Popup{scanner: scanner, tabs: tabs, present: present}
}

// ScanActiveTab is the user's "scan current site" action.
func (p *Popup) ScanActiveTab(ctx context.Context) (domain.ScanResult, error) {
	tab, err := p.tabs.ActiveTab(ctx)
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("active tab: %w", err)
	}
	reply, err := p.scanner.ScanPage(ctx, domain.ScanRequest{Action: domain.ActionScanPage, URL: tab.URL})
	if err != nil {
		return domain.ScanResult{}, err
	}
	if reply.Result == nil {
		return domain.ScanResult{}, errors.New(reply.Error)
	}
	p.present(*reply.Result)
	return *reply.Result, nil
}

// Summary is the one-line toast text for a result.
func Summary(r domain.ScanResult) string {
	return fmt.Sprintf("Risk Score: %d", r.RiskScore)
}
