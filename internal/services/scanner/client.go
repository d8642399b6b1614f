package scanner

import (
	"context"

	"leakscan/internal/domain"
)

// Local is the in-process bus client. It goes through the same channels as
// the HTTP adapter, so it is handled by the orchestrator loop.
type Local struct {
	svc *Service
}

func NewLocal(svc *Service) *Local { return &Local{svc: svc} }

func (l *Local) ScanPage(ctx context.Context, req domain.ScanRequest) (domain.ScanReply, error) {
	return l.svc.Scans().Send(ctx, req)
}

func (l *Local) NavigationComplete(ctx context.Context, ev domain.NavigationEvent) error {
	return l.svc.Navigations().Post(ctx, ev)
}
