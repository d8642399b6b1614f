package ports

import (
	"context"

	"leakscan/internal/domain"
)

// ThreatLogWriter serializes threat-log appends through a single queue.
type ThreatLogWriter interface {
	Enqueue(ctx context.Context, entry domain.ThreatLogEntry) error
}

// TriggerSender delivers a fire-and-forget autoScan to one tab.
type TriggerSender interface {
	SendAutoScan(ctx context.Context, tabID int) error
}
