package threatlog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"leakscan/internal/domain"
	"leakscan/internal/ports"
)

// job is either an entry to append or a flush marker.
type job struct {
	entry *domain.ThreatLogEntry
	done  chan struct{}
}

// ErrQueueFull and ErrStopped are returned by Enqueue. The entry is dropped
// and counted; the caller never waits on the store.
var (
	ErrQueueFull = errors.New("threat log queue full")
	ErrStopped   = errors.New("threat log writer stopped")
)

// DefaultAppendTimeout bounds a single AppendThreat attempt.
const DefaultAppendTimeout = 5 * time.Second

// Writer owns every threat-log append. One goroutine drains the queue, so
// appends reach the store in arrival order and never interleave.
type Writer struct {
	store         ports.SettingsStore
	queue         chan job
	retryDelay    time.Duration
	appendTimeout time.Duration
	log           *slog.Logger

	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}

	written atomic.Int64
	dropped atomic.Int64
}

func New(store ports.SettingsStore, size int, retryDelay time.Duration, log *slog.Logger) *Writer {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{
		store:         store,
		queue:         make(chan job, size),
		retryDelay:    retryDelay,
		appendTimeout: DefaultAppendTimeout,
		log:           log.With("component", "threatlog"),
		stopped:       make(chan struct{}),
	}
}

// WithAppendTimeout replaces the per-attempt store deadline.
func (w *Writer) WithAppendTimeout(d time.Duration) *Writer {
	if d > 0 {
		w.appendTimeout = d
	}
	return w
}

// Enqueue hands entry to the writer goroutine without blocking. A full
// queue or a stopped writer drops the entry.
func (w *Writer) Enqueue(ctx context.Context, entry domain.ThreatLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		w.log.Error("writer stopped, dropping threat log entry", "url", entry.URL, "risk_score", entry.RiskScore)
		return ErrStopped
	}
	select {
	case w.queue <- job{entry: &entry}:
		return nil
	default:
		w.dropped.Add(1)
		w.log.Error("threat log queue full, dropping entry", "url", entry.URL, "risk_score", entry.RiskScore, "queue_size", cap(w.queue))
		return ErrQueueFull
	}
}

// Flush waits until everything enqueued before the call has been applied.
func (w *Writer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case w.queue <- job{done: done}:
	case <-w.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-w.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Written and Dropped count applied and abandoned entries.
func (w *Writer) Written() int64 { return w.written.Load() }
func (w *Writer) Dropped() int64 { return w.dropped.Load() }

// Run drains the queue until ctx is cancelled. It then refuses new entries,
// applies whatever is still buffered and returns. Call it once.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case j := <-w.queue:
			w.handle(ctx, j)
		case <-ctx.Done():
			w.mu.Lock()
			w.closed = true
			w.mu.Unlock()
			w.drain()
			close(w.stopped)
			return nil
		}
	}
}

func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case j := <-w.queue:
			w.handle(ctx, j)
		default:
			return
		}
	}
}

func (w *Writer) handle(ctx context.Context, j job) {
	if j.done != nil {
		close(j.done)
		return
	}
	w.apply(ctx, *j.entry)
}

// apply retries a StoreUnavailableError once, then drops the entry. Each
// attempt gets its own deadline so a hung store cannot stall the queue.
func (w *Writer) apply(ctx context.Context, e domain.ThreatLogEntry) {
	err := w.attempt(ctx, e)
	if err == nil {
		w.written.Add(1)
		return
	}
	var unavailable *domain.StoreUnavailableError
	if !errors.As(err, &unavailable) {
		w.dropped.Add(1)
		w.log.Error("threat log append rejected", "url", e.URL, "error", err)
		return
	}
	w.log.Warn("threat log append failed, retrying once", "url", e.URL, "error", err)
	select {
	case <-time.After(w.retryDelay):
	case <-ctx.Done():
	}
	if err := w.attempt(context.WithoutCancel(ctx), e); err != nil {
		w.dropped.Add(1)
		w.log.Error("dropping threat log entry", "url", e.URL, "risk_score", e.RiskScore, "error", err)
		return
	}
	w.written.Add(1)
}

func (w *Writer) attempt(ctx context.Context, e domain.ThreatLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, w.appendTimeout)
	defer cancel()
	err := w.store.AppendThreat(ctx, e)
	if err != nil && ctx.Err() != nil {
		var unavailable *domain.StoreUnavailableError
		if !errors.As(err, &unavailable) {
			err = domain.Unavailable("append threat", err)
		}
	}
	return err
}
