package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leakscan/internal/bus"
	"leakscan/internal/domain"
	"leakscan/internal/ports"
	"leakscan/internal/services/analyzer"
	"leakscan/internal/services/threats"
)

const (
	inboxSize      = 64
	triggerTimeout = 2 * time.Second
)

type (
	ScanChannel       = bus.RequestChannel[domain.ScanRequest, domain.ScanReply]
	NavigationChannel = bus.NotifyChannel[domain.NavigationEvent]
)

// Service is the scan orchestrator. Run handles one inbound message at a
// time; the only state kept between messages lives in the store.
type Service struct {
	analyzer *analyzer.Service
	store    ports.SettingsStore
	writer   ports.ThreatLogWriter
	triggers ports.TriggerSender
	rnd      ports.RandomSource
	log      *slog.Logger
	now      func() time.Time

	scans *ScanChannel
	navs  *NavigationChannel
}

func New(an *analyzer.Service, store ports.SettingsStore, writer ports.ThreatLogWriter, triggers ports.TriggerSender, rnd ports.RandomSource, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		analyzer: an,
		store:    store,
		writer:   writer,
		triggers: triggers,
		rnd:      rnd,
		log:      log.With("component", "orchestrator"),
		now:      time.Now,
		scans:    bus.NewRequestChannel[domain.ScanRequest, domain.ScanReply](inboxSize),
		navs:     bus.NewNotifyChannel[domain.NavigationEvent](inboxSize),
	}
}

// Init seeds default settings. Existing keys, including the threat log,
// are left as they are.
func (s *Service) Init(ctx context.Context) error {
	if err := s.store.Seed(ctx, domain.DefaultSettings()); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	s.log.Info("settings seeded")
	return nil
}

func (s *Service) Scans() *ScanChannel             { return s.scans }
func (s *Service) Navigations() *NavigationChannel { return s.navs }

// Run is the single cooperative handler loop. On cancellation it answers
// whatever is already in the inbox before returning.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("orchestrator started")
	for {
		select {
		case req := <-s.scans.Inbox():
			req.Reply(s.safeScan(ctx, req.Body))
		case ev := <-s.navs.Inbox():
			s.safeNavigation(ctx, ev)
		case <-ctx.Done():
			n := s.drain(context.WithoutCancel(ctx))
			s.log.Info("orchestrator stopped", "drained", n)
			return nil
		}
	}
}

func (s *Service) drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case req := <-s.scans.Inbox():
			req.Reply(s.safeScan(ctx, req.Body))
		case ev := <-s.navs.Inbox():
			s.safeNavigation(ctx, ev)
		default:
			return n
		}
		n++
	}
}

func (s *Service) safeScan(ctx context.Context, req domain.ScanRequest) (reply domain.ScanReply) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scan handler panic", "panic", r)
			reply = domain.ErrorReply(errors.New("internal error"))
		}
	}()
	return s.HandleScan(ctx, req)
}

func (s *Service) safeNavigation(ctx context.Context, ev domain.NavigationEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("navigation handler panic", "panic", r)
		}
	}()
	s.HandleNavigation(ctx, ev)
}

// HandleScan answers one scan request. The reply never waits on
// persistence; qualifying results are queued for the threat-log writer.
func (s *Service) HandleScan(ctx context.Context, req domain.ScanRequest) domain.ScanReply {
	if err := req.Validate(); err != nil {
		return domain.ErrorReply(err)
	}
	target := req.TargetURL()
	if target == "" {
		return domain.ErrorReply(domain.ErrNoURL)
	}

	result, profile, err := s.analyzer.Analyze(target, s.rnd)
	if err != nil {
		s.log.Warn("analysis failed, using neutral result", "url", target, "error", err)
		return domain.ResultReply(domain.NeutralResult(s.now().UTC()))
	}
	result.Threats = threats.Synthesize(result.RiskScore, profile, s.now().UTC())

	appended := false
	if result.Qualifies() {
		if err := s.writer.Enqueue(ctx, domain.LogEntryFor(target, result)); err != nil {
			s.log.Error("threat log enqueue failed", "url", target, "error", err)
		} else {
			appended = true
		}
	}
	s.log.Info("scan handled",
		"url", target,
		"risk_score", result.RiskScore,
		"risk_level", result.RiskLevel,
		"threats", len(result.Threats),
		"logged", appended)
	return domain.ResultReply(result)
}

// HandleNavigation emits an autoScan to the tab when scanning is enabled.
// Nothing is persisted and nothing is correlated with the later scan.
func (s *Service) HandleNavigation(ctx context.Context, ev domain.NavigationEvent) {
	if err := ev.Validate(); err != nil {
		s.log.Warn("ignoring navigation event", "error", err)
		return
	}
	settings, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error("load settings for navigation", "tab_id", ev.TabID, "error", err)
		return
	}
	if !settings.ScanEnabled {
		s.log.Debug("auto scan disabled, skipping trigger", "tab_id", ev.TabID)
		return
	}
	tctx, cancel := context.WithTimeout(ctx, triggerTimeout)
	defer cancel()
	if err := s.triggers.SendAutoScan(tctx, ev.TabID); err != nil {
		s.log.Warn("auto scan trigger not delivered", "tab_id", ev.TabID, "error", err)
		return
	}
	s.log.Debug("auto scan triggered", "tab_id", ev.TabID, "url", ev.URL)
}

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.store.Load(ctx)
}

func (s *Service) UpdatePreferences(ctx context.Context, prefs domain.Preferences) (domain.Settings, error) {
	return s.store.UpdatePreferences(ctx, prefs)
}

func (s *Service) RecentThreats(ctx context.Context, limit int) ([]domain.ThreatLogEntry, error) {
	return s.store.RecentThreats(ctx, limit)
}
