package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	httpadapter "leakscan/internal/adapters/http"
	"leakscan/internal/adapters/memory"
	pg "leakscan/internal/adapters/postgres"
	"leakscan/internal/adapters/sqlite"
	"leakscan/internal/config"
	"leakscan/internal/logging"
	"leakscan/internal/ports"
	"leakscan/internal/services/analyzer"
	"leakscan/internal/services/profiles"
	scansvc "leakscan/internal/services/scanner"
	"leakscan/internal/workers/threatlog"
)

var (
	_ ports.SettingsStore   = (*pg.DB)(nil)
	_ ports.SettingsStore   = (*sqlite.Store)(nil)
	_ ports.SettingsStore   = (*memory.Store)(nil)
	_ ports.ThreatLogWriter = (*threatlog.Writer)(nil)
	_ ports.TriggerSender   = (*httpadapter.TriggerHub)(nil)
)

func main() {
	cfg, err := config.Load()
	log := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("store ready", "driver", cfg.StoreDriver)

	registry, err := loadRegistry(cfg.ProfilesFile)
	if err != nil {
		return err
	}
	log.Info("domain profiles loaded", "count", registry.Len())

	writer := threatlog.New(store, cfg.WriteQueueSize, cfg.StoreRetryDelay, log).WithAppendTimeout(cfg.AppendTimeout)
	hub := httpadapter.NewTriggerHub(log)
	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
	orchestrator := scansvc.New(analyzer.New(registry), store, writer, hub, rnd, log)
	if err := orchestrator.Init(ctx); err != nil {
		return err
	}

	local := scansvc.NewLocal(orchestrator)
	api := httpadapter.New(local, local, orchestrator, hub, log)
	r := chi.NewRouter()
	r.Mount("/", api.Routes())
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	log.Info("listening", "addr", cfg.ListenAddr)
	err = serve(ctx, log, srv, orchestrator, writer, shutdownGrace)
	log.Info("stopped", "threats_written", writer.Written(), "threats_dropped", writer.Dropped())
	return err
}

// shutdownGrace outlasts the HTTP adapter's reply timeout so in-flight scans
// can finish before connections are cut.
const shutdownGrace = 15 * time.Second

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
}

type runner interface {
	Run(ctx context.Context) error
}

// serve runs the HTTP server until ctx ends, then stops in dependency order:
// the server first, then the orchestrator, then the threat-log writer. Each
// stage's work is finished before the stage it feeds is stopped.
func serve(ctx context.Context, log *slog.Logger, srv httpServer, orch, writer runner, grace time.Duration) error {
	writerCtx, stopWriter := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWriter()
	writerDone := make(chan error, 1)
	go func() { writerDone <- writer.Run(writerCtx) }()

	orchCtx, stopOrch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopOrch()
	orchDone := make(chan error, 1)
	go func() { orchDone <- orch.Run(orchCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("http shutdown timed out, closing connections", "grace", grace)
			return srv.Close()
		}
		return err
	})
	err := g.Wait()

	stopOrch()
	if oerr := <-orchDone; oerr != nil && err == nil {
		err = fmt.Errorf("orchestrator: %w", oerr)
	}
	stopWriter()
	if werr := <-writerDone; werr != nil && err == nil {
		err = fmt.Errorf("threat log writer: %w", werr)
	}
	return err
}

func openStore(ctx context.Context, cfg config.Config) (ports.SettingsStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		return s, nil
	default:
		return memory.New(), nil
	}
}

func loadRegistry(path string) (*profiles.Registry, error) {
	if path == "" {
		return profiles.Default(), nil
	}
	table, err := profiles.LoadTable(path)
	if err != nil {
		return nil, err
	}
	return profiles.New(table)
}
