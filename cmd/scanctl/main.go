// Command scanctl drives a running leakscan server from the outside.
//
//	scanctl [-server URL] scan URL             one popup scan
//	scanctl [-server URL] observe -tab N URL   content observer for one tab
//	scanctl [-server URL] settings [-scan=BOOL] [-notify=BOOL]
//	scanctl [-server URL] threats [-limit N]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	httpadapter "leakscan/internal/adapters/http"
	"leakscan/internal/clients/observer"
	"leakscan/internal/clients/popup"
	"leakscan/internal/config"
	"leakscan/internal/domain"
	"leakscan/internal/logging"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	server := flag.String("server", cfg.Server, "server base URL")
	level := flag.String("log-level", cfg.LogLevel, "log level")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	log := logging.New(os.Stderr, "development", *level)
	client := httpadapter.NewClient(*server, nil)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "scan":
		err = runScan(ctx, client, args)
	case "observe":
		err = runObserve(ctx, client, log, cfg.SettleDelay, args)
	case "settings":
		err = runSettings(ctx, client, args)
	case "threats":
		err = runThreats(ctx, client, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(flag.Arg(0)+" failed", "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scanctl [-server URL] scan|observe|settings|threats ...")
	flag.PrintDefaults()
}

func runScan(ctx context.Context, client *httpadapter.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("scan takes exactly one URL")
	}
	p := popup.New(client, popup.StaticTab{URL: args[0]}, func(r domain.ScanResult) {
		fmt.Println(popup.Summary(r))
	})
	res, err := p.ScanActiveTab(ctx)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runObserve(ctx context.Context, client *httpadapter.Client, log *slog.Logger, settleDelay time.Duration, args []string) error {
	fs := flag.NewFlagSet("observe", flag.ContinueOnError)
	tab := fs.Int("tab", 1, "tab id")
	settle := fs.Duration("settle", settleDelay, "delay before the first scan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("observe takes exactly one URL")
	}
	pageURL := fs.Arg(0)

	warn := func(r domain.ScanResult) {
		log.Warn("High risk detected on this page!", "risk_score", r.RiskScore, "threats", len(r.Threats))
	}
	obs := observer.New(client, *tab, pageURL, *settle, warn, log)

	go func() {
		err := client.ListenTriggers(ctx, *tab, func(domain.AutoScanTrigger) {
			if _, err := obs.OnAutoScan(ctx); err != nil {
				log.Error("auto scan", "err", err)
			}
		})
		if err != nil {
			log.Error("trigger socket closed", "err", err)
		}
	}()

	// Give the trigger socket a moment before announcing the navigation.
	time.Sleep(100 * time.Millisecond)
	if err := client.NavigationComplete(ctx, domain.NavigationEvent{TabID: *tab, URL: pageURL}); err != nil {
		log.Warn("navigation event", "err", err)
	}
	res, err := obs.OnLoad(ctx)
	if err != nil {
		return err
	}
	log.Info("page scanned", "url", pageURL, "risk_score", res.RiskScore, "risk_level", res.RiskLevel)

	<-ctx.Done()
	return nil
}

func runSettings(ctx context.Context, client *httpadapter.Client, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	scan := fs.String("scan", "", "set scanEnabled (true|false)")
	notify := fs.String("notify", "", "set notificationsEnabled (true|false)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var prefs domain.Preferences
	var err error
	if prefs.ScanEnabled, err = optBool(*scan); err != nil {
		return err
	}
	if prefs.NotificationsEnabled, err = optBool(*notify); err != nil {
		return err
	}

	var s domain.Settings
	if prefs.ScanEnabled == nil && prefs.NotificationsEnabled == nil {
		s, err = client.GetSettings(ctx)
	} else {
		s, err = client.UpdatePreferences(ctx, prefs)
	}
	if err != nil {
		return err
	}
	return printJSON(s)
}

func runThreats(ctx context.Context, client *httpadapter.Client, args []string) error {
	fs := flag.NewFlagSet("threats", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "most recent entries to show, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := client.RecentThreats(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(entries)
}

func optBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid bool %q", s)
	}
	return &b, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
