package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
	"github.com/nixlim/hcpss-monitor/internal/config"
	"github.com/nixlim/hcpss-monitor/internal/events"
	"github.com/nixlim/hcpss-monitor/internal/logging"
	"github.com/nixlim/hcpss-monitor/internal/metrics"
	"github.com/nixlim/hcpss-monitor/internal/monitor"
	"github.com/nixlim/hcpss-monitor/internal/notify"
	"github.com/nixlim/hcpss-monitor/internal/session"
	"github.com/nixlim/hcpss-monitor/internal/settings"
	"github.com/nixlim/hcpss-monitor/internal/state"
	"github.com/nixlim/hcpss-monitor/internal/storage"
	"github.com/nixlim/hcpss-monitor/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to the TOML config file")
	exportFlag := flag.String("export", "", "Write the signed-in user's alerts as JSON into this directory and exit")
	debugFlag := flag.Bool("debug", false, "Log at debug level regardless of [logging] level")
	flag.Parse()

	loadResult, err := config.LoadFrom(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hcpss-monitor: config error: %v\n", err)
		os.Exit(1)
	}
	cfg := loadResult.Config

	for _, w := range loadResult.Warnings {
		fmt.Fprintf(os.Stderr, "hcpss-monitor: config warning: %s\n", w)
	}

	logger, err := logging.New(cfg.Logging, *debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hcpss-monitor: logging error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	store, isPersistent, err := storage.NewStore(cfg.Storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hcpss-monitor: storage error: %v\n", err)
		os.Exit(1)
	}
	if !isPersistent {
		logger.Warn("using in-memory storage; alerts and settings will not survive a restart")
	}

	sessions := session.NewManager(store, session.NewMockAuthenticator("google"), logger)
	sess, restored := sessions.Restore()

	repo := alerts.NewRepository(store, logger, alerts.WithDedupPolicy(alerts.DedupPolicy(cfg.Monitor.Dedup)))

	if *exportFlag != "" {
		os.Exit(runExport(*exportFlag, sess, restored, repo, store))
	}

	prefs := settings.NewService(store, settings.Bounds{
		Min:     cfg.Monitor.MinIntervalSeconds,
		Max:     cfg.Monitor.MaxIntervalSeconds,
		Default: cfg.Monitor.DefaultIntervalSeconds,
		Step:    settings.DefaultBounds().Step,
	}, logger)

	var recorder metrics.Recorder = metrics.Nop()
	var registry *prometheus.Registry
	if cfg.Metrics.Listen != "" {
		registry = prometheus.NewRegistry()
		recorder = metrics.New(registry)
	}

	providerClient := notify.WithHTTPClient(&http.Client{
		Timeout: time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second,
	})
	dispatcher := notify.NewDispatcher(logger,
		notify.WithDesktop(notify.NewPlatformNotifier(cfg.Notifications.AppName, cfg.Notifications.SystemNotify, logger)),
		notify.WithEmailProvider(notify.NewEmailProvider(cfg.Email, logger, providerClient)),
		notify.WithSMSProvider(notify.NewSMSProvider(cfg.SMS, logger, providerClient)),
		notify.WithAppName(cfg.Notifications.AppName),
		notify.WithSendTimeout(time.Duration(cfg.Notifications.SendTimeoutSeconds)*time.Second),
		notify.WithMetrics(recorder),
	)

	activity := events.NewRingBuffer(cfg.Display.ActivityBufferSize)

	// The program is created after the controller; both hooks only fire
	// once it is running.
	var p *tea.Program

	ctrl := monitor.NewController(sessions, prefs,
		alerts.NewRandomSource(alerts.WithProbability(cfg.Monitor.UpdateProbability)),
		repo, dispatcher,
		monitor.WithLogger(logger),
		monitor.WithMetrics(recorder),
		monitor.WithPermissionRequester(notify.NewDesktopPermission(cfg.Notifications.SystemNotify)),
		monitor.WithActivityLog(activity),
		monitor.WithAuthPrompt(func() { p.Send(tui.AuthPromptMsg{}) }),
	)
	ctrl.OnCycle(func(res monitor.CycleResult) { p.Send(tui.CycleMsg(res)) })
	sessions.OnChange(ctrl.HandleSessionEvent)
	if restored {
		ctrl.Refresh()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownMgr := tui.NewShutdownManager()
	shutdownMgr.StopMonitor = ctrl.Stop
	shutdownMgr.WaitNotifications = dispatcher.Wait
	shutdownMgr.Cleanup = func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}

	if registry != nil {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		metricsDone := make(chan struct{})
		go func() {
			defer close(metricsDone)
			if err := metrics.Serve(metricsCtx, cfg.Metrics.Listen, registry, logger); err != nil {
				logger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
		shutdownMgr.StopMetrics = func(ctx context.Context) error {
			stopMetrics()
			select {
			case <-metricsDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.SetOutput(io.Discard)

	model := tui.NewModel(cfg,
		tui.WithMonitor(ctrl),
		tui.WithSessions(sessions),
		tui.WithSettingsStore(prefs),
		tui.WithActivity(activity),
		tui.WithOnShutdown(func() { logger.Info("quit requested") }),
	)

	p = tea.NewProgram(model,
		tea.WithAltScreen(),
	)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("signal received", zap.String("signal", sig.String()))
			p.Quit()
		case <-ctx.Done():
			return
		}
	}()

	_, runErr := p.Run()

	// Shutdown runs after the program has exited so that a cycle blocked
	// in p.Send cannot hold up Stop.
	if err := shutdownMgr.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "hcpss-monitor: %v\n", runErr)
		os.Exit(1)
	}
}

// runExport writes the restored user's collection to dir and returns the
// process exit code.
func runExport(dir string, sess session.Session, ok bool, repo *alerts.Repository, store state.Store) int {
	defer func() { _ = store.Close() }()

	if !ok {
		fmt.Fprintln(os.Stderr, "hcpss-monitor: no signed-in user; start the monitor and sign in first")
		return 1
	}

	list := repo.Load(sess.UserID())
	path, err := alerts.WriteExportFile(dir, list, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "hcpss-monitor: export failed: %v\n", err)
		return 1
	}
	fmt.Printf("Exported %d alerts to %s\n", len(list), path)
	return 0
}
