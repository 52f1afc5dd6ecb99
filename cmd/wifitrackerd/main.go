// wifitrackerd runs the client-side Wi-Fi tracking engine as a standalone
// daemon, against a simulated Platform, exposing its notifications only
// through logs and its per-kind entry counts and engine counters
// through Prometheus metrics. Useful for exercising the engine end to
// end; a real deployment embeds internal/wifitrack directly in a host
// process with its own Platform implementation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/wifitracker/internal/config"
	trackmetrics "github.com/dantte-lp/wifitracker/internal/metrics"
	appversion "github.com/dantte-lp/wifitracker/internal/version"
	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

// shutdownTimeout is the maximum time to wait for the metrics server to
// drain active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	dumpConfig := flag.Bool("dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	if *dumpConfig {
		return printConfig(cfg)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("wifitrackerd starting",
		slog.String("version", appversion.Version),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := trackmetrics.NewCollector(reg)

	platform := wifitrack.NewDemoPlatform(logger)

	connected, disconnected, singleSaved := cfg.Track.Durations()
	trackerCfg := wifitrack.Config{
		MaxScanAgeMS:                 cfg.Track.MaxScanAgeMS,
		ScanIntervalMS:               cfg.Track.ScanIntervalMS,
		ConnectedSchedule:            connected,
		DisconnectedSchedule:         disconnected,
		SingleSavedConnectedSchedule: singleSaved,
		ScanRetryMax:                 cfg.Track.ScanRetryMax,
		DisconnectWatchdogMS:         cfg.Track.DisconnectWatchdogMS,
		AutoJoinEnabledExternal:      cfg.Track.AutoJoinEnabledExternal,
		RateLimitMaxConnections:      cfg.Track.RateLimitMaxConnections,
		RateLimitInterval:            time.Duration(cfg.Track.RateLimitIntervalSec) * time.Second,
	}

	tracker, err := wifitrack.New(trackerCfg, platform, wifitrack.SystemClock{}, logger, wifitrack.WithMetrics(collector))
	if err != nil {
		logger.Error("failed to construct tracker", slog.String("error", err.Error()))
		return 1
	}

	if err := runDaemon(cfg, tracker, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("wifitrackerd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("wifitrackerd stopped")
	return 0
}

// runDaemon sets up and runs the tracker engine, metrics server, and
// notification log sink using an errgroup with signal-aware context for
// graceful shutdown.
func runDaemon(
	cfg *config.Config,
	tracker *wifitrack.Tracker,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	if err := tracker.Start(gCtx); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}

	g.Go(func() error {
		lc := net.ListenConfig{}
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &lc, metricsSrv, cfg.Metrics.Addr)
	})

	g.Go(func() error {
		logNotifications(gCtx, tracker, logger)
		return nil
	})

	g.Go(func() error {
		return runWatchdog(gCtx, logger)
	})

	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		handleSIGHUP(gCtx, sigHUP, configPath, logLevel, logger)
		return nil
	})

	notifyReady(logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, tracker, logger, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run daemon: %w", err)
	}
	return nil
}

// logNotifications drains the tracker's dispatcher and logs each
// notification, standing in for a real UI consumer.
func logNotifications(ctx context.Context, tracker *wifitrack.Tracker, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-tracker.Dispatcher().Listen():
			if !ok {
				return
			}
			logger.Debug("notification",
				slog.Int("kind", int(n.Kind)),
				slog.Int("wifi_state", int(n.WifiState)),
				slog.Int("num_saved", n.NumSaved),
				slog.Int("num_saved_subscriptions", n.NumSavedSubscriptions),
			)
		}
	}
}

// -------------------------------------------------------------------------
// Systemd Integration — sd_notify + watchdog
// -------------------------------------------------------------------------

func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd at
// WatchdogSec/2, the interval systemd's own documentation recommends.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog", slog.String("error", err.Error()))
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive", slog.String("error", wdErr.Error()))
			}
		}
	}
}

// -------------------------------------------------------------------------
// SIGHUP Reload — log level only
// -------------------------------------------------------------------------

// handleSIGHUP reloads the dynamic log level on SIGHUP. Tracker
// configuration (schedules, rate limits) is fixed at construction and is
// not hot-reloadable, unlike the teacher's declarative BFD session set.
func handleSIGHUP(
	ctx context.Context,
	sigHUP <-chan os.Signal,
	configPath string,
	logLevel *slog.LevelVar,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigHUP:
			logger.Info("received SIGHUP, reloading log level")
			newCfg, err := loadConfig(configPath)
			if err != nil {
				logger.Error("failed to reload configuration, keeping current settings",
					slog.String("error", err.Error()),
				)
				continue
			}
			oldLevel := logLevel.Level()
			newLevel := config.ParseLogLevel(newCfg.Log.Level)
			logLevel.Set(newLevel)
			logger.Info("configuration reloaded",
				slog.String("old_log_level", oldLevel.String()),
				slog.String("new_log_level", newLevel.String()),
			)
		}
	}
}

// -------------------------------------------------------------------------
// Graceful Shutdown
// -------------------------------------------------------------------------

func gracefulShutdown(ctx context.Context, tracker *wifitrack.Tracker, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	tracker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

// -------------------------------------------------------------------------
// Server + Config Setup
// -------------------------------------------------------------------------

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

// printConfig prints the effective configuration as JSON for operators
// to inspect before starting the daemon for real.
func printConfig(cfg *config.Config) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode config: %v\n", err)
		return 1
	}
	return 0
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
