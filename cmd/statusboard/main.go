package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/statusboard/internal/config"
	"github.com/hazz-dev/statusboard/internal/dashboard"
	"github.com/hazz-dev/statusboard/internal/metrics"
	"github.com/hazz-dev/statusboard/internal/monitor"
	"github.com/hazz-dev/statusboard/internal/notify"
	"github.com/hazz-dev/statusboard/internal/probe"
	"github.com/hazz-dev/statusboard/internal/server"
	"github.com/hazz-dev/statusboard/internal/storage"
	"github.com/hazz-dev/statusboard/internal/version"
)

var (
	cfgFile string
	envFile string
	logJSON bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "statusboard",
		Short:        "Service status page and incident tracker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if logJSON {
				slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
			}
			return config.LoadDotenv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yml", "config file path")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with SMTP and alert settings")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "statusboard %s\n", version.String())
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the prober, API and status page",
		RunE:  runServe,
	}
}

// newNotifier builds the alert notifier. Without ALERT_EMAIL it is disabled
// and every operation is a no-op.
func newNotifier(alerts config.AlertsConfig, m *metrics.Metrics, logger *slog.Logger) *notify.Notifier {
	var sender notify.Sender
	if alerts.Enabled() {
		sender = notify.NewSMTPSender(alerts.SMTP)
	}
	return notify.New(alerts.Email, sender, m, logger)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	// 1. Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("config loaded", "targets", len(cfg.Targets), "interval", cfg.Interval, "alerts", cfg.Alerts.Enabled())

	// 2. Open SQLite
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// 3. Metrics, notifier and prober
	m := metrics.New(nil)
	notifier := newNotifier(cfg.Alerts, m, logger)
	prober := probe.New(notifier, logger)

	// 4. Aggregator and scheduler
	agg := monitor.NewAggregator(cfg.Targets, prober, m)
	sched := monitor.NewScheduler(agg, cfg.Interval, db, logger)
	sched.SetOnPass(func(results []probe.CheckResult) {
		up := 0
		for _, r := range results {
			if r.Operational() {
				up++
			}
		}
		logger.Info("pass complete", "operational", up, "targets", len(results))
	})

	// 5. API server and status page on a single mux
	apiServer := server.New(db, sched, agg.Targets(), m, logger)
	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer.Router())
	mux.Handle("/metrics", apiServer.Router())
	mux.Handle("/", dashboard.Handler(sched, db, logger))

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Signal context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go drainAlertErrors(ctx, notifier, logger)

	// 7. Start scheduler
	sched.Start(ctx)
	logger.Info("scheduler started", "targets", len(cfg.Targets))

	// 8. Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 9. Wait for signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		stop()
		sched.Wait()
		notifier.Wait()
		return fmt.Errorf("HTTP server: %w", err)
	}

	// 10. Graceful shutdown
	sched.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}
	notifier.Wait()

	logger.Info("shutdown complete")
	return nil
}

// drainAlertErrors consumes asynchronous delivery failures until ctx is done.
func drainAlertErrors(ctx context.Context, n *notify.Notifier, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-n.Errors():
			var de *notify.DeliveryError
			if errors.As(err, &de) {
				logger.Warn("alert undelivered", "service", de.Service, "error", de.Err)
				continue
			}
			logger.Warn("alert undelivered", "error", err)
		}
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a one-off check of all configured targets",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return executeCheck(cmd, cfg)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest stored result of every configured target",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return executeStatus(cmd, db, cfg.Targets)
}
