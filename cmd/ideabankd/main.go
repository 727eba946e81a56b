// Ideabankd ingests free-text notes, classifies them against a local
// language model, and maintains a two-level idea tree plus reminders.
//
// Usage:
//
//	# Start the daemon with defaults
//	ideabankd serve
//
//	# Point at a config file
//	ideabankd serve --config /etc/ideabank/config.yaml
//
//	# Configure via environment
//	IDEABANK_SERVER_PORT=9090 IDEABANK_ORACLE_MODEL=mistral ideabankd serve
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rubenlestaa/ideabank/internal/config"
	"github.com/rubenlestaa/ideabank/internal/engine"
	"github.com/rubenlestaa/ideabank/internal/httpapi"
	"github.com/rubenlestaa/ideabank/internal/logging"
	"github.com/rubenlestaa/ideabank/internal/oracle"
	"github.com/rubenlestaa/ideabank/internal/remind"
	"github.com/rubenlestaa/ideabank/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "ideabankd",
		Short:         "Note classification and idea tree daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and reminder scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("ideabankd\nVersion:    %s\nCommit:     %s\nBuild Date: %s\n",
				version, gitCommit, buildDate)
		},
	}

	root.AddCommand(serve, versionCmd)
	return root
}

// runServe wires every component and blocks until a shutdown signal.
func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	st, err := store.New(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client, err := oracle.NewClient(cfg.Oracle, logger)
	if err != nil {
		return fmt.Errorf("init classifier client: %w", err)
	}

	eng, err := engine.New(client, st, logger)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	notifier, err := remind.NewLogNotifier(logger)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	scheduler, err := remind.NewScheduler(st, notifier, logger,
		remind.WithPollInterval(cfg.Reminders.PollInterval))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop() //nolint:errcheck

	server, err := httpapi.NewServer(eng, logger, &cfg.Server)
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("ideabankd started",
		zap.String("version", version),
		zap.String("db", cfg.Database.Path),
		zap.String("model", cfg.Oracle.Model))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
