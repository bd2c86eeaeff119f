package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/battery-guardian/internal/config"
	"github.com/ogulcanaydogan/battery-guardian/internal/server"
	"github.com/ogulcanaydogan/battery-guardian/pkg/guardian"
	"github.com/ogulcanaydogan/battery-guardian/pkg/notify"
	"github.com/ogulcanaydogan/battery-guardian/pkg/sensor"
	"github.com/ogulcanaydogan/battery-guardian/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultDocument is the engine configuration used when --config-path is not given.
const DefaultDocument = "default_configuration.yml"

var (
	settingsFile string
	configPath   string
)

var rootCmd = &cobra.Command{
	Use:   "battery-guardian",
	Short: "Battery Guardian - keeps a battery between two charge levels",
	Long: `Battery Guardian periodically reads the battery level and asks a remote
controller (for example a smart plug) to enable or disable charging once the
level crosses the configured limits. It runs until interrupted.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runEngine,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "runtime settings file (default: ~/.battery-guardian/settings.yaml)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config-path", "c", DefaultDocument, "engine configuration, relative to the configurations directory")
}

// loadConfig loads the runtime settings.
func loadConfig() (*config.Config, error) {
	return config.Load(settingsFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// loadSettings loads the engine document selected by --config-path.
func loadSettings(cfg *config.Config, logger *slog.Logger) (*guardian.Settings, string, error) {
	path := cfg.ResolveDocument(configPath)
	settings, err := guardian.Load(path, logger)
	if err != nil {
		return nil, path, err
	}
	return settings, path, nil
}

// initStorage opens the history database, or returns nil when it is disabled.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	return storage.NewSQLite(cfg.Storage.Path)
}

// initEngine wires an engine to the system battery and the HTTP notifier.
func initEngine(cfg *config.Config, settings *guardian.Settings, store storage.Storage, logger *slog.Logger) *guardian.Engine {
	opts := []guardian.Option{guardian.WithLogger(logger)}
	if store != nil {
		opts = append(opts, guardian.WithRecorder(store))
	}
	return guardian.New(
		settings,
		sensor.NewSysfs(cfg.Sensor.SysfsPath, cfg.Sensor.Battery),
		notify.NewHTTPNotifier(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, logger),
		opts...,
	)
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	settings, path, err := loadSettings(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded", "path", path)

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	engine := initEngine(cfg, settings, store, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := engine.Start(gctx, true)
		engine.Stop()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.Server.Enabled {
		api := server.NewServer(engine, store, logger)
		g.Go(func() error {
			return api.ListenAndServe(gctx, cfg.Server.Listen)
		})
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}
