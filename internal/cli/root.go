// Package cli implements storyctl, the operator command line for the story
// backend.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"silkmaker-backend/internal/config"
	"silkmaker-backend/internal/di"
	"silkmaker-backend/internal/infrastructure/logging"
	"silkmaker-backend/internal/service/story"
)

type rootOptions struct {
	configFile string
	driver     string
	dsn        string
	verbose    bool
}

// Execute runs storyctl and exits non-zero on failure.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd(version).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "storyctl",
		Short:         "Manage SilkMaker story projects",
		Version:       version,
		SilenceUsage:  true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file (defaults to $"+config.FileEnvVar+")")
	flags.StringVar(&opts.driver, "driver", "", "storage driver override: memory, sqlite or postgres")
	flags.StringVar(&opts.dsn, "dsn", "", "storage DSN override")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newProjectsCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.Loader{FilePath: o.configFile}.Load()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	// the command line never talks to an event bus
	cfg.Events.Publisher = config.PublisherNone
	return cfg, cfg.Validate()
}

func (o *rootOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	level := zap.WarnLevel
	if o.verbose {
		level = zap.DebugLevel
	}
	return logging.New(zap.NewAtomicLevelAt(level), cfg.IsDevelopment(), "storyctl")
}

// withService runs fn against a fully wired story service.
func (o *rootOptions) withService(ctx context.Context, fn func(story.Service) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := o.logger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, cleanup, err := di.InitializeStoryService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(svc)
}
