// Package cmd implements the crondeck CLI using cobra.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crondeck/internal/config"
	"github.com/crystaldolphin/crondeck/internal/container"
	"github.com/crystaldolphin/crondeck/internal/cron"
)

const version = "0.1.0"
const logo = "⏰"

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "crondeck",
	Short:         logo + " crondeck, a console for scheduled agent jobs",
	Long:          logo + " crondeck lists, edits and triggers the scheduled jobs of an agent runtime",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		} else {
			slog.SetLogLoggerLevel(slog.LevelWarn)
		}
	},
}

// Execute runs the root command and exits on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !shown(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $CRONDECK_CONFIG or ~/.crondeck/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cronCmd)
}

// shown reports whether err was already presented to the user as a notification.
func shown(err error) bool {
	var (
		verr *cron.ValidationError
		rerr *cron.RejectedError
		terr *cron.TransportError
	)
	return errors.As(err, &verr) || errors.As(err, &rerr) || errors.As(err, &terr) ||
		errors.Is(err, cron.ErrJobNotFound)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newContainer wires the services on the command's streams.
func newContainer(cmd *cobra.Command) (*container.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return container.NewWithIO(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
