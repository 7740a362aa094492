package main

import (
	"github.com/spf13/cobra"

	"fiber_router/pkg/config"
	"fiber_router/pkg/logging"
)

// app carries the configuration shared by subcommands.
type app struct {
	envFile   string
	logLevel  string
	logFormat string

	cfg config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fiberroute",
		Short:         "Fibre route engine over terrestrial and submarine cable networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Optional .env file loaded before reading FIBER_* variables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (overrides LOG_FORMAT)")

	root.AddCommand(newServeCmd(a), newRouteCmd(a))
	return root
}

// load builds the config, applies flag overrides, and creates the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
