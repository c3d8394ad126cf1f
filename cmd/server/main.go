package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/agencyboard-api/internal/config"
	"github.com/yukikurage/agencyboard-api/internal/logging"
	"go.uber.org/zap"
)

// env is the configuration and logger shared by every subcommand
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		e          env
	)

	root := &cobra.Command{
		Use:           "agencyboard",
		Short:         "Agencyboard project and task management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(configFile)
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			e.cfg = config.Load(v)

			e.log, err = logging.New(e.cfg.GinMode, e.cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json, toml or env)")

	root.AddCommand(serveCmd(&e))
	root.AddCommand(migrateCmd(&e))
	root.AddCommand(widgetCmd(&e))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
