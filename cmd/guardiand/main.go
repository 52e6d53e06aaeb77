package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	guardian "github.com/swipswaps/kde-memory-guardian-sub002"
	"github.com/swipswaps/kde-memory-guardian-sub002/guardiand"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
	"github.com/spf13/cobra"
)

const (
	exitSkipped = 1
	exitConfig  = 2
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "guardiand",
		Short:         "Memory Guardian Daemon",
		Long:          `Memory Guardian Daemon watches host memory pressure and applies staged remediation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(
		&guardiand.ConfigPath,
		"config", "c", "",
		"Path to the TOML configuration file",
	)

	rootCmd.AddCommand(guardiand.NewMonitorCmd())
	rootCmd.AddCommand(guardiand.NewRunOnceCmd())
	rootCmd.AddCommand(guardiand.NewStatusCmd())
	rootCmd.AddCommand(guardiand.NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("error: %s\n", err.Error())
		switch {
		case errors.Is(err, monitor.ErrCycleSkipped):
			os.Exit(exitSkipped)
		case errors.Is(err, guardian.ErrInvalidConfig):
			os.Exit(exitConfig)
		default:
			os.Exit(1)
		}
	}
}
