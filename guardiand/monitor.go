package guardiand

import (
	"context"

	guardian "github.com/swipswaps/kde-memory-guardian-sub002"
	"github.com/spf13/cobra"
)

// ConfigPath is the optional TOML configuration file, set by the root
// command's --config flag. Empty means defaults plus environment.
var ConfigPath string

var monitorCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start monitor",
		Long:  `Start the memory pressure monitor loop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := guardian.LoadConfig(ConfigPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			return StartMonitor(ctx, cancel, cfg)
		},
	},
}

func NewMonitorCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "monitor [start]",
		Short: "Monitor management",
		Long:  `Run the periodic memory pressure control loop.`,
	}

	for i := range monitorCmd {
		cmd.AddCommand(&monitorCmd[i])
	}

	return &cmd
}
