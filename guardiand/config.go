package guardiand

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	guardian "github.com/swipswaps/kde-memory-guardian-sub002"
	"github.com/spf13/cobra"
)

const configFilePermission = 0o644

// NewConfigCmd manages the TOML configuration file.
func NewConfigCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "config [init]",
		Short: "Configuration management",
		Long:  `Generate and inspect guardian configuration.`,
	}

	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Generate config file",
		Long:  `Interactively generate a configuration file at the given path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return nil
			}

			cfg := guardian.DefaultConfig()
			interval := cfg.Interval.String()
			criticalMemory := strconv.Itoa(cfg.Thresholds.CriticalMemoryPercent)
			services := strings.Join(cfg.Plugins.Services, ",")
			enableKill := true

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Sampling interval").
						Description("How often to run a cycle, e.g. 30s or 1m.").
						Value(&interval).
						Validate(func(s string) error {
							_, err := time.ParseDuration(s)

							return err
						}),
					huh.NewInput().
						Title("Critical memory threshold (percent)").
						Value(&criticalMemory).
						Validate(func(s string) error {
							v, err := strconv.Atoi(s)
							if err != nil || v < 0 || v > 100 {
								return errors.New("enter a whole number between 0 and 100")
							}

							return nil
						}),
					huh.NewInput().
						Title("Audit log path").
						Value(&cfg.AuditPath),
					huh.NewInput().
						Title("Lock file path").
						Value(&cfg.LockPath),
					huh.NewInput().
						Title("Services to restart under high pressure").
						Description("Comma-separated systemd user units.").
						Value(&services),
					huh.NewConfirm().
						Title("Enable emergency process kill at critical severity?").
						Value(&enableKill),
				),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("config wizard aborted: %w", err)
			}

			cfg.Interval, _ = time.ParseDuration(interval)
			cfg.Thresholds.CriticalMemoryPercent, _ = strconv.Atoi(criticalMemory)
			cfg.Plugins.Services = splitCSV(services)
			if !enableKill {
				enabled := make([]string, 0, len(cfg.Plugins.Enabled))
				for _, name := range cfg.Plugins.Enabled {
					if name != "emergency-kill" {
						enabled = append(enabled, name)
					}
				}
				cfg.Plugins.Enabled = enabled
			}

			data, err := cfg.EncodeTOML()
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			if err := os.WriteFile(args[0], data, configFilePermission); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			logSuccessCmd(*cmd, fmt.Sprintf("Wrote configuration to %s", args[0]))

			return nil
		},
	}
	cmd.AddCommand(initCmd)

	return &cmd
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
