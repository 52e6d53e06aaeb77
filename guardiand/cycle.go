package guardiand

import (
	"errors"
	"fmt"
	"os"

	guardian "github.com/swipswaps/kde-memory-guardian-sub002"
	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/spf13/cobra"
)

// NewRunOnceCmd executes a single observe-classify-remediate cycle and
// prints the resulting audit record.
func NewRunOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Run a single cycle",
		Long:  `Execute one observe-classify-remediate cycle and print its audit record.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := guardian.LoadConfig(ConfigPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("%w: %s", guardian.ErrInvalidConfig, err.Error())
			}

			svc, auditor, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer auditor.Close()

			rec, err := svc.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			logJSONCmd(*cmd, rec)

			return nil
		},
	}
}

// NewStatusCmd prints the most recent audit record without running a cycle.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show last cycle",
		Long:  `Print the most recent audit record from the audit log.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := guardian.LoadConfig(ConfigPath)
			if err != nil {
				return err
			}

			rec, err := audit.ReadLast(cfg.AuditPath)
			if errors.Is(err, audit.ErrNoRecords) {
				logSuccessCmd(*cmd, "No cycles recorded yet.")

				return nil
			}
			if err != nil {
				return err
			}
			logJSONCmd(*cmd, rec)

			return nil
		},
	}
}
