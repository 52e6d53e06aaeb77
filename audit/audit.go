package audit

import (
	"time"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/oom"
	"github.com/swipswaps/kde-memory-guardian-sub002/remediation"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// CycleRecord is the audit unit for one full control-loop pass. It is
// written once at the end of the cycle and immutable thereafter.
type CycleRecord struct {
	ID              string                `json:"id"`
	Instance        string                `json:"instance"`
	Timestamp       time.Time             `json:"timestamp"`
	Snapshot        metrics.Snapshot      `json:"snapshot"`
	OomActivity     oom.Activity          `json:"oom_activity"`
	Severity        severity.Level        `json:"severity"`
	Outcomes        []remediation.Outcome `json:"outcomes"`
	CycleDurationMs int64                 `json:"cycle_duration_ms"`
}
