package oom

import "context"

// Activity summarizes recent kernel OOM-killer activity. It is advisory
// input to severity classification, never a hard dependency.
type Activity struct {
	TotalEvents   int  `json:"total_events"`
	OccurredToday bool `json:"occurred_today"`
}

// Probe detects whether the kernel OOM killer has recently fired.
type Probe interface {
	Probe(ctx context.Context) Activity
}
