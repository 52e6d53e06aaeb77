package audit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/oom"
	"github.com/swipswaps/kde-memory-guardian-sub002/remediation"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

var testStream = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleRecord(id string) CycleRecord {
	return CycleRecord{
		ID:        id,
		Instance:  "test-host",
		Timestamp: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
		Snapshot: metrics.Snapshot{
			MemoryUsedPercent: 85,
			SwapUsedPercent:   12,
			PressureSomeAvg10: 22.5,
			PressureSupported: true,
		},
		OomActivity: oom.Activity{TotalEvents: 2},
		Severity:    severity.High,
		Outcomes: []remediation.Outcome{
			{PluginName: "kernel-cache-drop", Attempted: true, Succeeded: true, Detail: "dropped kernel caches (mode 3)"},
			{PluginName: "process-renice", Attempted: true, Detail: "timeout"},
		},
		CycleDurationMs: 41,
	}
}

func TestRecordThenReadLast(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cycles.jsonl")

	logger, err := NewLogger(path, testStream)
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Record(context.Background(), sampleRecord("cycle-1")))
	require.NoError(t, logger.Record(context.Background(), sampleRecord("cycle-2")))

	rec, err := ReadLast(path)
	require.NoError(t, err)

	expected := sampleRecord("cycle-2")
	assert.Equal(t, expected.ID, rec.ID)
	assert.Equal(t, expected.Instance, rec.Instance)
	assert.Equal(t, expected.Snapshot, rec.Snapshot)
	assert.Equal(t, expected.OomActivity, rec.OomActivity)
	assert.Equal(t, expected.Severity, rec.Severity)
	assert.Equal(t, expected.Outcomes, rec.Outcomes)
	assert.Equal(t, expected.CycleDurationMs, rec.CycleDurationMs)
}

func TestRecordWritesOneLinePerCycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cycles.jsonl")

	logger, err := NewLogger(path, testStream)
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, logger.Record(context.Background(), sampleRecord("cycle")))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"))
	}
}

func TestRecordSurvivesRotation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cycles.jsonl")

	logger, err := NewLogger(path, testStream)
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Record(context.Background(), sampleRecord("before")))

	// Simulate logrotate moving the sink aside.
	require.NoError(t, os.Rename(path, path+".1"))

	require.NoError(t, logger.Record(context.Background(), sampleRecord("after")))

	rec, err := ReadLast(path)
	require.NoError(t, err)
	assert.Equal(t, "after", rec.ID)
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "audit", "cycles.jsonl")

	logger, err := NewLogger(path, testStream)
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Record(context.Background(), sampleRecord("cycle-1")))
	assert.FileExists(t, path)
}

func TestReadLastEmptySink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cycles.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadLast(path)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestReadLastMissingSink(t *testing.T) {
	t.Parallel()

	_, err := ReadLast(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestReadLastSkipsTrailingBlankLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cycles.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"only"}`+"\n\n\n"), 0o644))

	rec, err := ReadLast(path)
	require.NoError(t, err)
	assert.Equal(t, "only", rec.ID)
}
