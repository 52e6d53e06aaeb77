package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoRecords is returned when the audit sink holds no cycle records yet.
var ErrNoRecords = errors.New("no cycle records recorded yet")

// Logger writes one JSON line per cycle to a persistent append-only sink and
// mirrors a summary to the operator-facing slog stream. Every Record call
// flushes durably before returning; there is no buffering that could lose a
// record on crash.
type Logger struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	stream *slog.Logger
}

func NewLogger(path string, stream *slog.Logger) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := openSink(path)
	if err != nil {
		return nil, err
	}

	return &Logger{
		path:   path,
		file:   file,
		stream: stream,
	}, nil
}

func openSink(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit sink: %w", err)
	}

	return file, nil
}

// Record serializes the cycle record to the sink and syncs it to disk. The
// live stream always sees the record, even when the persistent write fails.
func (l *Logger) Record(ctx context.Context, rec CycleRecord) error {
	l.mirror(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// The sink may have been rotated or removed underneath us; reopen
	// rather than appending to an unlinked inode forever.
	if _, err := os.Stat(l.path); err != nil {
		file, oerr := openSink(l.path)
		if oerr != nil {
			return oerr
		}
		l.file.Close()
		l.file = file
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append cycle record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit sink: %w", err)
	}

	return nil
}

func (l *Logger) mirror(rec CycleRecord) {
	l.stream.Info("cycle completed",
		slog.String("cycle_id", rec.ID),
		slog.String("severity", rec.Severity.String()),
		slog.Int("memory_used_percent", rec.Snapshot.MemoryUsedPercent),
		slog.Int("swap_used_percent", rec.Snapshot.SwapUsedPercent),
		slog.Float64("pressure_some_avg10", rec.Snapshot.PressureSomeAvg10),
		slog.Bool("oom_today", rec.OomActivity.OccurredToday),
		slog.Int("actions", len(rec.Outcomes)),
		slog.Int64("cycle_duration_ms", rec.CycleDurationMs),
	)
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// ReadLast returns the most recent cycle record from the audit sink.
func ReadLast(path string) (CycleRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CycleRecord{}, ErrNoRecords
		}

		return CycleRecord{}, fmt.Errorf("failed to open audit sink: %w", err)
	}
	defer file.Close()

	var last []byte
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if line := scanner.Bytes(); len(line) > 0 {
			last = append(last[:0], line...)
		}
	}
	if err := scanner.Err(); err != nil {
		return CycleRecord{}, fmt.Errorf("failed to scan audit sink: %w", err)
	}
	if len(last) == 0 {
		return CycleRecord{}, ErrNoRecords
	}

	var rec CycleRecord
	if err := json.Unmarshal(last, &rec); err != nil {
		return CycleRecord{}, fmt.Errorf("failed to parse last cycle record: %w", err)
	}

	return rec, nil
}
