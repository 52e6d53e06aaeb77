package oom

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	defaultLogPath = "/var/log/kern.log"

	// Only the tail of the log is scanned so a long-lived host with a
	// large kernel log cannot stall the cycle.
	defaultWindowBytes = 256 * 1024
)

var markers = []string{
	"Out of memory:",
	"oom-kill:",
	"invoked oom-killer",
}

type logProbe struct {
	path   string
	window int64
	now    func() time.Time
	logger *slog.Logger
}

// NewLogProbe returns a Probe that scans the tail of a kernel log file for
// OOM-killer markers. path may be empty for the default source. The probe
// fails soft: an unreadable log yields an empty Activity.
func NewLogProbe(path string, logger *slog.Logger) Probe {
	if path == "" {
		path = defaultLogPath
	}

	return &logProbe{
		path:   path,
		window: defaultWindowBytes,
		now:    time.Now,
		logger: logger,
	}
}

func (p *logProbe) Probe(ctx context.Context) Activity {
	file, err := os.Open(p.path)
	if err != nil {
		p.logger.Debug("kernel log unavailable, skipping OOM probe",
			slog.String("path", p.path), slog.Any("error", err))

		return Activity{}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Activity{}
	}
	if info.Size() > p.window {
		if _, err := file.Seek(-p.window, io.SeekEnd); err != nil {
			return Activity{}
		}
	}

	return p.scan(ctx, file)
}

func (p *logProbe) scan(ctx context.Context, r io.Reader) Activity {
	var activity Activity

	// Matches both the classic syslog stamp ("Aug 31 ...") and the
	// RFC3339 stamp newer rsyslog configurations emit.
	today := []string{
		p.now().Format("Jan _2"),
		p.now().Format("2006-01-02"),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return activity
		}

		line := scanner.Text()
		if !containsMarker(line) {
			continue
		}

		activity.TotalEvents++
		for _, prefix := range today {
			if strings.HasPrefix(line, prefix) {
				activity.OccurredToday = true

				break
			}
		}
	}

	return activity
}

func containsMarker(line string) bool {
	for _, marker := range markers {
		if strings.Contains(line, marker) {
			return true
		}
	}

	return false
}
