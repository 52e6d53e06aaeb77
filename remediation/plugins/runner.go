package plugins

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Runner executes a host command. Plugins perform all side effects through
// it so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, output)
	}

	return output, nil
}

type processInfo struct {
	pid      int32
	name     string
	rssBytes uint64
}

type processLister func(ctx context.Context) ([]processInfo, error)

// listProcesses enumerates running processes with their resident set sizes.
// Processes that disappear mid-scan are skipped rather than failing the scan.
func listProcesses(ctx context.Context) ([]processInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	self := int32(os.Getpid())
	infos := make([]processInfo, 0, len(procs))
	for _, p := range procs {
		if p.Pid == self {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}

		info := processInfo{pid: p.Pid, name: name}
		if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
			info.rssBytes = memInfo.RSS
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(strings.ToLower(name), strings.ToLower(pattern)) {
			return true
		}
	}

	return false
}
