package plugins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

type fakeRunner struct {
	commands []string
	fail     map[string]error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.commands = append(r.commands, cmd)
	for prefix, err := range r.fail {
		if strings.HasPrefix(cmd, prefix) {
			return "", err
		}
	}

	return "", nil
}

func staticLister(procs ...processInfo) processLister {
	return func(context.Context) ([]processInfo, error) {
		return procs, nil
	}
}

func TestCacheDropModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    severity.Level
		expected string
	}{
		{level: severity.Moderate, expected: "sysctl -w vm.drop_caches=1"},
		{level: severity.High, expected: "sysctl -w vm.drop_caches=3"},
		{level: severity.Critical, expected: "sysctl -w vm.drop_caches=3"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.level.String(), func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{}
			detail, err := NewCacheDrop(runner).Invoke(context.Background(), tt.level, metrics.Snapshot{})
			require.NoError(t, err)
			assert.Contains(t, detail, "dropped kernel caches")
			assert.Equal(t, []string{"sync", tt.expected}, runner.commands)
		})
	}
}

func TestCacheDropSyncFailureAborts(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fail: map[string]error{"sync": errors.New("disk unhappy")}}
	_, err := NewCacheDrop(runner).Invoke(context.Background(), severity.High, metrics.Snapshot{})

	require.Error(t, err)
	assert.Equal(t, []string{"sync"}, runner.commands)
}

func TestReniceMatchesPatterns(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	plugin := NewRenice(runner, []string{"chrome", "firefox"})
	plugin.list = staticLister(
		processInfo{pid: 100, name: "chrome", rssBytes: 1 << 30},
		processInfo{pid: 101, name: "Google Chrome Helper", rssBytes: 1 << 28},
		processInfo{pid: 200, name: "kwin_wayland", rssBytes: 1 << 27},
		processInfo{pid: 300, name: "firefox-bin", rssBytes: 1 << 29},
	)

	detail, err := plugin.Invoke(context.Background(), severity.High, metrics.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "re-niced 3 processes to 15", detail)
	assert.Equal(t, []string{
		"renice -n 15 -p 100",
		"renice -n 15 -p 101",
		"renice -n 15 -p 300",
	}, runner.commands)
}

func TestReniceNoMatches(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	plugin := NewRenice(runner, []string{"chrome"})
	plugin.list = staticLister(processInfo{pid: 1, name: "systemd"})

	detail, err := plugin.Invoke(context.Background(), severity.High, metrics.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "no matching processes", detail)
	assert.Empty(t, runner.commands)
}

func TestServiceRestart(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	plugin := NewServiceRestart(runner, []string{"plasma-plasmashell.service", "plasma-krunner.service"})

	detail, err := plugin.Invoke(context.Background(), severity.High, metrics.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "restarted 2/2 services", detail)
	assert.Equal(t, []string{
		"systemctl --user restart plasma-plasmashell.service",
		"systemctl --user restart plasma-krunner.service",
	}, runner.commands)
}

func TestServiceRestartContinuesPastFailures(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fail: map[string]error{
		"systemctl --user restart broken.service": errors.New("unit not found"),
	}}
	plugin := NewServiceRestart(runner, []string{"broken.service", "ok.service"})

	_, err := plugin.Invoke(context.Background(), severity.High, metrics.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restarted 1/2 services")
	assert.Len(t, runner.commands, 2)
}

func TestServiceRestartNoUnits(t *testing.T) {
	t.Parallel()

	detail, err := NewServiceRestart(&fakeRunner{}, nil).Invoke(context.Background(), severity.High, metrics.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "no services configured", detail)
}

func TestEmergencyKillPicksLargestUnprotected(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	plugin := NewEmergencyKill(runner, []string{"plasmashell", "kwin"})
	plugin.list = staticLister(
		processInfo{pid: 10, name: "plasmashell", rssBytes: 8 << 30},
		processInfo{pid: 20, name: "chrome", rssBytes: 4 << 30},
		processInfo{pid: 30, name: "java", rssBytes: 6 << 30},
	)

	detail, err := plugin.Invoke(context.Background(), severity.Critical, metrics.Snapshot{})
	require.NoError(t, err)
	assert.Contains(t, detail, "java")
	assert.Equal(t, []string{"kill -TERM 30"}, runner.commands)
}

func TestEmergencyKillNoEligibleProcess(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	plugin := NewEmergencyKill(runner, []string{"systemd"})
	plugin.list = staticLister(processInfo{pid: 1, name: "systemd", rssBytes: 1 << 30})

	detail, err := plugin.Invoke(context.Background(), severity.Critical, metrics.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "no eligible process", detail)
	assert.Empty(t, runner.commands)
}

func TestEmergencyKillListFailure(t *testing.T) {
	t.Parallel()

	plugin := NewEmergencyKill(&fakeRunner{}, nil)
	plugin.list = func(context.Context) ([]processInfo, error) {
		return nil, fmt.Errorf("proc unavailable")
	}

	_, err := plugin.Invoke(context.Background(), severity.Critical, metrics.Snapshot{})
	assert.Error(t, err)
}

func TestMatchesAny(t *testing.T) {
	t.Parallel()

	assert.True(t, matchesAny("Google Chrome Helper", []string{"chrome"}))
	assert.True(t, matchesAny("firefox-bin", []string{"FIREFOX"}))
	assert.False(t, matchesAny("kwin_wayland", []string{"chrome", "firefox"}))
	assert.False(t, matchesAny("anything", []string{""}))
	assert.False(t, matchesAny("anything", nil))
}
