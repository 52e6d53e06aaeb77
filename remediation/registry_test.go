package remediation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

type stubPlugin struct {
	name   string
	levels []severity.Level
}

func (p stubPlugin) Name() string { return p.name }

func (p stubPlugin) AppliesTo() []severity.Level { return p.levels }
func (p stubPlugin) Invoke(context.Context, severity.Level, metrics.Snapshot) (string, error) {
	return "ok", nil
}

func TestRegistryPluginsFor(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	require.NoError(t, registry.Register(stubPlugin{
		name:   "cache",
		levels: []severity.Level{severity.Moderate, severity.High, severity.Critical},
	}))
	require.NoError(t, registry.Register(stubPlugin{
		name:   "renice",
		levels: []severity.Level{severity.High, severity.Critical},
	}))
	require.NoError(t, registry.Register(stubPlugin{
		name:   "kill",
		levels: []severity.Level{severity.Critical},
	}))

	names := func(plugins []Plugin) []string {
		out := make([]string, 0, len(plugins))
		for _, p := range plugins {
			out = append(out, p.Name())
		}

		return out
	}

	assert.Empty(t, registry.PluginsFor(severity.Normal))
	assert.Equal(t, []string{"cache"}, names(registry.PluginsFor(severity.Moderate)))
	assert.Equal(t, []string{"cache", "renice"}, names(registry.PluginsFor(severity.High)))
	assert.Equal(t, []string{"cache", "renice", "kill"}, names(registry.PluginsFor(severity.Critical)))
	assert.Equal(t, 3, registry.Len())
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	require.NoError(t, registry.Register(stubPlugin{name: "cache"}))

	err := registry.Register(stubPlugin{name: "cache"})
	assert.Error(t, err)
	assert.Equal(t, 1, registry.Len())
}
