package guardian

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// ErrInvalidConfig marks fatal configuration errors. The control loop never
// starts with an invalid configuration; callers map this to exit code 2.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	LogLevel      string              `env:"GUARDIAN_LOG_LEVEL"`
	InstanceName  string              `env:"GUARDIAN_INSTANCE_NAME"`
	Interval      time.Duration       `env:"GUARDIAN_INTERVAL"`
	LockPath      string              `env:"GUARDIAN_LOCK_PATH"`
	AuditPath     string              `env:"GUARDIAN_AUDIT_PATH"`
	KernelLogPath string              `env:"GUARDIAN_KERNEL_LOG_PATH"`
	PressurePath  string              `env:"GUARDIAN_PRESSURE_PATH"`
	HTTPAddress   string              `env:"GUARDIAN_HTTP_ADDRESS"`
	OTELURL       string              `env:"GUARDIAN_OTEL_URL"`
	TraceRatio    float64             `env:"GUARDIAN_TRACE_RATIO"`
	Thresholds    severity.Thresholds
	Plugins       PluginsConfig
}

type PluginsConfig struct {
	Enabled        []string      `env:"GUARDIAN_PLUGINS_ENABLED"`
	Timeout        time.Duration `env:"GUARDIAN_PLUGIN_TIMEOUT"`
	Services       []string      `env:"GUARDIAN_RESTART_SERVICES"`
	RenicePatterns []string      `env:"GUARDIAN_RENICE_PATTERNS"`
	Protected      []string      `env:"GUARDIAN_PROTECTED_PATTERNS"`
}

// DefaultConfig returns the documented defaults. Plugin order matters: it is
// the registration order, escalating from cache reclamation to termination.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		Interval:   30 * time.Second,
		LockPath:   "/tmp/memory-guardian.lock",
		AuditPath:  "/var/log/memory-guardian/cycles.jsonl",
		Thresholds: severity.DefaultThresholds(),
		Plugins: PluginsConfig{
			Enabled: []string{
				"kernel-cache-drop",
				"process-renice",
				"service-restart",
				"emergency-kill",
			},
			Timeout:        10 * time.Second,
			Services:       []string{"plasma-plasmashell.service"},
			RenicePatterns: []string{"chrome", "chromium", "firefox", "electron"},
			Protected: []string{
				"systemd", "kwin", "plasmashell", "Xorg", "Xwayland",
				"sddm", "dbus", "guardiand",
			},
		},
	}
}

// fileConfig is the TOML representation. Durations are strings ("30s") so
// the config file stays human-editable.
type fileConfig struct {
	LogLevel      string              `toml:"log_level"`
	InstanceName  string              `toml:"instance_name"`
	Interval      string              `toml:"interval"`
	LockPath      string              `toml:"lock_path"`
	AuditPath     string              `toml:"audit_path"`
	KernelLogPath string              `toml:"kernel_log_path"`
	PressurePath  string              `toml:"pressure_path"`
	HTTPAddress   string              `toml:"http_address"`
	OTELURL       string              `toml:"otel_url"`
	TraceRatio    float64             `toml:"trace_ratio"`
	Thresholds    severity.Thresholds `toml:"thresholds"`
	Plugins       filePluginsConfig   `toml:"plugins"`
}

type filePluginsConfig struct {
	Enabled        []string `toml:"enabled"`
	Timeout        string   `toml:"timeout"`
	Services       []string `toml:"services"`
	RenicePatterns []string `toml:"renice_patterns"`
	Protected      []string `toml:"protected"`
}

// LoadConfig layers defaults, the optional TOML file and environment
// overrides, then validates the result. Any failure is a fatal
// configuration error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q does not exist", path)
		}

		return fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.LoadBytes(data)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	fc := fileConfig{
		LogLevel:      cfg.LogLevel,
		InstanceName:  cfg.InstanceName,
		LockPath:      cfg.LockPath,
		AuditPath:     cfg.AuditPath,
		KernelLogPath: cfg.KernelLogPath,
		PressurePath:  cfg.PressurePath,
		HTTPAddress:   cfg.HTTPAddress,
		OTELURL:       cfg.OTELURL,
		TraceRatio:    cfg.TraceRatio,
		Thresholds:    cfg.Thresholds,
		Plugins: filePluginsConfig{
			Enabled:        cfg.Plugins.Enabled,
			Services:       cfg.Plugins.Services,
			RenicePatterns: cfg.Plugins.RenicePatterns,
			Protected:      cfg.Plugins.Protected,
		},
	}
	if err := tree.Unmarshal(&fc); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.LogLevel = fc.LogLevel
	cfg.InstanceName = fc.InstanceName
	cfg.LockPath = fc.LockPath
	cfg.AuditPath = fc.AuditPath
	cfg.KernelLogPath = fc.KernelLogPath
	cfg.PressurePath = fc.PressurePath
	cfg.HTTPAddress = fc.HTTPAddress
	cfg.OTELURL = fc.OTELURL
	cfg.TraceRatio = fc.TraceRatio
	cfg.Thresholds = fc.Thresholds
	cfg.Plugins.Enabled = fc.Plugins.Enabled
	cfg.Plugins.Services = fc.Plugins.Services
	cfg.Plugins.RenicePatterns = fc.Plugins.RenicePatterns
	cfg.Plugins.Protected = fc.Plugins.Protected

	if fc.Interval != "" {
		interval, err := time.ParseDuration(fc.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", fc.Interval, err)
		}
		cfg.Interval = interval
	}
	if fc.Plugins.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Plugins.Timeout)
		if err != nil {
			return fmt.Errorf("invalid plugin timeout %q: %w", fc.Plugins.Timeout, err)
		}
		cfg.Plugins.Timeout = timeout
	}

	return nil
}

// EncodeTOML renders the configuration in the file format accepted by
// LoadConfig.
func (c Config) EncodeTOML() ([]byte, error) {
	fc := fileConfig{
		LogLevel:      c.LogLevel,
		InstanceName:  c.InstanceName,
		Interval:      c.Interval.String(),
		LockPath:      c.LockPath,
		AuditPath:     c.AuditPath,
		KernelLogPath: c.KernelLogPath,
		PressurePath:  c.PressurePath,
		HTTPAddress:   c.HTTPAddress,
		OTELURL:       c.OTELURL,
		TraceRatio:    c.TraceRatio,
		Thresholds:    c.Thresholds,
		Plugins: filePluginsConfig{
			Enabled:        c.Plugins.Enabled,
			Timeout:        c.Plugins.Timeout.String(),
			Services:       c.Plugins.Services,
			RenicePatterns: c.Plugins.RenicePatterns,
			Protected:      c.Plugins.Protected,
		},
	}

	return toml.Marshal(fc)
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Plugins.Timeout <= 0 {
		return fmt.Errorf("plugin timeout must be positive, got %s", c.Plugins.Timeout)
	}
	if c.LockPath == "" {
		return errors.New("lock_path is required")
	}
	if c.AuditPath == "" {
		return errors.New("audit_path is required")
	}

	return c.Thresholds.Validate()
}
