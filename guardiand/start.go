package guardiand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0x6flab/namegenerator"
	guardian "github.com/swipswaps/kde-memory-guardian-sub002"
	"github.com/swipswaps/kde-memory-guardian-sub002/audit"
	"github.com/swipswaps/kde-memory-guardian-sub002/lock"
	"github.com/swipswaps/kde-memory-guardian-sub002/metrics"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor/api"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor/middleware"
	"github.com/swipswaps/kde-memory-guardian-sub002/oom"
	"github.com/swipswaps/kde-memory-guardian-sub002/pkg/prometheus"
	"github.com/swipswaps/kde-memory-guardian-sub002/pkg/tracing"
	"github.com/swipswaps/kde-memory-guardian-sub002/remediation"
	"github.com/swipswaps/kde-memory-guardian-sub002/remediation/plugins"
	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName         = "guardian"
	shutdownTimeout = 5 * time.Second
)

// StartMonitor runs the control loop plus the optional observer API until
// ctx is cancelled or a shutdown signal arrives.
func StartMonitor(ctx context.Context, cancel context.CancelFunc, cfg guardian.Config) error {
	g, ctx := errgroup.WithContext(ctx)

	if cfg.InstanceName == "" {
		cfg.InstanceName = namegenerator.NewGenerator().Generate()
	}

	logger, err := newLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %s", guardian.ErrInvalidConfig, err.Error())
	}
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch cfg.OTELURL {
	case "":
		tp = noop.NewTracerProvider()
	default:
		otelURL, err := url.Parse(cfg.OTELURL)
		if err != nil {
			return fmt.Errorf("%w: invalid OTEL URL: %s", guardian.ErrInvalidConfig, err.Error())
		}
		sdktp, err := tracing.NewProvider(ctx, svcName, *otelURL, cfg.TraceRatio)
		if err != nil {
			return fmt.Errorf("failed to initialize opentelemetry: %s", err.Error())
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	svc, auditor, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer auditor.Close()

	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "monitor")
	svc = middleware.Metrics(counter, latency, svc)

	g.Go(func() error {
		return svc.Run(ctx)
	})

	if cfg.HTTPAddress != "" {
		server := &http.Server{
			Addr:    cfg.HTTPAddress,
			Handler: api.MakeHandler(svc, logger, cfg.InstanceName),
		}

		g.Go(func() error {
			logger.Info("observer API listening", slog.String("address", cfg.HTTPAddress))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()

			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))

		return err
	}

	return nil
}

// buildService assembles the cycle pipeline from configuration. The caller
// owns the returned audit logger and must close it.
func buildService(cfg guardian.Config, logger *slog.Logger) (monitor.Service, *audit.Logger, error) {
	instance := cfg.InstanceName
	if instance == "" {
		instance = namegenerator.NewGenerator().Generate()
	}

	classifier, err := severity.NewClassifier(cfg.Thresholds)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", guardian.ErrInvalidConfig, err.Error())
	}

	registry, err := buildRegistry(cfg.Plugins)
	if err != nil {
		return nil, nil, err
	}

	auditor, err := audit.NewLogger(cfg.AuditPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit sink: %w", err)
	}

	svc := monitor.NewService(
		metrics.NewHostSampler(cfg.PressurePath),
		oom.NewLogProbe(cfg.KernelLogPath, logger),
		classifier,
		remediation.NewDispatcher(registry, cfg.Plugins.Timeout, logger),
		lock.New(cfg.LockPath),
		auditor,
		cfg.AuditPath,
		instance,
		cfg.Interval,
		logger,
	)

	return svc, auditor, nil
}

func buildRegistry(cfg guardian.PluginsConfig) (*remediation.Registry, error) {
	runner := plugins.NewExecRunner()
	available := map[string]remediation.Plugin{}
	for _, p := range []remediation.Plugin{
		plugins.NewCacheDrop(runner),
		plugins.NewRenice(runner, cfg.RenicePatterns),
		plugins.NewServiceRestart(runner, cfg.Services),
		plugins.NewEmergencyKill(runner, cfg.Protected),
	} {
		available[p.Name()] = p
	}

	registry := remediation.NewRegistry()
	for _, name := range cfg.Enabled {
		p, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown plugin %q", guardian.ErrInvalidConfig, name)
		}
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("%w: %s", guardian.ErrInvalidConfig, err.Error())
		}
	}

	return registry, nil
}

func newLogger(w *os.File, level string) (*slog.Logger, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", level, err)
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})), nil
}
