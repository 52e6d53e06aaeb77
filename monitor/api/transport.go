package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
	"github.com/swipswaps/kde-memory-guardian-sub002/pkg/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MakeHandler exposes the read-only observer surface: service health, the
// last cycle record, and Prometheus metrics. Remediation is never triggered
// over HTTP; run-once stays an operator CLI action.
func MakeHandler(svc monitor.Service, logger *slog.Logger, instance string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(loggingErrorEncoder(logger)),
	}

	mux.Get("/health", otelhttp.NewHandler(kithttp.NewServer(
		healthEndpoint(instance),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "health").ServeHTTP)

	mux.Get("/status", otelhttp.NewHandler(kithttp.NewServer(
		statusEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "status").ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func loggingErrorEncoder(logger *slog.Logger) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		logger.Warn("request failed", slog.Any("error", err))
		api.EncodeError(ctx, err, w)
	}
}
