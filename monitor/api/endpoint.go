package api

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/swipswaps/kde-memory-guardian-sub002/monitor"
)

func healthEndpoint(instance string) endpoint.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return healthResponse{
			Status:   "pass",
			Service:  "guardian",
			Instance: instance,
		}, nil
	}
}

func statusEndpoint(svc monitor.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		rec, err := svc.Status(ctx)
		if err != nil {
			return statusResponse{}, err
		}

		return statusResponse{CycleRecord: rec}, nil
	}
}
