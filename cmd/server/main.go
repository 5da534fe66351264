package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jeffreyyong/globalone-gateway/internal/app"
	"github.com/jeffreyyong/globalone-gateway/internal/app/healthcheck"
	"github.com/jeffreyyong/globalone-gateway/internal/app/listeners/httplistener"
	"github.com/jeffreyyong/globalone-gateway/internal/config"
	"github.com/jeffreyyong/globalone-gateway/internal/globalone"
	"github.com/jeffreyyong/globalone-gateway/internal/logging"
	"github.com/jeffreyyong/globalone-gateway/internal/metrics"
	"github.com/jeffreyyong/globalone-gateway/internal/service"
	"github.com/jeffreyyong/globalone-gateway/internal/transport/transporthttp"
)

const (
	serviceName = "globalone-gateway"

	healthCheckTimeout = 5 * time.Second
)

var (
	version = "dev"
	sha     = ""
)

func main() {
	if err := app.Run(serviceName, setup, app.WithVersion(version, sha)); err != nil {
		logging.Error(context.Background(), "failed to start service",
			zap.String("service", serviceName),
			zap.Error(err),
		)
		panic(err)
	}
}

func setup(ctx context.Context, s *app.Service) ([]app.Listener, context.Context, error) {
	s.OnShutdown(func() {
		logging.Print(ctx, "shutdown",
			zap.String("service", serviceName),
		)
	})

	cfg, err := config.Load()
	if err != nil {
		logging.Error(ctx, "loading_config", zap.Error(err))
		return nil, ctx, err
	}

	gateway, err := globalone.New(cfg.GatewayConfig())
	if err != nil {
		logging.Error(ctx, "creating_gateway", zap.Error(err))
		return nil, ctx, errors.Wrap(err, "creating gateway")
	}
	logging.Print(ctx, "gateway configured",
		zap.Bool("test", gateway.Test()),
		zap.String(logging.Endpoint, gateway.Endpoint()))

	healthClient := &http.Client{Timeout: healthCheckTimeout}
	if cfg.Gateway.HealthURL != "" {
		s.AddReadinessChecker(healthcheck.NewAPI(healthClient, "globalone", cfg.Gateway.HealthURL))
	}
	if cfg.Gateway.ProbeEndpoint {
		s.AddReadinessChecker(healthcheck.NewReachable(healthClient, "globalone_endpoint", gateway.Endpoint()))
	}

	metrics.MustRegister()

	svc, err := service.NewService(gateway)
	if err != nil {
		logging.Error(ctx, "creating_service", zap.Error(err))
		return nil, ctx, err
	}

	var opts []transporthttp.MiddlewareFunc
	if len(cfg.PrivilegedTokens) > 0 {
		opts = append(opts, transporthttp.WithAuth(cfg.PrivilegedTokens))
	} else {
		logging.Warn(ctx, "no privileged tokens configured, payment endpoints are unauthenticated")
	}

	h, err := transporthttp.NewHTTPHandler(svc, opts...)
	if err != nil {
		logging.Error(ctx, "creating_http_handler", zap.Error(err))
		return nil, ctx, err
	}

	return []app.Listener{httplistener.New(h, httplistener.WithAddr(cfg.HTTPAddr))}, ctx, nil
}
