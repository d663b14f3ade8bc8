package main

import (
	"context"

	"github.com/tournevent/correios/internal/config"
	"github.com/tournevent/correios/internal/server"
	"github.com/tournevent/correios/internal/telemetry"
	"github.com/tournevent/correios/pkg/shipper"
	"github.com/tournevent/correios/pkg/shipper/correios"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel,
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.Version),
	)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
	return shutdown, err
}

func newCorreiosClient(cfg *config.Config, logger *otelzap.Logger) *correios.Client {
	// Resolved through the global provider so a failed InitTracer degrades to no-op spans.
	tracer := otel.Tracer(cfg.ServiceName)

	return correios.New(correios.Config{
		BaseURL:            cfg.CorreiosBaseURL,
		Timeout:            cfg.CorreiosTimeout,
		InsecureSkipVerify: cfg.CorreiosInsecureTLS,
		UseMock:            cfg.CorreiosUseMock,
		MaxConcurrency:     cfg.CorreiosMaxConcurrency,
	}, logger, tracer)
}

func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger) (*shipper.Registry, server.Quoter) {
	registry := shipper.NewRegistry()

	if !cfg.CorreiosEnabled {
		return registry, nil
	}

	client := newCorreiosClient(cfg, logger)
	registry.Register(client)
	return registry, client
}
