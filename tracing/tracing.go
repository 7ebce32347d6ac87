// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: tracing/tracing.go
// Summary: The actor mesh's tracing provider (spec §5 [NEW]): every
// mailbox message gets a span running from dequeue to handler return,
// giving the concurrency model's "ordered per actor" guarantee a
// concrete, observable trace instead of an implicit property.

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects the exporter backend. The daemon binary decides which
// concrete exporter to wire; the core never depends on a specific one
// beyond this package.
type Config struct {
	// Enabled controls whether tracing is active; a no-op tracer with
	// zero overhead is returned when false.
	Enabled bool
	// Exporter selects the backend: "none" or "stdout". Swapping in an
	// OTLP exporter is left to cmd/skyline, which can construct its own
	// sdktrace.TracerProvider and never touches this package's callers.
	Exporter    string
	ServiceName string
}

// DefaultConfig disables tracing — local development and tests run
// with zero overhead unless a caller opts in.
func DefaultConfig() Config {
	return Config{Enabled: false, Exporter: "none", ServiceName: "skyline"}
}

// Provider wraps a configured TracerProvider.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// NewProvider builds a Provider from cfg.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		np := noop.NewTracerProvider()
		return &Provider{tracer: np.Tracer("noop"), enabled: false}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("tracing: create stdout exporter: %w", err)
		}
	case "none", "":
		exporter = nil
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skyline"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Provider{provider: provider, tracer: provider.Tracer(serviceName), enabled: true}, nil
}

func (p *Provider) Tracer() trace.Tracer { return p.tracer }
func (p *Provider) Enabled() bool        { return p.enabled }

func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// StartMailboxSpan starts a span for one actor-mailbox message, named
// by the pid it belongs to and the event kind it carries. Callers end
// the span when the handler returns.
func (p *Provider) StartMailboxSpan(ctx context.Context, pid uint32, eventKind string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "actormesh.mailbox",
		trace.WithAttributes(
			attribute.Int64("skyline.pid", int64(pid)),
			attribute.String("skyline.event_kind", eventKind),
		),
	)
}
