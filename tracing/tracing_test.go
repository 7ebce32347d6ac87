// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_DisablesTracing(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, "none", cfg.Exporter)
}

func TestNewProvider_DisabledReturnsNoopTracer(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.StartMailboxSpan(context.Background(), 1, "window_created")
	require.NotNil(t, span)
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_StdoutExporterEnablesTracing(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: "stdout", ServiceName: "skyline-test"})
	require.NoError(t, err)
	require.True(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnsupportedExporterErrors(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "datadog"})
	require.Error(t, err)
}

func TestNewProvider_AcceptsEmptyServiceName(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestStartMailboxSpan_ReturnsValidSpanWhenEnabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	ctx, span := p.StartMailboxSpan(context.Background(), 42, "app_terminated")
	require.NotNil(t, ctx)
	require.True(t, span.SpanContext().IsValid())
	span.End()
}
