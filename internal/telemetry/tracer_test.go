// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ServiceName: "test", ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "test", ExporterType: "invalid"})
	require.EqualError(t, err, "unsupported exporter type: invalid (supported: grpc, http)")
}

func TestSamplerFor(t *testing.T) {
	assert.True(t, strings.HasPrefix(samplerFor(1.0).Description(), "ParentBased{root:AlwaysOnSampler"))
	assert.True(t, strings.HasPrefix(samplerFor(0).Description(), "ParentBased{root:AlwaysOffSampler"))
	assert.True(t, strings.HasPrefix(samplerFor(0.25).Description(), "ParentBased{root:TraceIDRatioBased"))
}

func TestSessionAttributes_SkipsEmpty(t *testing.T) {
	attrs := SessionAttributes("", "s1", 7)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.String(SessionIDKey, "s1"), attrs[0])
	assert.Equal(t, attribute.Int64(GenerationKey, 7), attrs[1])
}

func TestShutdown_NilProvider(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}
