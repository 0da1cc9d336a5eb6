package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
)

func TestManagerDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{ServiceName: "engine-test"}}

	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart().RequireStop()

	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
	assert.NotNil(t, mgr.Meter(meterName))
}

func TestManagerStdoutMetricsFeedInstruments(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName:     "engine-test",
		EnableMetrics:   true,
		MetricsExporter: "stdout",
	}}

	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	require.True(t, mgr.MetricsEnabled())

	inst := NewInstruments(mgr, zap.NewNop())
	lc.RequireStart()
	assert.NotPanics(t, func() { inst.Transition(context.Background(), "approve", "completed") })
	lc.RequireStop()
}

func TestUnknownExportersAreIgnored(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		EnableTracing:   true,
		TraceExporter:   "zipkin",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}}

	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
}

func TestServiceVersionDefaults(t *testing.T) {
	assert.Equal(t, defaultServiceVersion, serviceVersion(config.Observability{ServiceVersion: "  "}))
	assert.Equal(t, "1.2.3", serviceVersion(config.Observability{ServiceVersion: "1.2.3"}))
}
