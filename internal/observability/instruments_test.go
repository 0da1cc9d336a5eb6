package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestInstrumentsRecordCounters(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inst := NewInstruments(&Manager{meterProvider: provider}, zap.NewNop())
	inst.Transition(ctx, "take", "in_progress")
	inst.Transition(ctx, "take", "in_progress")
	inst.Conflict(ctx, "take")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["engine.transitions"])
	assert.Equal(t, int64(1), totals["engine.conflicts"])
}

func TestNilInstrumentsAreSafe(t *testing.T) {
	var inst *Instruments
	assert.NotPanics(t, func() {
		inst.Transition(context.Background(), "approve", "completed")
		inst.Conflict(context.Background(), "approve")
	})
}
