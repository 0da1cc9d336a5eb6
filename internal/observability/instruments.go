package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/Argor01/OkoZnaniy-sub000/engine"

// Instruments holds the engine's domain counters. A nil *Instruments is valid
// and records nothing.
type Instruments struct {
	transitions metric.Int64Counter
	conflicts   metric.Int64Counter
}

// NewInstruments registers the counters on the manager's meter provider.
func NewInstruments(mgr *Manager, logger *zap.Logger) *Instruments {
	meter := mgr.Meter(meterName)
	inst := &Instruments{}

	var err error
	inst.transitions, err = meter.Int64Counter("engine.transitions",
		metric.WithDescription("Order lifecycle intents that were applied"))
	if err != nil && logger != nil {
		logger.Warn("register transitions counter", zap.Error(err))
	}
	inst.conflicts, err = meter.Int64Counter("engine.conflicts",
		metric.WithDescription("Intents rejected because a concurrent writer won"))
	if err != nil && logger != nil {
		logger.Warn("register conflicts counter", zap.Error(err))
	}
	return inst
}

// Transition counts an applied intent.
func (i *Instruments) Transition(ctx context.Context, action, to string) {
	if i == nil || i.transitions == nil {
		return
	}
	i.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("to", to),
	))
}

// Conflict counts an intent that lost a race.
func (i *Instruments) Conflict(ctx context.Context, action string) {
	if i == nil || i.conflicts == nil {
		return
	}
	i.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}
