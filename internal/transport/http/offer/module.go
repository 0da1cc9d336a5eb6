package offer

import "go.uber.org/fx"

// Module wires HTTP offer handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
