package bid

import "go.uber.org/fx"

// Module wires HTTP bid handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
