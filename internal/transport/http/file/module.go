package file

import "go.uber.org/fx"

// Module wires HTTP work file handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
