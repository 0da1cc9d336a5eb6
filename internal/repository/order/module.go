package order

import "go.uber.org/fx"

// Module provides the order and history repository to Fx.
var Module = fx.Provide(NewRepository)
