package offer

import "go.uber.org/fx"

// Module provides the offer repository to Fx.
var Module = fx.Provide(NewRepository)
