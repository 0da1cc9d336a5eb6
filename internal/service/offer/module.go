package offer

import "go.uber.org/fx"

// Module provides the offer converter to Fx.
var Module = fx.Provide(NewService)
