package seeder

import "go.uber.org/fx"

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)
