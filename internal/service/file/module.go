package file

import "go.uber.org/fx"

// Module provides the work file service to Fx.
var Module = fx.Provide(NewService)
