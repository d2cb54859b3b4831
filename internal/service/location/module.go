package location

import "go.uber.org/fx"

// Module provides the location service to Fx.
var Module = fx.Provide(NewService)
