package location

import "go.uber.org/fx"

// Module provides the location repository to Fx.
var Module = fx.Provide(NewRepository)
