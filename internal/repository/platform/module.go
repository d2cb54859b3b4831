package platform

import "go.uber.org/fx"

// Module provides the platform repository to Fx.
var Module = fx.Provide(NewRepository)
