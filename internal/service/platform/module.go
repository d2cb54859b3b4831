package platform

import "go.uber.org/fx"

// Module provides the platform service to Fx.
var Module = fx.Provide(NewService)
