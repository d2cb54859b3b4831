package order

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/transport/http/middleware"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, auth *middleware.Auth) {
		Register(e, h, auth)
	}),
)
