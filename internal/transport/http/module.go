package http

import (
	"go.uber.org/fx"

	authtransport "github.com/mesahq/mesa/internal/transport/http/auth"
	catalogtransport "github.com/mesahq/mesa/internal/transport/http/catalog"
	locationtransport "github.com/mesahq/mesa/internal/transport/http/location"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	ordertransport "github.com/mesahq/mesa/internal/transport/http/order"
	paymenttransport "github.com/mesahq/mesa/internal/transport/http/payment"
	platformtransport "github.com/mesahq/mesa/internal/transport/http/platform"
	reporttransport "github.com/mesahq/mesa/internal/transport/http/report"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	middleware.Module,
	authtransport.Module,
	catalogtransport.Module,
	locationtransport.Module,
	ordertransport.Module,
	paymenttransport.Module,
	platformtransport.Module,
	reporttransport.Module,
)
