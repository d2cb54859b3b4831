package app

import (
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/cache"
	"github.com/mesahq/mesa/internal/config"
	"github.com/mesahq/mesa/internal/database"
	"github.com/mesahq/mesa/internal/logger"
	"github.com/mesahq/mesa/internal/messaging"
	"github.com/mesahq/mesa/internal/observability"
	"github.com/mesahq/mesa/internal/otp"
	catalogrepo "github.com/mesahq/mesa/internal/repository/catalog"
	locationrepo "github.com/mesahq/mesa/internal/repository/location"
	orderrepo "github.com/mesahq/mesa/internal/repository/order"
	paymentrepo "github.com/mesahq/mesa/internal/repository/payment"
	platformrepo "github.com/mesahq/mesa/internal/repository/platform"
	reportrepo "github.com/mesahq/mesa/internal/repository/report"
	userrepo "github.com/mesahq/mesa/internal/repository/user"
	httpserver "github.com/mesahq/mesa/internal/server/http"
	authservice "github.com/mesahq/mesa/internal/service/auth"
	catalogservice "github.com/mesahq/mesa/internal/service/catalog"
	locationservice "github.com/mesahq/mesa/internal/service/location"
	orderservice "github.com/mesahq/mesa/internal/service/order"
	paymentservice "github.com/mesahq/mesa/internal/service/payment"
	platformservice "github.com/mesahq/mesa/internal/service/platform"
	reportservice "github.com/mesahq/mesa/internal/service/report"
	"github.com/mesahq/mesa/internal/stripe"
	"github.com/mesahq/mesa/internal/token"
	transporthttp "github.com/mesahq/mesa/internal/transport/http"
	"github.com/mesahq/mesa/internal/worker"
	workerorder "github.com/mesahq/mesa/internal/worker/order"
	workerpayment "github.com/mesahq/mesa/internal/worker/payment"
)

// Core wires configuration, infrastructure, repositories and services.
// Both the API server and the worker runner build on top of it.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	database.Module,
	cache.Module,
	messaging.Module,
	token.Module,
	otp.Module,
	stripe.Module,

	userrepo.Module,
	locationrepo.Module,
	catalogrepo.Module,
	orderrepo.Module,
	paymentrepo.Module,
	platformrepo.Module,
	reportrepo.Module,

	authservice.Module,
	locationservice.Module,
	catalogservice.Module,
	orderservice.Module,
	paymentservice.Module,
	platformservice.Module,
	reportservice.Module,
)

// HTTP is the API server composition.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker is the background consumer composition.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
	workerpayment.Module,
)

// Module is the default application, the HTTP API.
var Module = HTTP
