package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	authservice "github.com/mesahq/mesa/internal/service/auth"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

const identityKey = "caller_identity"

// Authenticator resolves a raw bearer token into a caller identity.
type Authenticator interface {
	Identify(ctx context.Context, rawToken string) (token.Identity, error)
}

// Auth owns the bearer-token middleware chain.
type Auth struct {
	authenticator Authenticator
}

// Module provides the auth middleware to Fx.
var Module = fx.Provide(NewAuth)

// NewAuth builds the middleware over the auth service.
func NewAuth(svc *authservice.Service) *Auth {
	return &Auth{authenticator: svc}
}

// Require rejects requests without a valid bearer token and stores the
// resolved identity on the request context.
func (a *Auth) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := bearerToken(c)
		if !ok {
			return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
		}
		identity, err := a.authenticator.Identify(c.Request().Context(), raw)
		if err != nil {
			return response.New(c).WithError(err).Build()
		}
		c.Set(identityKey, identity)
		return next(c)
	}
}

// RequireRoles builds on Require, additionally demanding one of the given
// roles.
func (a *Auth) RequireRoles(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return a.Require(func(c echo.Context) error {
			caller, _ := Caller(c)
			for _, role := range roles {
				if caller.Role == role {
					return next(c)
				}
			}
			return response.New(c).WithError(errorbank.Forbidden("insufficient role")).Build()
		})
	}
}

// Caller returns the identity stored by Require.
func Caller(c echo.Context) (token.Identity, bool) {
	identity, ok := c.Get(identityKey).(token.Identity)
	return identity, ok
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}
