package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

type fakeAuthenticator struct {
	identities map[string]token.Identity
}

func (f *fakeAuthenticator) Identify(_ context.Context, rawToken string) (token.Identity, error) {
	identity, ok := f.identities[rawToken]
	if !ok {
		return token.Identity{}, errorbank.Unauthorized("invalid token")
	}
	return identity, nil
}

func newTestAuth() *Auth {
	return &Auth{authenticator: &fakeAuthenticator{
		identities: map[string]token.Identity{
			"customer-token": {UserID: "u1", Role: entity.RoleCustomer},
			"admin-token":    {UserID: "u2", Role: entity.RoleAdmin},
		},
	}}
}

func invoke(t *testing.T, handler echo.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	return rec
}

func TestRequireStoresIdentity(t *testing.T) {
	auth := newTestAuth()

	var seen token.Identity
	handler := auth.Require(func(c echo.Context) error {
		caller, ok := Caller(c)
		require.True(t, ok)
		seen = caller
		return c.NoContent(http.StatusOK)
	})

	rec := invoke(t, handler, "Bearer customer-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, entity.RoleCustomer, seen.Role)
}

func TestRequireRejectsMissingOrMalformedHeader(t *testing.T) {
	auth := newTestAuth()
	handler := auth.Require(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})

	for _, header := range []string{"", "customer-token", "Basic abc", "Bearer ", "Bearer    "} {
		rec := invoke(t, handler, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireRejectsUnknownToken(t *testing.T) {
	auth := newTestAuth()
	handler := auth.Require(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})

	rec := invoke(t, handler, "Bearer nope")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRolesGatesByRole(t *testing.T) {
	auth := newTestAuth()
	adminOnly := auth.RequireRoles(entity.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := invoke(t, adminOnly, "Bearer admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = invoke(t, adminOnly, "Bearer customer-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
