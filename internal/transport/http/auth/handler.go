package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/mesahq/mesa/internal/dto"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/presentation/http/response"
	service "github.com/mesahq/mesa/internal/service/auth"
	"github.com/mesahq/mesa/internal/transport/http/middleware"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/mesahq/mesa/transport/http/auth")

// Handler exposes authentication and account endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, auth *middleware.Auth) {
	g := e.Group("/auth")
	g.POST("/register/send-otp", h.sendRegistrationOTP)
	g.POST("/register/verify-otp", h.verifyRegistrationOTP)
	g.POST("/login/send-otp", h.sendLoginOTP)
	g.POST("/login/verify-otp", h.verifyLoginOTP)
	g.POST("/staff/register", h.registerStaffAdmin)
	g.POST("/staff/login", h.loginStaffAdmin)

	g.GET("/profile", h.profile, auth.Require)
	g.GET("/users/staff", h.listStaffAdmins, auth.Require)
	g.GET("/users/customers", h.listCustomers, auth.Require)
}

func (h *Handler) sendRegistrationOTP(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.sendRegistrationOTP")
	defer span.End()

	if err := h.svc.SendRegistrationOTP(ctx, payload.Name, payload.PhoneNumber); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("verification code sent").Build()
}

func (h *Handler) verifyRegistrationOTP(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		PhoneNumber string `json:"phoneNumber"`
		Code        string `json:"code"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.verifyRegistrationOTP")
	defer span.End()

	session, err := h.svc.VerifyRegistrationOTP(ctx, payload.PhoneNumber, payload.Code)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toAuthDTO(session)).Build()
}

func (h *Handler) sendLoginOTP(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.sendLoginOTP")
	defer span.End()

	if err := h.svc.SendLoginOTP(ctx, payload.PhoneNumber); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("verification code sent").Build()
}

func (h *Handler) verifyLoginOTP(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		PhoneNumber string `json:"phoneNumber"`
		Code        string `json:"code"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.verifyLoginOTP")
	defer span.End()

	session, err := h.svc.VerifyLoginOTP(ctx, payload.PhoneNumber, payload.Code)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toAuthDTO(session)).Build()
}

func (h *Handler) registerStaffAdmin(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Password   string  `json:"password"`
		Role       string  `json:"role"`
		LocationID *string `json:"locationId"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.registerStaffAdmin")
	defer span.End()

	session, err := h.svc.RegisterStaffAdmin(ctx, service.StaffInput{
		Name:       payload.Name,
		Email:      payload.Email,
		Password:   payload.Password,
		Role:       entity.Role(payload.Role),
		LocationID: payload.LocationID,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toAuthDTO(session)).Build()
}

func (h *Handler) loginStaffAdmin(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.loginStaffAdmin")
	defer span.End()

	session, err := h.svc.LoginStaffAdmin(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toAuthDTO(session)).Build()
}

func (h *Handler) profile(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.profile")
	defer span.End()

	user, err := h.svc.Profile(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toUserDTO(user)).Build()
}

func (h *Handler) listStaffAdmins(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.listStaffAdmins")
	defer span.End()

	users, err := h.svc.ListStaffAdmins(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toUserDTOs(users)).Build()
}

func (h *Handler) listCustomers(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Caller(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.listCustomers")
	defer span.End()

	users, err := h.svc.ListCustomers(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toUserDTOs(users)).Build()
}

func toUserDTO(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
		LocationID:  user.LocationID,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toUserDTOs(users []*entity.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

func toAuthDTO(session *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		Token: session.Token,
		User:  toUserDTO(session.User),
	}
}
