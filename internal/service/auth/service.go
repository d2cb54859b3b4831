package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesahq/mesa/internal/config"
	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/otp"
	locationrepo "github.com/mesahq/mesa/internal/repository/location"
	userrepo "github.com/mesahq/mesa/internal/repository/user"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/mesahq/mesa/service/auth")

// UserStore is the user persistence surface the service depends on.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	ListByRoles(ctx context.Context, roles ...entity.Role) ([]*entity.User, error)
}

// OTPStore issues and verifies one-time codes.
type OTPStore interface {
	Issue(ctx context.Context, identifier string, pending *otp.PendingUser) error
	Verify(ctx context.Context, identifier, code string) (*otp.Record, error)
}

// Tokens signs and validates bearer tokens.
type Tokens interface {
	Issue(id token.Identity) (string, error)
	Verify(tokenString string) (token.Identity, error)
}

// LocationLookup confirms a location exists before staff are attached to it.
type LocationLookup interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}

// Session couples an issued token with the authenticated user.
type Session struct {
	Token string
	User  *entity.User
}

// StaffInput carries a staff or admin registration request.
type StaffInput struct {
	Name       string
	Email      string
	Password   string
	Role       entity.Role
	LocationID *string
}

// Service implements customer OTP flows and staff credential flows.
type Service struct {
	users      UserStore
	otps       OTPStore
	tokens     Tokens
	locations  LocationLookup
	logger     *zap.Logger
	bcryptCost int
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Users     *userrepo.Repository
	OTPs      *otp.Store
	Tokens    *token.Service
	Locations *locationrepo.Repository
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		users:      p.Users,
		otps:       p.OTPs,
		tokens:     p.Tokens,
		locations:  p.Locations,
		logger:     p.Logger,
		bcryptCost: p.Config.Auth.BcryptCost,
	}
}

// SendRegistrationOTP starts customer signup. The registration data rides
// along with the code and is only persisted after verification.
func (s *Service) SendRegistrationOTP(ctx context.Context, name, phone string) error {
	ctx, span := serviceTracer.Start(ctx, "AuthService.SendRegistrationOTP")
	defer span.End()

	if name == "" || phone == "" {
		return errorbank.BadRequest("name and phone number are required")
	}

	_, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		return errorbank.Conflict("phone number already registered")
	}
	if !errors.Is(err, userrepo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to check phone number", errorbank.WithCause(err))
	}

	pending := &otp.PendingUser{Name: name, PhoneNumber: phone}
	if err := s.otps.Issue(ctx, phone, pending); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "otp issue failed")
		return errorbank.Internal("failed to send verification code", errorbank.WithCause(err))
	}
	return nil
}

// VerifyRegistrationOTP completes signup, creating the customer account and
// returning an authenticated session.
func (s *Service) VerifyRegistrationOTP(ctx context.Context, phone, code string) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.VerifyRegistrationOTP")
	defer span.End()

	record, err := s.otps.Verify(ctx, phone, code)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil, errorbank.Unauthorized("invalid or expired verification code")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "otp verify failed")
		return nil, errorbank.Internal("failed to verify code", errorbank.WithCause(err))
	}
	if record.PendingUser == nil {
		return nil, errorbank.Unauthorized("invalid or expired verification code")
	}

	now := time.Now().UTC()
	phoneCopy := record.PendingUser.PhoneNumber
	user := &entity.User{
		ID:          uuid.NewString(),
		Name:        record.PendingUser.Name,
		PhoneNumber: &phoneCopy,
		Role:        entity.RoleCustomer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, errorbank.Conflict("phone number already registered")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}

	return s.session(user)
}

// SendLoginOTP starts customer login for an existing account.
func (s *Service) SendLoginOTP(ctx context.Context, phone string) error {
	ctx, span := serviceTracer.Start(ctx, "AuthService.SendLoginOTP")
	defer span.End()

	if phone == "" {
		return errorbank.BadRequest("phone number is required")
	}

	if _, err := s.users.GetByPhone(ctx, phone); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return errorbank.NotFound("no account for this phone number")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to look up account", errorbank.WithCause(err))
	}

	if err := s.otps.Issue(ctx, phone, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "otp issue failed")
		return errorbank.Internal("failed to send verification code", errorbank.WithCause(err))
	}
	return nil
}

// VerifyLoginOTP completes customer login.
func (s *Service) VerifyLoginOTP(ctx context.Context, phone, code string) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.VerifyLoginOTP")
	defer span.End()

	if _, err := s.otps.Verify(ctx, phone, code); err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil, errorbank.Unauthorized("invalid or expired verification code")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "otp verify failed")
		return nil, errorbank.Internal("failed to verify code", errorbank.WithCause(err))
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.NotFound("no account for this phone number")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to look up account", errorbank.WithCause(err))
	}

	return s.session(user)
}

// RegisterStaffAdmin creates a staff or admin account with email credentials.
func (s *Service) RegisterStaffAdmin(ctx context.Context, in StaffInput) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.RegisterStaffAdmin", trace.WithAttributes(attribute.String("user.role", string(in.Role))))
	defer span.End()

	if in.Name == "" || in.Email == "" {
		return nil, errorbank.BadRequest("name and email are required")
	}
	if len(in.Password) < 8 {
		return nil, errorbank.BadRequest("password must be at least 8 characters")
	}
	if in.Role != entity.RoleStaff && in.Role != entity.RoleAdmin {
		return nil, errorbank.BadRequest("role must be STAFF or ADMIN")
	}
	if in.Role == entity.RoleStaff {
		if in.LocationID == nil || *in.LocationID == "" {
			return nil, errorbank.BadRequest("staff accounts require a location")
		}
		if _, err := s.locations.GetByID(ctx, *in.LocationID); err != nil {
			if errors.Is(err, locationrepo.ErrNotFound) {
				return nil, errorbank.BadRequest("location does not exist")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to check location", errorbank.WithCause(err))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	emailCopy := in.Email
	hashStr := string(hash)
	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        &emailCopy,
		PasswordHash: &hashStr,
		Role:         in.Role,
		LocationID:   in.LocationID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, errorbank.Conflict("email already registered")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}

	if s.logger != nil {
		s.logger.Info("staff account created",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
	}
	return s.session(user)
}

// LoginStaffAdmin authenticates email credentials.
func (s *Service) LoginStaffAdmin(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.LoginStaffAdmin")
	defer span.End()

	if email == "" || password == "" {
		return nil, errorbank.BadRequest("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.Unauthorized("invalid email or password")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to look up account", errorbank.WithCause(err))
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, errorbank.Unauthorized("invalid email or password")
	}

	return s.session(user)
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, caller token.Identity) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Profile")
	defer span.End()

	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load profile", errorbank.WithCause(err))
	}
	return user, nil
}

// ListStaffAdmins returns staff and admin accounts. Staff and admins only.
func (s *Service) ListStaffAdmins(ctx context.Context, caller token.Identity) ([]*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.ListStaffAdmins")
	defer span.End()

	if caller.Role != entity.RoleStaff && caller.Role != entity.RoleAdmin {
		return nil, errorbank.Forbidden("staff or admin role required")
	}
	users, err := s.users.ListByRoles(ctx, entity.RoleStaff, entity.RoleAdmin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list users", errorbank.WithCause(err))
	}
	return users, nil
}

// ListCustomers returns customer accounts. Staff and admins only.
func (s *Service) ListCustomers(ctx context.Context, caller token.Identity) ([]*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.ListCustomers")
	defer span.End()

	if caller.Role != entity.RoleStaff && caller.Role != entity.RoleAdmin {
		return nil, errorbank.Forbidden("staff or admin role required")
	}
	users, err := s.users.ListByRoles(ctx, entity.RoleCustomer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list users", errorbank.WithCause(err))
	}
	return users, nil
}

// Identify resolves a bearer token into a live caller identity. The account
// is re-read so stale tokens for deleted users stop working.
func (s *Service) Identify(ctx context.Context, rawToken string) (token.Identity, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Identify")
	defer span.End()

	id, err := s.tokens.Verify(rawToken)
	if err != nil {
		return token.Identity{}, errorbank.Unauthorized("invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return token.Identity{}, errorbank.Unauthorized("account no longer exists")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return token.Identity{}, errorbank.Internal("failed to resolve identity", errorbank.WithCause(err))
	}

	resolved := token.Identity{UserID: user.ID, Role: user.Role}
	if user.LocationID != nil {
		resolved.LocationID = *user.LocationID
	}
	return resolved, nil
}

func (s *Service) session(user *entity.User) (*Session, error) {
	id := token.Identity{UserID: user.ID, Role: user.Role}
	if user.LocationID != nil {
		id.LocationID = *user.LocationID
	}
	signed, err := s.tokens.Issue(id)
	if err != nil {
		return nil, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}
	return &Session{Token: signed, User: user}, nil
}
