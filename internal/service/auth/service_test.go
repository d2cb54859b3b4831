package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesahq/mesa/internal/entity"
	"github.com/mesahq/mesa/internal/otp"
	locationrepo "github.com/mesahq/mesa/internal/repository/location"
	userrepo "github.com/mesahq/mesa/internal/repository/user"
	"github.com/mesahq/mesa/internal/token"
	"github.com/mesahq/mesa/pkg/errorbank"
)

type fakeUsers struct {
	byID    map[string]*entity.User
	byPhone map[string]*entity.User
	byEmail map[string]*entity.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    map[string]*entity.User{},
		byPhone: map[string]*entity.User{},
		byEmail: map[string]*entity.User{},
	}
}

func (f *fakeUsers) add(u *entity.User) {
	f.byID[u.ID] = u
	if u.PhoneNumber != nil {
		f.byPhone[*u.PhoneNumber] = u
	}
	if u.Email != nil {
		f.byEmail[*u.Email] = u
	}
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	if u.PhoneNumber != nil {
		if _, ok := f.byPhone[*u.PhoneNumber]; ok {
			return userrepo.ErrDuplicate
		}
	}
	if u.Email != nil {
		if _, ok := f.byEmail[*u.Email]; ok {
			return userrepo.ErrDuplicate
		}
	}
	f.add(u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, userrepo.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, userrepo.ErrNotFound
}

func (f *fakeUsers) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	if u, ok := f.byPhone[phone]; ok {
		return u, nil
	}
	return nil, userrepo.ErrNotFound
}

func (f *fakeUsers) ListByRoles(_ context.Context, roles ...entity.Role) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range f.byID {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type fakeOTPs struct {
	records map[string]*otp.Record
	issued  int
}

func newFakeOTPs() *fakeOTPs {
	return &fakeOTPs{records: map[string]*otp.Record{}}
}

func (f *fakeOTPs) Issue(_ context.Context, identifier string, pending *otp.PendingUser) error {
	f.issued++
	f.records[identifier] = &otp.Record{Code: "123456", PendingUser: pending}
	return nil
}

func (f *fakeOTPs) Verify(_ context.Context, identifier, code string) (*otp.Record, error) {
	record, ok := f.records[identifier]
	if !ok || record.Code != code {
		return nil, otp.ErrNotFound
	}
	delete(f.records, identifier)
	return record, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(id token.Identity) (string, error) {
	return "token-" + id.UserID, nil
}

func (fakeTokens) Verify(tokenString string) (token.Identity, error) {
	if len(tokenString) <= len("token-") {
		return token.Identity{}, token.ErrInvalid
	}
	return token.Identity{UserID: tokenString[len("token-"):]}, nil
}

type fakeLocations struct {
	known map[string]bool
}

func (f *fakeLocations) GetByID(_ context.Context, id string) (*entity.Location, error) {
	if f.known[id] {
		return &entity.Location{ID: id}, nil
	}
	return nil, locationrepo.ErrNotFound
}

func newTestService(users *fakeUsers, otps *fakeOTPs, locations *fakeLocations) *Service {
	if locations == nil {
		locations = &fakeLocations{known: map[string]bool{}}
	}
	return &Service{
		users:      users,
		otps:       otps,
		tokens:     fakeTokens{},
		locations:  locations,
		bcryptCost: bcrypt.MinCost,
	}
}

func TestRegistrationFlow(t *testing.T) {
	users := newFakeUsers()
	otps := newFakeOTPs()
	svc := newTestService(users, otps, nil)
	ctx := context.Background()

	require.NoError(t, svc.SendRegistrationOTP(ctx, "Ada", "15550001111"))
	require.Equal(t, 1, otps.issued)

	session, err := svc.VerifyRegistrationOTP(ctx, "15550001111", "123456")
	require.NoError(t, err)
	assert.Equal(t, "Ada", session.User.Name)
	assert.Equal(t, entity.RoleCustomer, session.User.Role)
	assert.Equal(t, "token-"+session.User.ID, session.Token)

	_, err = users.GetByPhone(ctx, "15550001111")
	assert.NoError(t, err, "verification persists the account")
}

func TestSendRegistrationOTPRejectsKnownPhone(t *testing.T) {
	users := newFakeUsers()
	phone := "15550001111"
	users.add(&entity.User{ID: "u1", PhoneNumber: &phone, Role: entity.RoleCustomer})
	svc := newTestService(users, newFakeOTPs(), nil)

	err := svc.SendRegistrationOTP(context.Background(), "Ada", phone)
	assert.Equal(t, errorbank.KindConflict, errorbank.KindOf(err))
}

func TestVerifyRegistrationOTPRejectsBadCode(t *testing.T) {
	otps := newFakeOTPs()
	svc := newTestService(newFakeUsers(), otps, nil)
	ctx := context.Background()

	require.NoError(t, svc.SendRegistrationOTP(ctx, "Ada", "15550001111"))

	_, err := svc.VerifyRegistrationOTP(ctx, "15550001111", "999999")
	assert.Equal(t, errorbank.KindUnauthorized, errorbank.KindOf(err))
}

func TestLoginFlow(t *testing.T) {
	users := newFakeUsers()
	phone := "15550001111"
	users.add(&entity.User{ID: "u1", Name: "Ada", PhoneNumber: &phone, Role: entity.RoleCustomer})
	otps := newFakeOTPs()
	svc := newTestService(users, otps, nil)
	ctx := context.Background()

	require.NoError(t, svc.SendLoginOTP(ctx, phone))

	session, err := svc.VerifyLoginOTP(ctx, phone, "123456")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, "token-u1", session.Token)
}

func TestSendLoginOTPUnknownPhone(t *testing.T) {
	svc := newTestService(newFakeUsers(), newFakeOTPs(), nil)

	err := svc.SendLoginOTP(context.Background(), "19990000000")
	assert.Equal(t, errorbank.KindNotFound, errorbank.KindOf(err))
}

func TestRegisterStaffAdmin(t *testing.T) {
	users := newFakeUsers()
	locations := &fakeLocations{known: map[string]bool{"loc1": true}}
	svc := newTestService(users, newFakeOTPs(), locations)
	ctx := context.Background()

	loc := "loc1"
	session, err := svc.RegisterStaffAdmin(ctx, StaffInput{
		Name:       "Grace",
		Email:      "grace@example.com",
		Password:   "hunter2hunter2",
		Role:       entity.RoleStaff,
		LocationID: &loc,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, session.User.Role)
	require.NotNil(t, session.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*session.User.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegisterStaffAdminValidation(t *testing.T) {
	locations := &fakeLocations{known: map[string]bool{"loc1": true}}
	loc := "loc1"
	ghost := "ghost"

	cases := []struct {
		name  string
		input StaffInput
		kind  errorbank.Kind
	}{
		{
			name:  "customer role rejected",
			input: StaffInput{Name: "X", Email: "x@example.com", Password: "longenough", Role: entity.RoleCustomer},
			kind:  errorbank.KindBadRequest,
		},
		{
			name:  "staff without location",
			input: StaffInput{Name: "X", Email: "x@example.com", Password: "longenough", Role: entity.RoleStaff},
			kind:  errorbank.KindBadRequest,
		},
		{
			name:  "staff with unknown location",
			input: StaffInput{Name: "X", Email: "x@example.com", Password: "longenough", Role: entity.RoleStaff, LocationID: &ghost},
			kind:  errorbank.KindBadRequest,
		},
		{
			name:  "short password",
			input: StaffInput{Name: "X", Email: "x@example.com", Password: "short", Role: entity.RoleAdmin, LocationID: &loc},
			kind:  errorbank.KindBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(newFakeUsers(), newFakeOTPs(), locations)
			_, err := svc.RegisterStaffAdmin(context.Background(), tc.input)
			assert.Equal(t, tc.kind, errorbank.KindOf(err))
		})
	}
}

func TestRegisterStaffAdminDuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	email := "grace@example.com"
	users.add(&entity.User{ID: "u1", Email: &email, Role: entity.RoleAdmin})
	svc := newTestService(users, newFakeOTPs(), nil)

	_, err := svc.RegisterStaffAdmin(context.Background(), StaffInput{
		Name:     "Grace",
		Email:    email,
		Password: "hunter2hunter2",
		Role:     entity.RoleAdmin,
	})
	assert.Equal(t, errorbank.KindConflict, errorbank.KindOf(err))
}

func TestLoginStaffAdmin(t *testing.T) {
	users := newFakeUsers()
	email := "grace@example.com"
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)
	users.add(&entity.User{ID: "u1", Email: &email, PasswordHash: &hashStr, Role: entity.RoleAdmin})
	svc := newTestService(users, newFakeOTPs(), nil)
	ctx := context.Background()

	session, err := svc.LoginStaffAdmin(ctx, email, "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)

	_, err = svc.LoginStaffAdmin(ctx, email, "wrong-password")
	assert.Equal(t, errorbank.KindUnauthorized, errorbank.KindOf(err))

	_, err = svc.LoginStaffAdmin(ctx, "nobody@example.com", "whatever1")
	assert.Equal(t, errorbank.KindUnauthorized, errorbank.KindOf(err))
}

func TestListUsersRequiresElevatedRole(t *testing.T) {
	users := newFakeUsers()
	users.add(&entity.User{ID: "c1", Role: entity.RoleCustomer})
	users.add(&entity.User{ID: "s1", Role: entity.RoleStaff})
	svc := newTestService(users, newFakeOTPs(), nil)
	ctx := context.Background()

	_, err := svc.ListCustomers(ctx, token.Identity{UserID: "c1", Role: entity.RoleCustomer})
	assert.Equal(t, errorbank.KindForbidden, errorbank.KindOf(err))

	customers, err := svc.ListCustomers(ctx, token.Identity{UserID: "s1", Role: entity.RoleStaff})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "c1", customers[0].ID)

	staff, err := svc.ListStaffAdmins(ctx, token.Identity{UserID: "s1", Role: entity.RoleStaff})
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "s1", staff[0].ID)
}

func TestIdentifyResolvesLiveAccount(t *testing.T) {
	users := newFakeUsers()
	loc := "loc1"
	users.add(&entity.User{ID: "s1", Role: entity.RoleStaff, LocationID: &loc})
	svc := newTestService(users, newFakeOTPs(), nil)
	ctx := context.Background()

	id, err := svc.Identify(ctx, "token-s1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, id.Role)
	assert.Equal(t, "loc1", id.LocationID)

	_, err = svc.Identify(ctx, "token-deleted")
	assert.Equal(t, errorbank.KindUnauthorized, errorbank.KindOf(err))

	_, err = svc.Identify(ctx, "junk")
	assert.Equal(t, errorbank.KindUnauthorized, errorbank.KindOf(err))
}
