package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesahq/mesa/internal/entity"
)

func testService(ttl time.Duration) *Service {
	return &Service{secret: []byte("unit-test-secret"), ttl: ttl}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := testService(time.Hour)

	signed, err := svc.Issue(Identity{UserID: "u1", Role: entity.RoleStaff, LocationID: "loc1"})
	require.NoError(t, err)

	got, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, entity.RoleStaff, got.Role)
	assert.Equal(t, "loc1", got.LocationID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := testService(-time.Minute)

	signed, err := svc.Issue(Identity{UserID: "u1", Role: entity.RoleCustomer})
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	signed, err := testService(time.Hour).Issue(Identity{UserID: "u1", Role: entity.RoleAdmin})
	require.NoError(t, err)

	other := &Service{secret: []byte("different-secret"), ttl: time.Hour}
	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := testService(time.Hour).Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalid)
}
