package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bfall/sawshift/internal/domain/models"
)

type fakeUsers struct {
	users []models.User
	err   error
}

func (f *fakeUsers) FetchUsers(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

func hashPin(t *testing.T, pin string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	source := &fakeUsers{users: []models.User{
		{Login: "anna", PinHash: hashPin(t, "4217"), Role: models.RoleOwner, Name: "Anna"},
		{Login: "boris", PinHash: hashPin(t, "0001"), Role: models.RoleEmployee, Name: "Boris"},
	}}
	svc := NewService(source, nil)

	session, err := svc.Authenticate(context.Background(), "anna", "4217")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, session.User.Role)
	assert.True(t, session.Capabilities.CanManageSetup)
	assert.True(t, session.Capabilities.CanViewReports)

	session, err = svc.Authenticate(context.Background(), "Boris", "0001")
	require.NoError(t, err)
	assert.True(t, session.Capabilities.CanLogShifts)
	assert.False(t, session.Capabilities.CanManageSetup)
}

func TestAuthenticateWrongPin(t *testing.T) {
	source := &fakeUsers{users: []models.User{
		{Login: "anna", PinHash: hashPin(t, "4217"), Role: models.RoleOwner},
	}}
	svc := NewService(source, nil)

	_, err := svc.Authenticate(context.Background(), "anna", "9999")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownLogin(t *testing.T) {
	svc := NewService(&fakeUsers{}, nil)

	_, err := svc.Authenticate(context.Background(), "ghost", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateSourceFailure(t *testing.T) {
	svc := NewService(&fakeUsers{err: errors.New("sheet down")}, nil)

	_, err := svc.Authenticate(context.Background(), "anna", "4217")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestRoleCapabilityTable(t *testing.T) {
	assert.True(t, models.CapabilitiesFor(models.RoleAdmin).CanEditHistory)
	assert.False(t, models.CapabilitiesFor(models.RoleAdmin).CanLogShifts)
	assert.Equal(t, models.Capabilities{}, models.CapabilitiesFor(models.RoleUnknown))
	assert.Equal(t, models.RoleEmployee, models.ParseRole("  Employee "))
	assert.Equal(t, models.RoleUnknown, models.ParseRole("boss"))
}
