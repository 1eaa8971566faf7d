package service

import (
	"allfit/allfit-backend/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newAuthService(userRepo *fakeUserRepo) AuthService {
	return NewAuthService(userRepo, testLogger(), testJWTSecret, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newAuthService(userRepo)

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ana",
		LastName:  "Kovač",
		Email:     "ana@allfit.test",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.True(t, user.IsActive)
	assert.Empty(t, user.PasswordHash, "responses must not leak the hash")

	token, loggedIn, err := svc.Login(context.Background(), "ana@allfit.test", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleClient, claims.Role)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Eve",
		LastName:  "Admin",
		Email:     "eve@allfit.test",
		Password:  "password123",
		Role:      domain.RoleAdmin,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	input := RegisterInput{FirstName: "Ana", LastName: "Kovač", Email: "ana@allfit.test", Password: "password123"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginFailures(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newAuthService(userRepo)

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ana", LastName: "Kovač", Email: "ana@allfit.test", Password: "password123",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ana@allfit.test", "wrong")
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(context.Background(), "nobody@allfit.test", "password123")
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	// disabled accounts cannot log in even with the right password
	stored := userRepo.users[user.ID]
	stored.IsActive = false
	_, _, err = svc.Login(context.Background(), "ana@allfit.test", "password123")
	require.ErrorIs(t, err, ErrAccountDisabled)
}
