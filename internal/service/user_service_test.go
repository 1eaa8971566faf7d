package service

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUserFixture() (UserService, *fakeUserRepo, Caller, Caller, Caller) {
	coachID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	repo := newFakeUserRepo(
		&domain.User{ID: coachID, Role: domain.RoleCoach, Email: "coach@allfit.test", IsActive: true},
		&domain.User{ID: adminID, Role: domain.RoleAdmin, Email: "admin@allfit.test", IsActive: true},
		&domain.User{ID: clientID, Role: domain.RoleClient, Email: "client@allfit.test", FirstName: "Ana", IsActive: true},
	)
	svc := NewUserService(repo, testLogger())
	return svc,
		repo,
		Caller{ID: coachID, Role: domain.RoleCoach},
		Caller{ID: adminID, Role: domain.RoleAdmin},
		Caller{ID: clientID, Role: domain.RoleClient}
}

func TestListUsersRequiresElevatedAccess(t *testing.T) {
	svc, _, coach, _, client := newUserFixture()

	_, err := svc.List(context.Background(), client, repository.UserFilter{})
	require.ErrorIs(t, err, ErrPermission)

	users, err := svc.List(context.Background(), coach, repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 3)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestGetUserSelfOrElevated(t *testing.T) {
	svc, _, coach, _, client := newUserFixture()

	_, err := svc.Get(context.Background(), client, coach.ID)
	require.ErrorIs(t, err, ErrPermission)

	me, err := svc.Get(context.Background(), client, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.FirstName)

	_, err = svc.Get(context.Background(), coach, client.ID)
	require.NoError(t, err)
}

func TestCreateUserRoleRules(t *testing.T) {
	svc, _, coach, admin, client := newUserFixture()

	input := CreateUserInput{FirstName: "New", LastName: "User", Email: "new@allfit.test", Password: "password123"}

	_, err := svc.Create(context.Background(), client, input)
	require.ErrorIs(t, err, ErrPermission)

	created, err := svc.Create(context.Background(), admin, input)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, created.Role)

	// only a coach may provision elevated accounts
	elevated := input
	elevated.Email = "coach2@allfit.test"
	elevated.Role = domain.RoleCoach
	_, err = svc.Create(context.Background(), admin, elevated)
	require.ErrorIs(t, err, ErrPermission)

	created, err = svc.Create(context.Background(), coach, elevated)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCoach, created.Role)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, coach.ID, *created.CreatedBy)
}

func TestUpdateUserGuardsRoleAndStatus(t *testing.T) {
	svc, _, coach, _, client := newUserFixture()

	// self-edit of profile fields is fine
	phone := "+385911234567"
	updated, err := svc.Update(context.Background(), client, client.ID, UserUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)

	// but clients cannot escalate themselves or toggle their status
	coachRole := domain.RoleCoach
	_, err = svc.Update(context.Background(), client, client.ID, UserUpdate{Role: &coachRole})
	require.ErrorIs(t, err, ErrPermission)

	inactive := false
	_, err = svc.Update(context.Background(), client, client.ID, UserUpdate{IsActive: &inactive})
	require.ErrorIs(t, err, ErrPermission)

	updated, err = svc.Update(context.Background(), coach, client.ID, UserUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestDeleteUserCoachOnly(t *testing.T) {
	svc, _, coach, admin, client := newUserFixture()

	err := svc.Delete(context.Background(), client, client.ID)
	require.ErrorIs(t, err, ErrPermission)

	// stricter than the usual elevated gate: admins cannot delete
	err = svc.Delete(context.Background(), admin, client.ID)
	require.ErrorIs(t, err, ErrPermission)

	err = svc.Delete(context.Background(), coach, client.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), coach, client.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
