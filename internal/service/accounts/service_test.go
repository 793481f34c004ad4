package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biostorex/internal/auth"
	"biostorex/internal/config"
	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
	"biostorex/internal/repository/memory"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.New()
	tokens := auth.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewService(store, tokens, zap.NewNop()), store
}

func TestRegisterForcesStudentRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		UserName: "Jordan42", FullName: "Jordan Lee", Email: "Jordan@Example.com", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "jordan42", user.UserName)
	assert.Equal(t, "jordan@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{
		UserName: "keeper", FullName: "K", Email: "k@example.com", Password: "pw", Role: "Storekeeper",
	})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Other", Email: "other@example.com", Password: "pw123456"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{UserName: "other", FullName: "Other", Email: "sam@example.com", Password: "pw123456"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)

	user, pair, err := svc.Login(ctx, "sam", "", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, pair.RefreshToken, user.RefreshToken)

	// Login by email works too.
	_, _, err = svc.Login(ctx, "", "sam@example.com", "pw123456")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "sam", "", "wrong")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, _, err = svc.Login(ctx, "ghost", "", "pw123456")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBlacklistedLoginRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	student, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)

	admin := &models.User{ID: "adm", Role: models.RoleAdmin, IsActive: true}
	_, err = svc.SetActive(ctx, admin, student.ID, false)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "sam", "", "pw123456")
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestRefreshRotation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, pair, err := svc.Login(ctx, "sam", "", "pw123456")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	_, err = svc.Refresh(ctx, "garbage")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Refresh(ctx, "")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)
	user, pair, err := svc.Login(ctx, "sam", "", "pw123456")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user))

	stored, err := store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	// A logged-out refresh token no longer matches the stored one.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user, "wrong", "newpw12345")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, user, "pw123456", "newpw12345"))

	_, _, err = svc.Login(ctx, "sam", "", "newpw12345")
	assert.NoError(t, err)
}

func TestUpdateProfileUniqueness(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{UserName: "taken", FullName: "A", Email: "a@example.com", Password: "pw123456"})
	require.NoError(t, err)
	user, err := svc.Register(ctx, RegisterInput{UserName: "sam", FullName: "Sam", Email: "sam@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, user, "taken", "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	updated, err := svc.UpdateProfile(ctx, user, "", "Sam L.")
	require.NoError(t, err)
	assert.Equal(t, "Sam L.", updated.FullName)
}

func TestAddStorekeeper(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	admin := &models.User{ID: "adm", Role: models.RoleAdmin, IsActive: true}

	keeper, err := svc.AddStorekeeper(ctx, admin, RegisterInput{
		UserName: "keeper", FullName: "Keeper", Email: "keeper@example.com", Password: "pw123456",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStorekeeper, keeper.Role)

	// Storekeepers cannot provision their own kind.
	_, err = svc.AddStorekeeper(ctx, keeper, RegisterInput{
		UserName: "keeper2", FullName: "K2", Email: "k2@example.com", Password: "pw123456",
	})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestEnsureDefaultAdminIdempotent(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	cfg := config.AdminConfig{UserName: "admin", FullName: "System Administrator", Email: "admin@biostorex.com", Password: "Admin@123"}

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, cfg))
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, cfg))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)

	var admins int
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
