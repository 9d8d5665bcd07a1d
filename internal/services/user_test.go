package services

import (
	"context"
	"testing"

	"github.com/Victor-talka/talka-history/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	cfg := testConfig(t)
	return NewUserService(newTestDB(t, cfg), cfg, zap.NewNop())
}

func strptr(s string) *string { return &s }

func TestCreateUserAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{Username: "  maria ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "maria", user.Username)
	assert.Equal(t, UserTypeUser, user.UserType)
	assert.Equal(t, UserStatusActive, user.Status)
	assert.NotEqual(t, "s3cret", user.Password)

	got, err := svc.Login(ctx, "maria", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "maria", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateUser(ctx, CreateUserInput{Username: "maria", Password: "x"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.CreateUser(ctx, CreateUserInput{Username: "joao", Password: "x", UserType: "root"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserInput{Status: strptr(UserStatusInactive)})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateUser(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	a, err := svc.CreateUser(ctx, CreateUserInput{Username: "a", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserInput{Username: "b", Password: "pw"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, a.ID, UpdateUserInput{Password: strptr("new"), UserType: strptr(UserTypeAdmin)})
	require.NoError(t, err)
	assert.Equal(t, UserTypeAdmin, updated.UserType)

	_, err = svc.Login(ctx, "a", "new")
	assert.NoError(t, err)

	_, err = svc.UpdateUser(ctx, a.ID, UpdateUserInput{Username: strptr("b")})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.UpdateUser(ctx, a.ID, UpdateUserInput{Status: strptr("banned")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateUser(ctx, 404, UpdateUserInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	cfg := testConfig(t)
	db := newTestDB(t, cfg)
	svc := NewUserService(db, cfg, zap.NewNop())
	importSvc := NewImportService(db, cfg, zap.NewNop())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{Username: "carla", Password: "pw"})
	require.NoError(t, err)
	runImport(t, importSvc, user.ID, sampleCSV)
	runImport(t, importSvc, user.ID+1, sampleCSV)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	var conversations, messages int64
	require.NoError(t, db.Model(&models.Conversation{}).Where("user_id = ?", user.ID).Count(&conversations).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&messages).Error)
	assert.Zero(t, conversations)
	assert.Equal(t, int64(4), messages)

	_, err = svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, UserTypeAdmin, admin.UserType)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID), ErrForbidden)
}
