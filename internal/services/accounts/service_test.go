package accounts

import (
	"context"
	"testing"

	"microsite-app/internal/apperr"
	"microsite-app/internal/domain/users"
	"microsite-app/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, "secret")
	ctx := context.Background()

	u, err := svc.Register(ctx, "Kim", " Kim@Example.com ", "passw0rdx")
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", u.Email)
	assert.NotEqual(t, "passw0rdx", u.Password)
	assert.Equal(t, users.RoleUser, u.Role)

	_, err = svc.Register(ctx, "Kim", "kim@example.com", "passw0rdx")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	token, _, err := svc.Login(ctx, "kim@example.com", "passw0rdx")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "kim@example.com", claims["email"])
	assert.EqualValues(t, u.ID, claims["user_id"])

	_, _, err = svc.Login(ctx, "kim@example.com", "wrong-pass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "passw0rdx")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(testutil.NewDB(t), "secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "not-an-email", "passw0rdx")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Register(ctx, "", "a@example.com", "short1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Register(ctx, "", "a@example.com", "lettersonly")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestChangePasswordAndPromote(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, "secret")
	ctx := context.Background()

	u, err := svc.Register(ctx, "Lee", "lee@example.com", "passw0rdx")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "bad", "n3wpassword"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "passw0rdx", "n3wpassword"))
	_, _, err = svc.Login(ctx, "lee@example.com", "n3wpassword")
	assert.NoError(t, err)

	require.NoError(t, svc.Promote(ctx, "lee@example.com", users.RoleAdmin))
	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, svc.Promote(ctx, "ghost@example.com", users.RoleAdmin), apperr.ErrNotFound)
}
