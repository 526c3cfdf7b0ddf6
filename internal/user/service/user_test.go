package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/config"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
	"github.com/calegray/storefront/internal/user/request"
)

func newService() UserService {
	return NewUserService(docstore.NewMemoryStore(), config.Application{SecretKey: "test-secret"})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "meets policy", password: "Str0ng!pass", wantErr: false},
		{name: "too short", password: "S7!a", wantErr: true},
		{name: "no uppercase", password: "weak1pass!", wantErr: true},
		{name: "no digit", password: "Weakpass!", wantErr: true},
		{name: "no special", password: "Weakpass1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, inErrors.ErrWeakPassword)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegisterDefaultsUsernameToEmailLocalPart(t *testing.T) {
	svc := newService()

	user, err := svc.Register(context.Background(), request.Register{
		Email:    "ada.lovelace@example.com",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada.lovelace", user.Username)
	assert.Equal(t, entity.RoleClient, user.Role)
	assert.NotEmpty(t, user.UID)
	assert.Empty(t, user.PasswordHash, "hash never leaves the service")
	assert.Empty(t, user.Addresses)
	assert.Empty(t, user.Wishlist)
}

func TestRegisterDuplicateEmailFails(t *testing.T) {
	svc := newService()
	c := context.Background()

	_, err := svc.Register(c, request.Register{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	_, err = svc.Register(c, request.Register{Email: "A@B.com", Password: "Str0ng!pass"})
	assert.ErrorIs(t, err, inErrors.ErrEmailTaken, "email comparison is case-insensitive")
}

func TestLoginIssuesToken(t *testing.T) {
	svc := newService()
	c := context.Background()

	registered, err := svc.Register(c, request.Register{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	token, user, err := svc.Login(c, request.Login{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, registered.UID, user.UID)
	assert.Empty(t, user.PasswordHash)
}

func TestLoginUnknownEmailFails(t *testing.T) {
	svc := newService()

	_, _, err := svc.Login(context.Background(), request.Login{Email: "a@b.com", Password: "Str0ng!pass"})
	assert.ErrorIs(t, err, inErrors.ErrUserNotFound)
}

func TestLoginWrongPasswordFails(t *testing.T) {
	svc := newService()
	c := context.Background()

	_, err := svc.Register(c, request.Register{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	_, _, err = svc.Login(c, request.Login{Email: "a@b.com", Password: "Wr0ng!pass"})
	assert.ErrorIs(t, err, inErrors.ErrPasswordMismatch)
}

func TestGetProfileAbsentReturnsNotFound(t *testing.T) {
	svc := newService()

	_, err := svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, inErrors.ErrUserNotFound)
}

func TestUpdateProfileMergesOnlySetFields(t *testing.T) {
	svc := newService()
	c := context.Background()

	registered, err := svc.Register(c, request.Register{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	addresses := []string{gofakeit.Street()}
	updated, err := svc.UpdateProfile(c, registered.UID, request.UpdateProfile{Addresses: &addresses})
	require.NoError(t, err)

	assert.Equal(t, addresses, updated.Addresses)
	assert.Equal(t, registered.Username, updated.Username, "unset fields stay untouched")
}

func TestWishlistAddIsSetSemantics(t *testing.T) {
	svc := newService()
	c := context.Background()

	registered, err := svc.Register(c, request.Register{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	wishlist, err := svc.WishlistAdd(c, registered.UID, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, wishlist)

	wishlist, err = svc.WishlistAdd(c, registered.UID, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, wishlist, "adding a member twice is a no-op")
}

func TestWishlistRemoveIsIdempotent(t *testing.T) {
	svc := newService()
	c := context.Background()

	registered, err := svc.Register(c, request.Register{Email: "a@b.com", Password: "Str0ng!pass"})
	require.NoError(t, err)

	_, err = svc.WishlistAdd(c, registered.UID, "p1")
	require.NoError(t, err)

	wishlist, err := svc.WishlistRemove(c, registered.UID, "p1")
	require.NoError(t, err)
	assert.Empty(t, wishlist)

	wishlist, err = svc.WishlistRemove(c, registered.UID, "p1")
	require.NoError(t, err)
	assert.Empty(t, wishlist)
}

func TestResetPasswordRecordsDispatch(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewUserService(store, config.Application{SecretKey: "test-secret"})
	c := context.Background()

	require.NoError(t, svc.ResetPassword(c, "a@b.com"))

	records, err := store.All(c, docstore.CollectionPasswordResets)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
