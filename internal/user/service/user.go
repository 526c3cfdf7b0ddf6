package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	"github.com/calegray/storefront/internal/docstore"
	inErrors "github.com/calegray/storefront/internal/errors"
	"github.com/calegray/storefront/internal/log"
	inOtel "github.com/calegray/storefront/internal/otel"
	"github.com/calegray/storefront/internal/user/request"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/user/service")

type UserService struct {
	store docstore.Store
	cfg   config.Application
}

func NewUserService(store docstore.Store, cfg config.Application) UserService {
	return UserService{store: store, cfg: cfg}
}

// validatePassword enforces the sign-up policy: 8+ characters with an
// uppercase letter, a digit and a special character.
func validatePassword(password string) error {
	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSpecial = true
		}
	}
	if len(password) < 8 || !hasUpper || !hasDigit || !hasSpecial {
		return inErrors.ErrWeakPassword
	}
	return nil
}

func (s UserService) findByEmail(c context.Context, email string) (entity.User, bool, error) {
	raws, err := s.store.All(c, docstore.CollectionUsers)
	if err != nil {
		return entity.User{}, false, fmt.Errorf("failed listing users with error=%w", err)
	}
	for _, raw := range raws {
		user := entity.User{}
		if err := json.Unmarshal(raw, &user); err != nil {
			return entity.User{}, false, fmt.Errorf("failed decoding user document with error=%w", err)
		}
		if strings.EqualFold(user.Email, email) {
			return user, true, nil
		}
	}
	return entity.User{}, false, nil
}

// Register creates a client account; the username defaults to the local
// part of the email address.
func (s UserService) Register(c context.Context, reqBody request.Register) (entity.User, error) {
	c, span := tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, reqBody.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating password").Logger()
	if err := validatePassword(reqBody.Password); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.User{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "checking email").Logger()
	logger.Info().Msg("checking email is unregistered")
	_, taken, err := s.findByEmail(c, reqBody.Email)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.User{}, err
	}
	if taken {
		inOtel.RecordError(inErrors.ErrEmailTaken, span)
		logger.Error().Err(inErrors.ErrEmailTaken).Msg(inErrors.ErrEmailTaken.Error())
		return entity.User{}, inErrors.ErrEmailTaken
	}

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	hash, err := bcrypt.GenerateFromPassword([]byte(reqBody.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.User{}, err
	}

	now := time.Now()
	username, _, _ := strings.Cut(reqBody.Email, "@")
	user := entity.User{
		UID:          uuid.NewString(),
		Role:         entity.RoleClient,
		Username:     username,
		Email:        reqBody.Email,
		PasswordHash: string(hash),
		Addresses:    []string{},
		Wishlist:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	logger = logger.With().
		Str(log.KeyProcess, "inserting user").
		Str(log.KeyUserID, user.UID).
		Logger()
	logger.Info().Msg("inserting user")
	if err := s.store.Set(c, docstore.CollectionUsers, user.UID, user); err != nil {
		err = fmt.Errorf("failed inserting user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.User{}, err
	}
	logger.Info().Msg("inserted user")

	user.PasswordHash = ""
	return user, nil
}

// Login verifies the credentials and issues a signed token. Unknown
// emails and mismatched passwords are indistinguishable to the caller.
func (s UserService) Login(
	c context.Context,
	reqBody request.Login,
) (string, entity.User, error) {
	c, span := tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, reqBody.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user by email")
	user, found, err := s.findByEmail(c, reqBody.Email)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", entity.User{}, err
	}
	if !found {
		inOtel.RecordError(inErrors.ErrUserNotFound, span)
		logger.Error().Err(inErrors.ErrUserNotFound).Msg(inErrors.ErrUserNotFound.Error())
		return "", entity.User{}, inErrors.ErrUserNotFound
	}

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(reqBody.Password)); err != nil {
		inOtel.RecordError(inErrors.ErrPasswordMismatch, span)
		logger.Error().Err(err).Msg(inErrors.ErrPasswordMismatch.Error())
		return "", entity.User{}, inErrors.ErrPasswordMismatch
	}

	logger = logger.With().Str(log.KeyProcess, "creating token").Logger()
	logger.Info().Msg("creating token")
	token, err := common.CreateToken(s.cfg, user.UID, user.Role)
	if err != nil {
		err = fmt.Errorf("failed creating token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", entity.User{}, err
	}
	logger.Info().Str(log.KeyUserID, user.UID).Msg("created token")

	user.Normalize()
	user.PasswordHash = ""
	return token, user, nil
}

// ResetPassword records the dispatch; actual mail delivery is the
// provider's concern.
func (s UserService) ResetPassword(c context.Context, email string) error {
	c, span := tracer.Start(c, "UserService ResetPassword")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService ResetPassword").
		Str(log.KeyEmail, email).
		Str(log.KeyProcess, "recording password reset").
		Logger()

	logger.Info().Msg("recording password reset")
	record := map[string]any{
		"id":          uuid.NewString(),
		"email":       email,
		"requestedAt": time.Now(),
	}
	if err := s.store.Set(c, docstore.CollectionPasswordResets, record["id"].(string), record); err != nil {
		err = fmt.Errorf("failed recording password reset with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("recorded password reset")

	return nil
}

func (s UserService) findUser(c context.Context, uid string) (entity.User, error) {
	user := entity.User{}
	err := docstore.GetAs(c, s.store, docstore.CollectionUsers, uid, &user)
	if errors.Is(err, docstore.ErrNotFound) {
		return entity.User{}, inErrors.ErrUserNotFound
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("failed finding user with error=%w", err)
	}
	user.Normalize()
	return user, nil
}

func (s UserService) GetProfile(c context.Context, uid string) (entity.User, error) {
	c, span := tracer.Start(c, "UserService GetProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService GetProfile").
		Str(log.KeyUserID, uid).
		Str(log.KeyProcess, "finding user").
		Logger()

	logger.Info().Msg("finding user")
	user, err := s.findUser(c, uid)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.User{}, err
	}
	logger.Info().Msg("found user")

	user.PasswordHash = ""
	return user, nil
}

func (s UserService) UpdateProfile(
	c context.Context,
	uid string,
	reqBody request.UpdateProfile,
) (entity.User, error) {
	c, span := tracer.Start(c, "UserService UpdateProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService UpdateProfile").
		Str(log.KeyUserID, uid).
		Str(log.KeyProcess, "updating profile").
		Logger()

	fields := map[string]any{"updatedAt": time.Now()}
	if reqBody.Username != nil {
		fields["username"] = *reqBody.Username
	}
	if reqBody.Addresses != nil {
		fields["addresses"] = *reqBody.Addresses
	}

	logger.Info().Msg("updating profile")
	err := s.store.Update(c, docstore.CollectionUsers, uid, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		inOtel.RecordError(inErrors.ErrUserNotFound, span)
		logger.Error().Err(err).Msg(inErrors.ErrUserNotFound.Error())
		return entity.User{}, inErrors.ErrUserNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed updating profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return entity.User{}, err
	}
	logger.Info().Msg("updated profile")

	c = logger.WithContext(c)
	return s.GetProfile(c, uid)
}

// WishlistAdd toggles a product into the wishlist; adding a member
// twice is a no-op.
func (s UserService) WishlistAdd(c context.Context, uid string, productID string) ([]string, error) {
	c, span := tracer.Start(c, "UserService WishlistAdd")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService WishlistAdd").
		Str(log.KeyUserID, uid).
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "adding to wishlist").
		Logger()

	user, err := s.findUser(c, uid)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	if !slices.Contains(user.Wishlist, productID) {
		user.Wishlist = append(user.Wishlist, productID)
	}
	logger.Info().Msg("adding to wishlist")
	if err := s.saveWishlist(c, uid, user.Wishlist); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Strs(log.KeyWishlist, user.Wishlist).Msg("added to wishlist")

	return user.Wishlist, nil
}

// WishlistRemove filters a product out; removing a non-member is a
// no-op.
func (s UserService) WishlistRemove(c context.Context, uid string, productID string) ([]string, error) {
	c, span := tracer.Start(c, "UserService WishlistRemove")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService WishlistRemove").
		Str(log.KeyUserID, uid).
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "removing from wishlist").
		Logger()

	user, err := s.findUser(c, uid)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	wishlist := slices.DeleteFunc(user.Wishlist, func(id string) bool { return id == productID })
	logger.Info().Msg("removing from wishlist")
	if err := s.saveWishlist(c, uid, wishlist); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Strs(log.KeyWishlist, wishlist).Msg("removed from wishlist")

	return wishlist, nil
}

func (s UserService) saveWishlist(c context.Context, uid string, wishlist []string) error {
	fields := map[string]any{
		"wishlist":  wishlist,
		"updatedAt": time.Now(),
	}
	if err := s.store.Update(c, docstore.CollectionUsers, uid, fields); err != nil {
		return fmt.Errorf("failed saving wishlist with error=%w", err)
	}
	return nil
}
