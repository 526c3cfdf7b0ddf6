package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/calegray/storefront/entity"
	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	inErrors "github.com/calegray/storefront/internal/errors"
	inHttp "github.com/calegray/storefront/internal/http"
	"github.com/calegray/storefront/internal/log"
	"github.com/calegray/storefront/internal/middleware"
	inOtel "github.com/calegray/storefront/internal/otel"
	"github.com/calegray/storefront/internal/user/request"
	"github.com/calegray/storefront/internal/user/service"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/user/controller")

type UserController struct {
	service *service.UserService
}

func AttachUserController(
	router *mux.Router,
	svc *service.UserService,
	cfg config.Application,
) {
	controller := UserController{service: svc}

	r := router.PathPrefix("/users").Subrouter()
	r.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", controller.ResetPassword).Methods(http.MethodPost)

	authed := router.PathPrefix("/users").Subrouter()
	authed.Use(middleware.Auth(cfg))
	authed.HandleFunc("/logout", controller.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/{uid}", controller.GetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/{uid}", controller.UpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/{uid}/wishlist/add", controller.WishlistAdd).Methods(http.MethodPatch)
	authed.HandleFunc("/{uid}/wishlist/remove", controller.WishlistRemove).Methods(http.MethodPatch)
}

// allowed checks the path uid against the caller: profile routes are
// owner-or-admin.
func allowed(r *http.Request, uid string) bool {
	caller, err := common.UserIDFromContext(r.Context())
	if err != nil {
		return false
	}
	return caller == uid || common.RoleFromContext(r.Context()) == entity.RoleAdmin
}

func (t UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Register").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Register{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "registering user").
		Str(log.KeyEmail, reqBody.Email).
		Logger()
	logger.Info().Msg("registering user")
	c = logger.WithContext(c)
	user, err := t.service.Register(c, reqBody)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrEmailTaken) || errors.Is(err, inErrors.ErrWeakPassword) {
			statusCode = http.StatusBadRequest
		}
		err = fmt.Errorf("failed registering user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Str(log.KeyUserID, user.UID).Msg("registered user")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "user registered",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (t UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.Login{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "logging in").
		Str(log.KeyEmail, reqBody.Email).
		Logger()
	logger.Info().Msg("logging in")
	c = logger.WithContext(c)
	token, user, err := t.service.Login(c, reqBody)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrUserNotFound) || errors.Is(err, inErrors.ErrPasswordMismatch) {
			statusCode = http.StatusUnauthorized
		}
		err = fmt.Errorf("failed logging in with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Str(log.KeyUserID, user.UID).Msg("logged in")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logged in",
		"data": map[string]interface{}{
			"token": token,
			"user":  user,
		},
	})
}

// Logout is stateless server-side; the client discards its token. The
// handler exists so the session lifecycle is visible in traces.
func (t UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "UserController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController Logout").
		Logger()

	uid, _ := common.UserIDFromContext(c)
	logger.Info().Str(log.KeyUserID, uid).Msg("logged out")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logged out",
	})
}

func (t UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "UserController ResetPassword")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController ResetPassword").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.ResetPassword{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "resetting password").
		Str(log.KeyEmail, reqBody.Email).
		Logger()
	logger.Info().Msg("resetting password")
	c = logger.WithContext(c)
	if err := t.service.ResetPassword(c, reqBody.Email); err != nil {
		err = fmt.Errorf("failed resetting password with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("reset password dispatched")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "password reset dispatched",
	})
}

func (t UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "UserController GetProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController GetProfile").
		Logger()

	uid := mux.Vars(r)["uid"]
	if !allowed(r, uid) {
		inOtel.RecordError(inErrors.ErrForbidden, span)
		logger.Error().Err(inErrors.ErrForbidden).Msg(inErrors.ErrForbidden.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusForbidden,
			"message":    inErrors.ErrForbidden.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "finding profile").
		Str(log.KeyUserID, uid).
		Logger()
	logger.Info().Msg("finding profile")
	c = logger.WithContext(c)
	user, err := t.service.GetProfile(c, uid)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrUserNotFound) {
			statusCode = http.StatusNotFound
		}
		err = fmt.Errorf("failed finding profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("found profile")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "profile found",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (t UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, span := tracer.Start(r.Context(), "UserController UpdateProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController UpdateProfile").
		Logger()

	uid := mux.Vars(r)["uid"]
	if !allowed(r, uid) {
		inOtel.RecordError(inErrors.ErrForbidden, span)
		logger.Error().Err(inErrors.ErrForbidden).Msg(inErrors.ErrForbidden.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusForbidden,
			"message":    inErrors.ErrForbidden.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.UpdateProfile{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "updating profile").
		Str(log.KeyUserID, uid).
		Logger()
	logger.Info().Msg("updating profile")
	c = logger.WithContext(c)
	user, err := t.service.UpdateProfile(c, uid, reqBody)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrUserNotFound) {
			statusCode = http.StatusNotFound
		}
		err = fmt.Errorf("failed updating profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("updated profile")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "profile updated",
		"data": map[string]interface{}{
			"user": user,
		},
	})
}

func (t UserController) WishlistAdd(w http.ResponseWriter, r *http.Request) {
	t.wishlist(w, r, "WishlistAdd")
}

func (t UserController) WishlistRemove(w http.ResponseWriter, r *http.Request) {
	t.wishlist(w, r, "WishlistRemove")
}

func (t UserController) wishlist(w http.ResponseWriter, r *http.Request, op string) {
	c, span := tracer.Start(r.Context(), "UserController "+op)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserController "+op).
		Logger()

	uid := mux.Vars(r)["uid"]
	if !allowed(r, uid) {
		inOtel.RecordError(inErrors.ErrForbidden, span)
		logger.Error().Err(inErrors.ErrForbidden).Msg(inErrors.ErrForbidden.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusForbidden,
			"message":    inErrors.ErrForbidden.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.WishlistItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "toggling wishlist").
		Str(log.KeyUserID, uid).
		Str(log.KeyProductID, reqBody.ProductID).
		Logger()
	logger.Info().Msg("toggling wishlist")
	c = logger.WithContext(c)
	toggle := t.service.WishlistAdd
	if op == "WishlistRemove" {
		toggle = t.service.WishlistRemove
	}
	wishlist, err := toggle(c, uid, reqBody.ProductID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, inErrors.ErrUserNotFound) {
			statusCode = http.StatusNotFound
		}
		err = fmt.Errorf("failed toggling wishlist with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Strs(log.KeyWishlist, wishlist).Msg("toggled wishlist")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "wishlist updated",
		"data": map[string]interface{}{
			"wishlist": wishlist,
		},
	})
}
