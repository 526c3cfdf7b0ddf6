package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	inErrors "github.com/calegray/storefront/internal/errors"
	inHttp "github.com/calegray/storefront/internal/http"
	"github.com/calegray/storefront/internal/log"
)

// Auth rejects requests without a valid bearer token.
func Auth(cfg config.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware Auth").
				Logger()
			c := logger.WithContext(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrEmptyAuth.Error(),
				})
				return
			}

			claims, err := common.VerifyToken(c, token, cfg)
			if err != nil {
				logger.Error().Err(err).Msg(inErrors.ErrTokenInvalid.Error())
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    inErrors.ErrTokenInvalid.Error(),
				})
				return
			}

			c = common.AttachClaimsToContext(c, claims)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// AuthOptional attaches claims when a valid token is present and lets
// the request through as a guest otherwise. Cart endpoints use it so the
// same handlers serve guest and authenticated sessions.
func AuthOptional(cfg config.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware AuthOptional").
				Logger()
			c := logger.WithContext(r.Context())

			if token, ok := bearerToken(r); ok {
				claims, err := common.VerifyToken(c, token, cfg)
				if err == nil {
					c = common.AttachClaimsToContext(c, claims)
				} else {
					logger.Warn().Err(err).Msg("ignoring invalid token, continuing as guest")
				}
			}

			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		token, ok = strings.CutPrefix(authorization, "bearer ")
	}
	return token, ok && token != ""
}
