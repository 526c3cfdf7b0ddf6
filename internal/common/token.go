package common

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/calegray/storefront/internal/config"
	inErrors "github.com/calegray/storefront/internal/errors"
	"github.com/calegray/storefront/internal/log"
)

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func CreateToken(cfg config.Application, uid string, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{AudienceStorefront},
				Issuer:    AppStorefront,
				Subject:   uid,
				ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			Role: role,
		},
	)
	return token.SignedString([]byte(cfg.SecretKey))
}

func VerifyToken(c context.Context, token string, cfg config.Application) (*Claims, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Logger()

	claims := &Claims{}
	jwtToken, err := jwt.ParseWithClaims(token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.SecretKey), nil
		},
		jwt.WithAudience(AudienceStorefront),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(AppStorefront),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing with claims with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if !jwtToken.Valid {
		logger.Error().Err(inErrors.ErrTokenInvalid).Msg(inErrors.ErrTokenInvalid.Error())
		return nil, inErrors.ErrTokenInvalid
	}

	return claims, nil
}

type claimsKey struct{}

func AttachClaimsToContext(c context.Context, claims *Claims) context.Context {
	return context.WithValue(c, claimsKey{}, claims)
}

func ClaimsFromContext(c context.Context) *Claims {
	claims, _ := c.Value(claimsKey{}).(*Claims)
	return claims
}

// UserIDFromContext returns the authenticated subject, or ErrEmptyAuth
// when the request carried no valid token.
func UserIDFromContext(c context.Context) (string, error) {
	claims := ClaimsFromContext(c)
	if claims == nil || claims.Subject == "" {
		return "", inErrors.ErrEmptyAuth
	}
	return claims.Subject, nil
}

func RoleFromContext(c context.Context) string {
	claims := ClaimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.Role
}
