package errors

import "errors"

var (
	ErrEmptyAuth        = errors.New("missing authorization")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrForbidden        = errors.New("insufficient role")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrWeakPassword     = errors.New(
		"password must be at least 8 characters with an uppercase letter, a digit and a special character",
	)
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartItemNotFound = errors.New("product not found in cart")
	ErrEmptyCart        = errors.New("cart is empty")
)
