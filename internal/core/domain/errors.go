package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")

	ErrCartNotFound       = errors.New("cart not found")
	ErrCheckoutInProgress = errors.New("checkout already in progress")

	ErrReceiptNotFound = errors.New("receipt not found")
)
