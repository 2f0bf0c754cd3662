package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, disabled account and wrong
	// password alike, so error text cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)
