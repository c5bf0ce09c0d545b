package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation_error")
	ErrInvalidUsername    = fmt.Errorf("%w: invalid_username", ErrValidation)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid_password", ErrValidation)
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrInvalidSession     = errors.New("invalid session")
)
