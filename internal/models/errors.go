package models

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the request boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindValidation
	KindConflict
	KindInsufficientFunds
	KindNotFound
	KindForbidden
	KindRateLimited
)

// Domain errors
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrFactionNotFound    = errors.New("faction not found")
	ErrFactionNameTaken   = errors.New("faction name already taken")
	ErrAlreadyInFaction   = errors.New("user already belongs to a faction")
	ErrForbidden          = errors.New("permission denied")
	ErrRateLimited        = errors.New("too many requests")
	ErrTokenCollision     = errors.New("api token already assigned")
)

// InsufficientFundsError reports a debit larger than the balance.
type InsufficientFundsError struct {
	Required  int
	Available int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, available %d", e.Required, e.Available)
}

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid returns a ValidationError with the given message.
func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var funds *InsufficientFundsError
	var invalid *ValidationError
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &funds):
		return KindInsufficientFunds
	case errors.As(err, &invalid):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return KindUnauthenticated
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrFactionNameTaken), errors.Is(err, ErrAlreadyInFaction):
		return KindConflict
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrFactionNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}
