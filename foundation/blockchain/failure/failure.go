// Package failure defines the kinds of errors raised by the ledger, wallet,
// nft, marketplace and referral packages. Every error returned by those
// packages wraps exactly one of these kinds so callers can use errors.Is.
package failure

import (
	"errors"
	"fmt"
)

// Set of error kinds.
var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrNotOwner          = errors.New("not owner")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyListed     = errors.New("already listed")
	ErrInvalidCode       = errors.New("invalid code")
	ErrSelfReferral      = errors.New("self referral")
	ErrPersistence       = errors.New("persistence")
)

// Validation constructs an error for malformed input.
func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

// NotFound constructs an error for an unknown wallet, nft, listing or auction.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// NotOwner constructs an error for an actor without authority over an item.
func NotOwner(format string, args ...any) error {
	return wrap(ErrNotOwner, format, args...)
}

// InsufficientFunds constructs an error for a balance below the required amount.
func InsufficientFunds(format string, args ...any) error {
	return wrap(ErrInsufficientFunds, format, args...)
}

// AlreadyListed constructs an error for an nft already in an active sale.
func AlreadyListed(format string, args ...any) error {
	return wrap(ErrAlreadyListed, format, args...)
}

// InvalidCode constructs an error for an unknown referral code.
func InvalidCode(format string, args ...any) error {
	return wrap(ErrInvalidCode, format, args...)
}

// SelfReferral constructs an error for a user applying their own code.
func SelfReferral(format string, args ...any) error {
	return wrap(ErrSelfReferral, format, args...)
}

// Persistence wraps a storage error. These are logged by the caller and
// never returned from a state changing operation.
func Persistence(err error, key string) error {
	return fmt.Errorf("%w: key %q: %w", ErrPersistence, key, err)
}

// Kind returns the kind wrapped by err or nil when err is not one of ours.
func Kind(err error) error {
	kinds := []error{
		ErrValidation,
		ErrNotFound,
		ErrNotOwner,
		ErrInsufficientFunds,
		ErrAlreadyListed,
		ErrInvalidCode,
		ErrSelfReferral,
		ErrPersistence,
	}

	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
