// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/cosmicspace/cisp/foundation/blockchain/failure"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// IsTrusted checks if an error of type RequestError exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the RequestError pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// FromDomain maps an error raised by the core packages to a trusted error
// carrying the matching HTTP status. Errors of an unknown kind are returned
// unchanged and reported as internal errors.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}

	status, ok := statuses[failure.Kind(err)]
	if !ok {
		return err
	}

	return NewTrusted(err, status)
}

// statuses maps each domain error kind to its HTTP status.
var statuses = map[error]int{
	failure.ErrValidation:        http.StatusBadRequest,
	failure.ErrInvalidCode:       http.StatusBadRequest,
	failure.ErrSelfReferral:      http.StatusBadRequest,
	failure.ErrNotFound:          http.StatusNotFound,
	failure.ErrNotOwner:          http.StatusForbidden,
	failure.ErrInsufficientFunds: http.StatusPaymentRequired,
	failure.ErrAlreadyListed:     http.StatusConflict,
}
