package service

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidPayload       ErrorKind = "INVALID_PAYLOAD"
	KindProductsUnavailable  ErrorKind = "PRODUCTS_UNAVAILABLE"
	KindInvalidPromoCode     ErrorKind = "INVALID_PROMO_CODE"
	KindRateLimited          ErrorKind = "RATE_LIMIT_EXCEEDED"
	KindMissingSignature     ErrorKind = "MISSING_SIGNATURE"
	KindInvalidSignature     ErrorKind = "INVALID_SIGNATURE"
	KindServerMisconfigured  ErrorKind = "SERVER_MISCONFIGURED"
	KindPaymentProviderError ErrorKind = "PAYMENT_PROVIDER_ERROR"
	KindPersistenceFailure   ErrorKind = "PERSISTENCE_FAILURE"
	KindNotFound             ErrorKind = "NOT_FOUND"
)

// Error is a classified failure. Message is safe to show to callers;
// Err carries the internal cause and is never rendered.
type Error struct {
	Kind    ErrorKind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the kind onto the HTTP status used by the checkout surface.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidPayload, KindProductsUnavailable, KindInvalidPromoCode,
		KindMissingSignature, KindInvalidSignature:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
