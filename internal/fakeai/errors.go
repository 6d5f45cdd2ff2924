package fakeai

import "errors"

// Sentinel errors for the fabrication domain. Handlers convert these to the
// OpenAI error envelope at the HTTP boundary (see internal/server).
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
	ErrContextOverflow = errors.New("context length exceeded")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrCancelled       = errors.New("cancelled")
	ErrOverload        = errors.New("overloaded")
	ErrInternal        = errors.New("internal error")
)

// Kind maps a sentinel (or wrapped sentinel) error to its ErrorKind. Unknown
// errors classify as internal -- an invariant violation should never occur,
// per §7, but handlers must still shape a response.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrKindValidation
	case errors.Is(err, ErrUnauthorized):
		return ErrKindAuth
	case errors.Is(err, ErrRateLimited):
		return ErrKindRateLimit
	case errors.Is(err, ErrContextOverflow):
		return ErrKindContextOverflow
	case errors.Is(err, ErrNotFound):
		return ErrKindNotFound
	case errors.Is(err, ErrTimeout):
		return ErrKindTimeout
	case errors.Is(err, ErrCancelled):
		return ErrKindCancelled
	case errors.Is(err, ErrOverload):
		return ErrKindOverload
	default:
		return ErrKindInternal
	}
}
