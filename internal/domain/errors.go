package domain

import "errors"

// ErrorKind classifies failures surfaced in result envelopes.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindRateNotFound       ErrorKind = "rate_not_found"
	KindInvalidRate        ErrorKind = "invalid_rate"
	KindStorage            ErrorKind = "storage_error"
	KindModelNotConfigured ErrorKind = "model_not_configured"
	KindCacheUnavailable   ErrorKind = "cache_unavailable"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateNotFound       = errors.New("rate not found")
	ErrInvalidRate        = errors.New("invalid rate")
	ErrStorage            = errors.New("storage error")
	ErrModelNotConfigured = errors.New("model not configured")
	ErrCacheUnavailable   = errors.New("cache unavailable")
)

var sentinels = map[ErrorKind]error{
	KindInvalidInput:       ErrInvalidInput,
	KindRateNotFound:       ErrRateNotFound,
	KindInvalidRate:        ErrInvalidRate,
	KindStorage:            ErrStorage,
	KindModelNotConfigured: ErrModelNotConfigured,
	KindCacheUnavailable:   ErrCacheUnavailable,
}

// Error is a classified failure. Info is the human readable description
// copied into envelope error.info.
type Error struct {
	Kind ErrorKind
	Info string
	Err  error
}

func NewError(kind ErrorKind, info string) *Error {
	return &Error{Kind: kind, Info: info}
}

// WrapError classifies err, keeping its message as Info.
func WrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Info: err.Error(), Err: err}
}

func (e *Error) Error() string { return e.Info }

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the same kind, so errors.Is(err, ErrRateNotFound) works.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf reports the kind of err, defaulting to KindStorage for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind
		}
	}
	return KindStorage
}
