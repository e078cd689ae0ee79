package nlp

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is returned when analysis is switched off by
	// configuration. No network call is made.
	ErrDisabled = errors.New("nlp: analysis disabled")

	// ErrCircuitOpen is returned while the breaker cooldown is in effect.
	// Callers should skip dependent work instead of retrying.
	ErrCircuitOpen = errors.New("nlp: service unavailable (circuit open)")
)

// TransientError wraps a failure worth retrying: a transport error, a 5xx,
// or a 429 overload signal.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nlp: transient service error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("nlp: transient service error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps a 4xx response (other than 429) that retrying
// cannot fix.
type PermanentError struct {
	StatusCode int
	Body       string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("nlp: permanent service error (status %d)", e.StatusCode)
}

// Unavailable reports whether err means the analysis service cannot be
// used right now and the caller should proceed without it.
func Unavailable(err error) bool {
	if errors.Is(err, ErrDisabled) || errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var te *TransientError
	return errors.As(err, &te)
}
