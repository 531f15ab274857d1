package provider

import "errors"

var (
	// ErrNoPrice means every price fallback for an instrument was exhausted.
	ErrNoPrice = errors.New("provider: no price available")
	// ErrAllFetchesFailed is the batch-level outcome when a non-empty input
	// produced not a single resolved quote (and no systemic failure).
	ErrAllFetchesFailed = errors.New("provider: all fetches failed")
	// ErrInsufficientData means a series was structurally valid but empty.
	ErrInsufficientData = errors.New("provider: insufficient data")
)

// SystemicError wraps a transport-level failure that indicates the data
// source itself is down. A batch fails fast on it instead of marking every
// remaining item absent one at a time.
type SystemicError struct {
	Err error
}

func (e *SystemicError) Error() string { return "provider: source unreachable: " + e.Err.Error() }

func (e *SystemicError) Unwrap() error { return e.Err }

// IsSystemic reports whether err carries a SystemicError anywhere in its
// chain.
func IsSystemic(err error) bool {
	var se *SystemicError
	return errors.As(err, &se)
}
