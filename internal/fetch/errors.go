package fetch

import "codeberg.org/mutker/purpleair-exporter/internal/errors"

const (
	// ErrThrottled marks a 429 from the remote. Throttling is expected
	// steady-state behavior, not an error to count.
	ErrThrottled = errors.ErrorCode("fetch_throttled")

	// ErrFetch covers transport failures and non-2xx, non-429 statuses.
	ErrFetch = errors.ErrorCode("fetch_failed")
)

// IsThrottled reports whether err classifies as remote rate limiting.
func IsThrottled(err error) bool {
	return errors.CodeOf(err) == ErrThrottled
}
