package remote

// ============================================================================
// Remote Error Definitions
// Purpose: Error taxonomy for the judge boundary
// ============================================================================

import (
	"errors"
	"fmt"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Predefined errors
var (
	// ErrNetwork indicates a transport failure or an unexpected HTTP status
	ErrNetwork = errors.New("remote: network failure")

	// ErrAuthExpired indicates the session cookie was rejected
	ErrAuthExpired = errors.New("remote: authentication expired")

	// ErrParse indicates a malformed or unrecognised remote response
	ErrParse = errors.New("remote: unexpected response")

	// ErrRateLimited indicates the judge refused a submission for being too soon.
	// It is never retried by this layer.
	ErrRateLimited = errors.New("remote: rate limited")

	// ErrCacheReadBack indicates a freshly fetched input could not be read back
	// from the cache store
	ErrCacheReadBack = errors.New("remote: cached input could not be read back")
)

// SubmissionRejectedError carries the judge's reason for a wrong guess
type SubmissionRejectedError struct {
	Verdict types.Verdict // RejectedTooHigh, RejectedTooLow or RejectedOther
	Reason  string        // judge's message, whitespace collapsed
}

func (e *SubmissionRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("remote: submission rejected (%s)", e.Verdict)
	}
	return fmt.Sprintf("remote: submission rejected (%s): %s", e.Verdict, e.Reason)
}

// VerdictError maps a non-accepted verdict to the matching error
func VerdictError(v types.Verdict, reason string) error {
	switch {
	case v == types.VerdictAccepted:
		return nil
	case v.IsRejection():
		return &SubmissionRejectedError{Verdict: v, Reason: reason}
	case v == types.VerdictRateLimited:
		if reason != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, reason)
		}
		return ErrRateLimited
	case v == types.VerdictAuthExpired:
		return ErrAuthExpired
	default:
		return fmt.Errorf("remote: %s", v)
	}
}
