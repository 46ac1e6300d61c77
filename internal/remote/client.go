// Package remote maps the three judge operations onto the puzzle site and
// shields the network behind a caching decorator.
package remote

import (
	"context"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Client is the judge boundary consumed by the scheduler and validator.
type Client interface {
	// GetInput returns the raw puzzle input. The resource is immutable.
	GetInput(ctx context.Context, id types.UnitID) (string, error)

	// GetStatus returns the parsed status page for a unit.
	GetStatus(ctx context.Context, id types.UnitID) (types.StatusSnapshot, error)

	// PostAnswer submits a guess. Judge-side outcomes, including rate limiting
	// and expired sessions, are returned as a Verdict; the error is reserved
	// for transport and parse failures.
	PostAnswer(ctx context.Context, id types.UnitID, part types.Part, guess string) (Submission, error)
}

// Submission is the judge's response to a guess.
type Submission struct {
	Verdict types.Verdict
	Message string // judge's message text, whitespace collapsed
}
