// Package validator decides, per (unit, part), whether a computed answer is
// skipped, compared against a known answer, or submitted.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChuLiYu/aoc-runner/internal/remote"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// ErrAlreadySolved is reported when the judge says a part is solved although
// the status snapshot said otherwise.
var ErrAlreadySolved = errors.New("part already solved remotely; cached status was stale")

// MismatchError means the solver disagrees with a known-correct answer.
// It is a regression signal and is never submitted.
type MismatchError struct {
	Unit     types.UnitID
	Part     types.Part
	Expected string
	Computed string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s %s: computed %q, accepted answer is %q", e.Unit, e.Part, e.Computed, e.Expected)
}

// Options controls validation.
type Options struct {
	Mode       types.ValidationMode
	SkipSolved bool // skip parts the status marks solved
}

// Validator runs the per-part state machine.
type Validator struct {
	client remote.Client
	opts   Options
	log    *slog.Logger
}

// New creates a Validator. client is only used for submissions.
func New(client remote.Client, opts Options) *Validator {
	return &Validator{
		client: client,
		opts:   opts,
		log:    slog.Default().With("component", "validator"),
	}
}

// Options returns the validator's options.
func (v *Validator) Options() Options {
	return v.opts
}

// Skips reports whether part would be skipped without looking at any answer.
func (v *Validator) Skips(status types.StatusSnapshot, part types.Part) bool {
	return v.opts.SkipSolved && status.Get(part).Solved
}

// Validate drives one part to a terminal outcome.
func (v *Validator) Validate(ctx context.Context, id types.UnitID, part types.Part,
	status types.StatusSnapshot, answer types.PartAnswer) types.PartOutcome {

	st := status.Get(part)
	out := types.PartOutcome{
		Part:     part,
		Computed: answer.Value,
		Expected: st.Answer,
	}

	// 1. already solved and skipping: no comparison, no network
	if v.Skips(status, part) {
		out.Kind = types.OutcomeSkipped
		return out
	}

	if answer.Err != nil {
		out.Kind = types.OutcomeFailed
		out.Err = answer.Err
		return out
	}

	// 2. solved with a revealed answer: compare locally
	if st.Solved && st.Answer != "" {
		if normalize(answer.Value) == normalize(st.Answer) {
			out.Kind = types.OutcomeCorrect
			return out
		}
		out.Kind = types.OutcomeMismatch
		out.Err = &MismatchError{Unit: id, Part: part, Expected: st.Answer, Computed: answer.Value}
		v.log.Warn("Computed answer contradicts accepted answer",
			"unit", id, "part", part, "computed", answer.Value, "expected", st.Answer)
		return out
	}

	// 3. unknown answer
	if v.opts.Mode == types.ModeDryRun {
		out.Kind = types.OutcomeDryRun
		return out
	}
	return v.submit(ctx, id, part, out)
}

func (v *Validator) submit(ctx context.Context, id types.UnitID, part types.Part, out types.PartOutcome) types.PartOutcome {
	v.log.Info("Submitting answer", "unit", id, "part", part, "answer", out.Computed)

	sub, err := v.client.PostAnswer(ctx, id, part, out.Computed)
	if err != nil {
		out.Kind = types.OutcomeFailed
		out.Err = fmt.Errorf("submit %s %s: %w", id, part, err)
		return out
	}
	out.Verdict = sub.Verdict

	switch {
	case sub.Verdict == types.VerdictAccepted:
		out.Kind = types.OutcomeAccepted
	case sub.Verdict.IsRejection():
		out.Kind = types.OutcomeRejected
		out.Err = remote.VerdictError(sub.Verdict, sub.Message)
	case sub.Verdict == types.VerdictRateLimited:
		out.Kind = types.OutcomeRateLimited
		out.Err = remote.VerdictError(sub.Verdict, sub.Message)
	case sub.Verdict == types.VerdictAuthExpired:
		out.Kind = types.OutcomeAuthExpired
		out.Err = remote.ErrAuthExpired
	case sub.Verdict == types.VerdictAlreadySolved:
		out.Kind = types.OutcomeAlreadySolved
		out.Err = ErrAlreadySolved
	default:
		out.Kind = types.OutcomeFailed
		out.Err = fmt.Errorf("unknown verdict %q", sub.Verdict)
	}

	v.log.Info("Submission verdict", "unit", id, "part", part, "verdict", sub.Verdict)
	return out
}

func normalize(s string) string {
	return strings.TrimSpace(s)
}
