package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/ChuLiYu/aoc-runner/internal/remote"
	"github.com/ChuLiYu/aoc-runner/internal/remote/remotetest"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day1 = types.UnitID{Year: 2020, Day: 1}

func solvedPart1(answer string) types.StatusSnapshot {
	var s types.StatusSnapshot
	s.Set(types.Part1, types.PartStatus{Solved: true, Answer: answer})
	return s
}

func TestSkipSolved(t *testing.T) {
	fake := remotetest.New()
	v := New(fake, Options{SkipSolved: true})
	status := solvedPart1("42")

	out := v.Validate(context.Background(), day1, types.Part1, status, types.PartAnswer{Value: "43"})
	assert.Equal(t, types.OutcomeSkipped, out.Kind)
	assert.NoError(t, out.Err)
	assert.Zero(t, fake.PostCount())

	// Skipping happens before any compute error is looked at
	out = v.Validate(context.Background(), day1, types.Part1, status, types.PartAnswer{Err: errors.New("x")})
	assert.Equal(t, types.OutcomeSkipped, out.Kind)

	assert.True(t, v.Skips(status, types.Part1))
	assert.False(t, v.Skips(status, types.Part2))
}

func TestKnownAnswerMatches(t *testing.T) {
	fake := remotetest.New()
	v := New(fake, Options{})

	out := v.Validate(context.Background(), day1, types.Part1, solvedPart1("42"), types.PartAnswer{Value: "42"})
	assert.Equal(t, types.OutcomeCorrect, out.Kind)
	assert.Equal(t, "42", out.Expected)
	assert.Zero(t, fake.PostCount())
}

// TestMismatchDetection solver disagrees with a known answer: no submission
func TestMismatchDetection(t *testing.T) {
	fake := remotetest.New()
	v := New(fake, Options{})

	out := v.Validate(context.Background(), day1, types.Part1, solvedPart1("42"), types.PartAnswer{Value: "43"})
	assert.Equal(t, types.OutcomeMismatch, out.Kind)
	assert.False(t, out.Kind.Success())

	var mismatch *MismatchError
	require.ErrorAs(t, out.Err, &mismatch)
	assert.Equal(t, "42", mismatch.Expected)
	assert.Equal(t, "43", mismatch.Computed)
	assert.Zero(t, fake.PostCount(), "a mismatch must never be submitted")
}

func TestDryRunComparesKnownAnswers(t *testing.T) {
	fake := remotetest.New()
	v := New(fake, Options{Mode: types.ModeDryRun})

	out := v.Validate(context.Background(), day1, types.Part1, solvedPart1("42"), types.PartAnswer{Value: "43"})
	assert.Equal(t, types.OutcomeMismatch, out.Kind)

	out = v.Validate(context.Background(), day1, types.Part2, solvedPart1("42"), types.PartAnswer{Value: "7"})
	assert.Equal(t, types.OutcomeDryRun, out.Kind)
	assert.Equal(t, "7", out.Computed)
	assert.Zero(t, fake.PostCount())
}

func TestSolvedWithoutAnswerIsSubmitted(t *testing.T) {
	fake := remotetest.New()
	v := New(fake, Options{})
	var status types.StatusSnapshot
	status.Set(types.Part1, types.PartStatus{Solved: true})

	out := v.Validate(context.Background(), day1, types.Part1, status, types.PartAnswer{Value: "1"})
	assert.Equal(t, types.OutcomeAccepted, out.Kind)
	assert.Equal(t, 1, fake.PostCount())
}

func TestComputeErrorNeverSubmitted(t *testing.T) {
	fake := remotetest.New()
	v := New(fake, Options{})
	boom := errors.New("boom")

	out := v.Validate(context.Background(), day1, types.Part2, types.StatusSnapshot{}, types.PartAnswer{Err: boom})
	assert.Equal(t, types.OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, boom)
	assert.Zero(t, fake.PostCount())
}

func TestSubmissionVerdicts(t *testing.T) {
	testCases := []struct {
		verdict types.Verdict
		kind    types.OutcomeKind
		wantErr error
	}{
		{types.VerdictAccepted, types.OutcomeAccepted, nil},
		{types.VerdictRejectedTooHigh, types.OutcomeRejected, nil},
		{types.VerdictRejectedTooLow, types.OutcomeRejected, nil},
		{types.VerdictRejectedOther, types.OutcomeRejected, nil},
		{types.VerdictRateLimited, types.OutcomeRateLimited, remote.ErrRateLimited},
		{types.VerdictAuthExpired, types.OutcomeAuthExpired, remote.ErrAuthExpired},
		{types.VerdictAlreadySolved, types.OutcomeAlreadySolved, ErrAlreadySolved},
	}

	for _, tc := range testCases {
		t.Run(string(tc.verdict), func(t *testing.T) {
			fake := remotetest.New()
			fake.SetVerdict(day1, types.Part1, tc.verdict)
			v := New(fake, Options{})

			out := v.Validate(context.Background(), day1, types.Part1, types.StatusSnapshot{}, types.PartAnswer{Value: "514579"})
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.verdict, out.Verdict)
			assert.Equal(t, 1, fake.PostCount(), "exactly one submission, no retry")

			if tc.wantErr != nil {
				assert.ErrorIs(t, out.Err, tc.wantErr)
			}
			if tc.verdict.IsRejection() {
				var rejected *remote.SubmissionRejectedError
				require.ErrorAs(t, out.Err, &rejected)
				assert.Equal(t, tc.verdict, rejected.Verdict)
			}
		})
	}
}

func TestSubmissionNetworkError(t *testing.T) {
	fake := remotetest.New()
	fake.PostErr = remote.ErrNetwork
	v := New(fake, Options{})

	out := v.Validate(context.Background(), day1, types.Part1, types.StatusSnapshot{}, types.PartAnswer{Value: "1"})
	assert.Equal(t, types.OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, remote.ErrNetwork)
}

// TestScenarioNormalAndDryRun 2020/1 sample answers
func TestScenarioNormalAndDryRun(t *testing.T) {
	answers := map[types.Part]string{types.Part1: "514579", types.Part2: "241861950"}

	fake := remotetest.New()
	normal := New(fake, Options{Mode: types.ModeNormal})
	status := types.StatusSnapshot{}
	for _, part := range types.Parts {
		out := normal.Validate(context.Background(), day1, part, status, types.PartAnswer{Value: answers[part]})
		assert.Equal(t, types.OutcomeAccepted, out.Kind)
	}
	require.Len(t, fake.Posts, 2)
	assert.Equal(t, "514579", fake.Posts[0].Guess)
	assert.Equal(t, "241861950", fake.Posts[1].Guess)

	dryFake := remotetest.New()
	dry := New(dryFake, Options{Mode: types.ModeDryRun})
	for _, part := range types.Parts {
		out := dry.Validate(context.Background(), day1, part, status, types.PartAnswer{Value: answers[part]})
		assert.Equal(t, types.OutcomeDryRun, out.Kind)
		assert.Equal(t, answers[part], out.Computed)
	}
	assert.Zero(t, dryFake.PostCount())
}
