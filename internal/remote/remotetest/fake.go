// Package remotetest provides an in-memory judge for tests.
package remotetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ChuLiYu/aoc-runner/internal/remote"
	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Post records one PostAnswer call.
type Post struct {
	Unit  types.UnitID
	Part  types.Part
	Guess string
}

// FakeClient is a remote.Client backed by maps. An accepted guess marks the
// part solved with that answer, like the real site.
type FakeClient struct {
	mu sync.Mutex

	Inputs    map[types.UnitID]string
	Statuses  map[types.UnitID]types.StatusSnapshot
	Verdicts  map[types.UnitID]map[types.Part]types.Verdict // default: accepted
	InputErr  map[types.UnitID]error
	StatusErr map[types.UnitID]error
	PostErr   error
	Delay     time.Duration // applied to every call

	InputCalls  int
	StatusCalls int
	Posts       []Post
}

// New returns an empty FakeClient.
func New() *FakeClient {
	return &FakeClient{
		Inputs:    make(map[types.UnitID]string),
		Statuses:  make(map[types.UnitID]types.StatusSnapshot),
		Verdicts:  make(map[types.UnitID]map[types.Part]types.Verdict),
		InputErr:  make(map[types.UnitID]error),
		StatusErr: make(map[types.UnitID]error),
	}
}

// SetVerdict fixes the verdict returned for a part.
func (f *FakeClient) SetVerdict(id types.UnitID, part types.Part, v types.Verdict) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Verdicts[id] == nil {
		f.Verdicts[id] = make(map[types.Part]types.Verdict)
	}
	f.Verdicts[id][part] = v
}

func (f *FakeClient) sleep() {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
}

func (f *FakeClient) GetInput(_ context.Context, id types.UnitID) (string, error) {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InputCalls++
	if err := f.InputErr[id]; err != nil {
		return "", err
	}
	in, ok := f.Inputs[id]
	if !ok {
		return "", fmt.Errorf("%w: no input for %s", remote.ErrNetwork, id)
	}
	return in, nil
}

func (f *FakeClient) GetStatus(_ context.Context, id types.UnitID) (types.StatusSnapshot, error) {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusCalls++
	if err := f.StatusErr[id]; err != nil {
		return types.StatusSnapshot{}, err
	}
	return f.Statuses[id], nil
}

func (f *FakeClient) PostAnswer(_ context.Context, id types.UnitID, part types.Part, guess string) (remote.Submission, error) {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Posts = append(f.Posts, Post{Unit: id, Part: part, Guess: guess})
	if f.PostErr != nil {
		return remote.Submission{}, f.PostErr
	}

	v := types.VerdictAccepted
	if byPart, ok := f.Verdicts[id]; ok {
		if fixed, ok := byPart[part]; ok {
			v = fixed
		}
	}
	if v == types.VerdictAccepted {
		snap := f.Statuses[id]
		snap.Set(part, types.PartStatus{Solved: true, Answer: guess})
		f.Statuses[id] = snap
	}
	return remote.Submission{Verdict: v, Message: string(v)}, nil
}

// PostCount returns the number of PostAnswer calls so far.
func (f *FakeClient) PostCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Posts)
}

// Calls returns input and status call counts.
func (f *FakeClient) Calls() (input, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InputCalls, f.StatusCalls
}
