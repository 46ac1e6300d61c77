package worker

// ============================================================================
// Worker Pool Test File
// Purpose: Verify compute execution, abort isolation, bounded concurrency
// ============================================================================

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sumSolver parses space separated ints; part1 = sum, part2 = product
func sumSolver() types.Solver {
	return types.NewSolver(
		func(raw string) ([]int, error) {
			var nums []int
			for _, f := range strings.Fields(raw) {
				n, err := strconv.Atoi(f)
				if err != nil {
					return nil, err
				}
				nums = append(nums, n)
			}
			return nums, nil
		},
		func(nums []int) (any, error) {
			s := 0
			for _, n := range nums {
				s += n
			}
			return s, nil
		},
		func(nums []int) (any, error) {
			p := 1
			for _, n := range nums {
				p *= n
			}
			return p, nil
		},
	)
}

// sleepSolver sleeps d during part1 and counts concurrent executions
func sleepSolver(d time.Duration, running, peak *int32) types.Solver {
	return types.NewSolver(
		func(raw string) (string, error) { return raw, nil },
		func(string) (any, error) {
			n := atomic.AddInt32(running, 1)
			for {
				old := atomic.LoadInt32(peak)
				if n <= old || atomic.CompareAndSwapInt32(peak, old, n) {
					break
				}
			}
			time.Sleep(d)
			atomic.AddInt32(running, -1)
			return "ok", nil
		},
		func(string) (any, error) { return "ok", nil },
	)
}

func startPool(t *testing.T, workers int) *Pool {
	t.Helper()
	pool := NewPool(16)
	require.NoError(t, pool.Start(workers))
	t.Cleanup(pool.Stop)
	return pool
}

var unit = types.UnitID{Year: 2020, Day: 1}

// ============================================================================
// Basic Functionality Tests
// ============================================================================

// TestNewPool tests creating Worker Pool
func TestNewPool(t *testing.T) {
	pool := NewPool(10)
	assert.NotNil(t, pool)
	assert.Equal(t, 0, pool.GetWorkerCount())
}

// TestPoolStart tests starting Worker Pool
func TestPoolStart(t *testing.T) {
	pool := NewPool(10)

	err := pool.Start(8)
	require.NoError(t, err)
	assert.Equal(t, 8, pool.GetWorkerCount())

	// Try to start again
	err = pool.Start(4)
	assert.Error(t, err)

	pool.Stop()
}

func TestPoolStartRejectsZeroWorkers(t *testing.T) {
	pool := NewPool(10)
	assert.Error(t, pool.Start(0))
}

// TestCompute tests a normal parse + solve
func TestCompute(t *testing.T) {
	pool := startPool(t, 2)

	res, err := pool.Compute(unit, sumSolver(), "1 2 3 4")
	require.NoError(t, err)

	assert.Equal(t, unit, res.Unit)
	assert.False(t, res.Aborted)
	assert.Equal(t, types.PartAnswer{Value: "10"}, res.Answers.Get(types.Part1))
	assert.Equal(t, types.PartAnswer{Value: "24"}, res.Answers.Get(types.Part2))
	assert.Greater(t, res.Duration, time.Duration(0))
}

// TestComputeParseError attaches the parse failure to both parts
func TestComputeParseError(t *testing.T) {
	pool := startPool(t, 1)

	res, err := pool.Compute(unit, sumSolver(), "1 two 3")
	require.NoError(t, err)

	for _, part := range types.Parts {
		var perr *ParseError
		require.ErrorAs(t, res.Answers.Get(part).Err, &perr)
		assert.Equal(t, unit, perr.Unit)
	}
}

// TestComputePartError keeps a solver error scoped to its own part
func TestComputePartError(t *testing.T) {
	pool := startPool(t, 1)
	boom := errors.New("no pair found")
	solver := types.NewSolver(
		func(raw string) (string, error) { return raw, nil },
		func(string) (any, error) { return nil, boom },
		func(string) (any, error) { return 7, nil },
	)

	res, err := pool.Compute(unit, solver, "")
	require.NoError(t, err)

	var cerr *ComputeError
	require.ErrorAs(t, res.Answers.Get(types.Part1).Err, &cerr)
	assert.Equal(t, types.Part1, cerr.Part)
	assert.ErrorIs(t, cerr, boom)
	assert.Equal(t, "7", res.Answers.Get(types.Part2).Value)
}

// ============================================================================
// Abort Isolation Tests
// ============================================================================

// TestComputePanic converts a part1 panic into an abort for both parts
func TestComputePanic(t *testing.T) {
	pool := startPool(t, 1)
	solver := types.NewSolver(
		func(raw string) (string, error) { return raw, nil },
		func(string) (any, error) {
			var m map[string]int
			m["x"] = 1 // nil map write
			return 0, nil
		},
		func(string) (any, error) { return 1, nil },
	)

	res, err := pool.Compute(unit, solver, "")
	require.NoError(t, err)
	assert.True(t, res.Aborted)

	for _, part := range types.Parts {
		var abort *ComputeAbortError
		require.ErrorAs(t, res.Answers.Get(part).Err, &abort)
		assert.Equal(t, unit, abort.Unit)
		assert.NotEmpty(t, abort.Stack)
	}

	// The single worker survives and serves the next task
	res, err = pool.Compute(unit, sumSolver(), "2 3")
	require.NoError(t, err)
	assert.Equal(t, "5", res.Answers.Get(types.Part1).Value)
}

// TestComputeGoexit treats runtime.Goexit in solver code as an abort
func TestComputeGoexit(t *testing.T) {
	pool := startPool(t, 1)
	solver := types.NewSolver(
		func(raw string) (string, error) {
			runtime.Goexit()
			return raw, nil
		},
		func(string) (any, error) { return 1, nil },
		func(string) (any, error) { return 2, nil },
	)

	res, err := pool.Compute(unit, solver, "")
	require.NoError(t, err)
	assert.True(t, res.Aborted)
	assert.ErrorIs(t, res.Answers.Get(types.Part2).Err, ErrGoexit)
	assert.Equal(t, 1, pool.GetWorkerCount())
}

// TestComputePanicWithError exposes an error panic value through Unwrap
func TestComputePanicWithError(t *testing.T) {
	pool := startPool(t, 1)
	sentinel := errors.New("invariant broken")
	solver := types.NewSolver(
		func(raw string) (string, error) { panic(sentinel) },
		nil, nil,
	)

	res, err := pool.Compute(unit, solver, "")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Answers.Get(types.Part1).Err, sentinel)
}

// ============================================================================
// Concurrency Tests
// ============================================================================

// TestBoundedConcurrency never runs more computes than workers
func TestBoundedConcurrency(t *testing.T) {
	const workers = 3
	pool := startPool(t, workers)

	var running, peak int32
	solver := sleepSolver(30*time.Millisecond, &running, &peak)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := pool.Compute(types.UnitID{Year: 2020, Day: i + 1}, solver, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(workers))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "computes should overlap")
}

// TestParallelSpeedup K tasks of time T on P workers take about ceil(K/P)*T
func TestParallelSpeedup(t *testing.T) {
	const (
		workers = 4
		tasks   = 8
		each    = 50 * time.Millisecond
	)
	pool := startPool(t, workers)

	var running, peak int32
	solver := sleepSolver(each, &running, &peak)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := pool.Compute(types.UnitID{Year: 2021, Day: i + 1}, solver, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ceil(8/4) * 50ms = 100ms; serial would be 400ms
	assert.Less(t, elapsed, time.Duration(tasks)*each*3/4)
	t.Logf("Computed %d tasks in %v with %d workers", tasks, elapsed, workers)
}

// ============================================================================
// Shutdown Tests
// ============================================================================

// TestStopBeforeStart tests stopping before starting
func TestStopBeforeStart(t *testing.T) {
	pool := NewPool(10)
	assert.NotPanics(t, func() {
		pool.Stop()
	})
}

// TestSubmitBeforeStart tests submitting before starting
func TestSubmitBeforeStart(t *testing.T) {
	pool := NewPool(10)
	_, err := pool.Compute(unit, sumSolver(), "1")
	assert.Equal(t, ErrPoolNotStarted, err)
}

// TestSubmitAfterStop tests submitting after shutdown
func TestSubmitAfterStop(t *testing.T) {
	pool := NewPool(10)
	require.NoError(t, pool.Start(2))
	pool.Stop()

	_, err := pool.Compute(unit, sumSolver(), "1")
	assert.Equal(t, ErrPoolClosed, err)

	// Stop is idempotent
	assert.NotPanics(t, pool.Stop)
}

// ============================================================================
// Benchmark Tests
// ============================================================================

// BenchmarkPoolCompute tests compute round trip overhead
func BenchmarkPoolCompute(b *testing.B) {
	pool := NewPool(1000)
	pool.Start(8)
	defer pool.Stop()

	solver := sumSolver()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Compute(unit, solver, fmt.Sprint(i))
	}
}
