// ============================================================================
// aoc-runner Worker - Compute Execution Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: Executes solver code for one unit at a time
//
// How it works:
//   Each Worker is an independent goroutine that loops:
//   1. Receive task from taskCh (blocking wait)
//   2. Run parse + both parts in a child goroutine
//   3. Send result to the task's own reply channel
//   4. Exit when the pool is stopped
//
// Abort isolation:
//   Solver code runs in a child goroutine whose deferred handler converts a
//   panic or runtime.Goexit into a ComputeAbortError for both parts. The
//   worker goroutine itself never runs solver code, so it survives any abort
//   and the pool keeps its fixed size.
//
// ============================================================================

package worker

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Worker represents a compute execution unit
type Worker struct {
	id     int             // Worker unique identifier, used for logging and debugging
	taskCh <-chan Task     // Task channel (read-only)
	stopCh <-chan struct{} // Closed when the pool stops
}

// newWorker creates a new Worker instance
func newWorker(id int, taskCh <-chan Task, stopCh <-chan struct{}) *Worker {
	return &Worker{
		id:     id,
		taskCh: taskCh,
		stopCh: stopCh,
	}
}

// Run is the main loop of Worker
func (w *Worker) Run() {
	for {
		select {
		case <-w.stopCh:
			return
		case task := <-w.taskCh:
			// reply has capacity 1, never blocks
			task.reply <- w.execute(task)
		}
	}
}

// execute runs solver code in a child goroutine and waits for it
func (w *Worker) execute(task Task) Result {
	start := time.Now()
	done := make(chan Result, 1)

	go func() {
		res := Result{Unit: task.Unit}
		finished := false
		defer func() {
			r := recover()
			if r != nil || !finished {
				if r == nil {
					r = ErrGoexit
				}
				res.Answers = types.FailAll(&ComputeAbortError{
					Unit:  task.Unit,
					Value: r,
					Stack: debug.Stack(),
				})
				res.Aborted = true
			}
			done <- res
		}()

		res.Answers = solve(task)
		finished = true
	}()

	res := <-done
	res.Duration = time.Since(start)
	return res
}

// solve parses the input once and computes each part independently
func solve(task Task) types.ComputeResult {
	instance, err := task.Solver.Parse(task.Input)
	if err != nil {
		return types.FailAll(&ParseError{Unit: task.Unit, Err: err})
	}

	var out types.ComputeResult
	for _, part := range types.Parts {
		v, err := task.Solver.Solve(instance, part)
		if err != nil {
			out.Set(part, types.PartAnswer{Err: &ComputeError{Unit: task.Unit, Part: part, Err: err}})
			continue
		}
		if v == nil {
			out.Set(part, types.PartAnswer{Err: &ComputeError{Unit: task.Unit, Part: part,
				Err: fmt.Errorf("solver returned no value")}})
			continue
		}
		out.Set(part, types.PartAnswer{Value: fmt.Sprint(v)})
	}
	return out
}
