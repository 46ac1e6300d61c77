package worker

// ============================================================================
// Compute Error Definitions
// Purpose: Typed errors produced at the compute boundary
// ============================================================================

import (
	"errors"
	"fmt"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// Predefined errors
var (
	// ErrPoolClosed 表示當前 Pool 已關閉，無法提交新任務
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrPoolNotStarted 表示 Pool 尚未啟動，無法提交任務
	ErrPoolNotStarted = errors.New("worker pool not started")
	// ErrGoexit indicates solver code called runtime.Goexit
	ErrGoexit = errors.New("solver goroutine exited without returning")
)

// ParseError wraps a solver's failure to parse its input. It is attached to
// both parts of the unit.
type ParseError struct {
	Unit types.UnitID
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Unit, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ComputeError is a solver-reported failure for one part.
type ComputeError struct {
	Unit types.UnitID
	Part types.Part
	Err  error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute %s %s: %v", e.Unit, e.Part, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}

// ComputeAbortError is an abnormal termination of solver code caught at the
// worker edge. It is attached to both parts of the unit.
type ComputeAbortError struct {
	Unit  types.UnitID
	Value any    // recovered panic value
	Stack []byte // stack of the aborted goroutine
}

func (e *ComputeAbortError) Error() string {
	return fmt.Sprintf("compute %s aborted: %v", e.Unit, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *ComputeAbortError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
