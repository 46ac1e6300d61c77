package types

import "fmt"

// Solver is the uniform parse + compute-part capability every unit provides.
// The scheduler invokes it without knowing the concrete instance type.
type Solver interface {
	// Parse turns raw puzzle input into an instance.
	Parse(raw string) (any, error)

	// Solve computes one part for a parsed instance. The returned value is
	// stringified with fmt.Sprint before validation.
	Solve(instance any, part Part) (any, error)
}

// Unit pairs a UnitID with its solver. Units are registered in a fixed list
// at startup and never change for the lifetime of the process.
type Unit struct {
	ID     UnitID
	Solver Solver
}

// NewSolver adapts typed parse and part functions into a Solver.
func NewSolver[T any](parse func(string) (T, error), part1, part2 func(T) (any, error)) Solver {
	return &typedSolver[T]{parse: parse, parts: [2]func(T) (any, error){part1, part2}}
}

type typedSolver[T any] struct {
	parse func(string) (T, error)
	parts [2]func(T) (any, error)
}

func (s *typedSolver[T]) Parse(raw string) (any, error) {
	return s.parse(raw)
}

func (s *typedSolver[T]) Solve(instance any, part Part) (any, error) {
	in, ok := instance.(T)
	if !ok {
		return nil, fmt.Errorf("solver: unexpected instance type %T", instance)
	}
	fn := s.parts[part.index()]
	if fn == nil {
		return nil, fmt.Errorf("solver: %s not implemented", part)
	}
	return fn(in)
}
