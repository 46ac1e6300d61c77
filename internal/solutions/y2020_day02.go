package solutions

import (
	"fmt"
	"strings"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

// policy is one "1-3 a: abcde" line.
type policy struct {
	lo, hi   int
	letter   byte
	password string
}

// PasswordPhilosophy solves 2020 day 2: count passwords valid under the
// occurrence-range policy (part 1) and the exactly-one-position policy (part 2).
func PasswordPhilosophy() types.Solver {
	return types.NewSolver(parsePolicies, countByRange, countByPosition)
}

func parsePolicies(raw string) ([]policy, error) {
	var out []policy
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || len(fields[1]) != 2 || fields[1][1] != ':' {
			return nil, fmt.Errorf("policy %q: want \"LO-HI L: PASSWORD\"", line)
		}
		var p policy
		if _, err := fmt.Sscanf(fields[0], "%d-%d", &p.lo, &p.hi); err != nil {
			return nil, fmt.Errorf("policy %q: %w", line, err)
		}
		if p.lo < 1 || p.lo > p.hi {
			return nil, fmt.Errorf("policy %q: bad range", line)
		}
		p.letter = fields[1][0]
		p.password = fields[2]
		out = append(out, p)
	}
	return out, nil
}

func countByRange(policies []policy) (any, error) {
	valid := 0
	for _, p := range policies {
		n := strings.Count(p.password, string(p.letter))
		if n >= p.lo && n <= p.hi {
			valid++
		}
	}
	return valid, nil
}

func countByPosition(policies []policy) (any, error) {
	valid := 0
	for _, p := range policies {
		at := func(pos int) bool {
			return pos <= len(p.password) && p.password[pos-1] == p.letter
		}
		if at(p.lo) != at(p.hi) {
			valid++
		}
	}
	return valid, nil
}
