package solutions

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ChuLiYu/aoc-runner/pkg/types"
)

const target = 2020

// ReportRepair solves 2020 day 1: find the entries that sum to 2020 and
// multiply them (two entries for part 1, three for part 2).
func ReportRepair() types.Solver {
	return types.NewSolver(parseExpenses, pairProduct, tripleProduct)
}

func parseExpenses(raw string) ([]int, error) {
	fields := strings.Fields(raw)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("expense %q: %w", f, err)
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// twoSum scans a sorted slice from both ends.
func twoSum(sorted []int, sum int) (int, int, bool) {
	i, j := 0, len(sorted)-1
	for i < j {
		switch s := sorted[i] + sorted[j]; {
		case s == sum:
			return sorted[i], sorted[j], true
		case s < sum:
			i++
		default:
			j--
		}
	}
	return 0, 0, false
}

func pairProduct(expenses []int) (any, error) {
	a, b, ok := twoSum(expenses, target)
	if !ok {
		return nil, errors.New("no pair sums to 2020")
	}
	return a * b, nil
}

func tripleProduct(expenses []int) (any, error) {
	for i, a := range expenses {
		if b, c, ok := twoSum(expenses[i+1:], target-a); ok {
			return a * b * c, nil
		}
	}
	return nil, errors.New("no triple sums to 2020")
}
