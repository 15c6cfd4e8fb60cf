package ngram

import (
	"fmt"
	"slices"
)

type selectionKind uint8

const (
	selectAll selectionKind = iota
	selectOne
	selectSet
)

// Selection chooses which orders (or skips) an aggregate or enumeration
// covers: all of them, exactly one, or an explicit set. The zero value
// selects all.
type Selection struct {
	kind   selectionKind
	values []int
}

// All selects every order (or skip) within the collection's bounds
func All() Selection {
	return Selection{kind: selectAll}
}

// Only selects a single order (or skip)
func Only(v int) Selection {
	return Selection{kind: selectOne, values: []int{v}}
}

// Set selects an explicit set of orders (or skips). Duplicates are ignored;
// the resolved values are visited in ascending order.
func Set(values ...int) Selection {
	return Selection{kind: selectSet, values: slices.Clone(values)}
}

// IsAll reports whether the selection covers the full range
func (s Selection) IsAll() bool {
	return s.kind == selectAll
}

// resolve turns the selection into concrete values within [lo, hi].
// Values outside the range are an invalid argument.
func (s Selection) resolve(what string, lo, hi int) ([]int, error) {
	if s.kind == selectAll {
		out := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			out = append(out, v)
		}
		return out, nil
	}

	out := make([]int, 0, len(s.values))
	for _, v := range s.values {
		if v < lo || v > hi {
			return nil, fmt.Errorf("%w: %s is outside of [%d, %d]: %d", ErrInvalidArgument, what, lo, hi, v)
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// String renders the selection for logs
func (s Selection) String() string {
	switch s.kind {
	case selectOne:
		return fmt.Sprintf("only(%d)", s.values[0])
	case selectSet:
		return fmt.Sprintf("set%v", s.values)
	default:
		return "all"
	}
}
