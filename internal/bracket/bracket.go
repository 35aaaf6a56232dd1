// Package bracket locates the interval of an ordered sequence that contains a
// query key. Queries outside the covered range are clamped to the first or
// last interval and flagged through Placement; they are never errors.
package bracket

import (
	"cmp"
	"errors"
	"sort"
)

// ErrNoInterval is returned for sequences with fewer than two keys.
var ErrNoInterval = errors.New("bracket: sequence has fewer than two keys")

// Placement tells where the query fell relative to the sequence.
type Placement int

const (
	// Inside means k[Lo] <= q < k[Hi].
	Inside Placement = iota
	// BeforeFirst means q < k[0]; the interval is the first one.
	BeforeFirst
	// AfterLast means q >= k[n-1]; the interval is the last one.
	AfterLast
	// Between means q fell in a gap between two spans (Span only).
	Between
)

func (p Placement) String() string {
	switch p {
	case Inside:
		return "inside"
	case BeforeFirst:
		return "before-first"
	case AfterLast:
		return "after-last"
	case Between:
		return "between"
	default:
		return "unknown"
	}
}

// Interval is a validated pair of consecutive indices, Hi == Lo+1.
type Interval struct {
	Lo, Hi    int
	Placement Placement
}

// Edge returns the single index a clamp-to-edge caller should use: Lo when
// the query precedes the sequence or lies inside, Hi when it follows it.
func (iv Interval) Edge() int {
	if iv.Placement == AfterLast {
		return iv.Hi
	}
	return iv.Lo
}

// Clamped reports whether the query was outside the covered range.
func (iv Interval) Clamped() bool {
	return iv.Placement == BeforeFirst || iv.Placement == AfterLast
}

// Linear walks the n keys in order and returns the first interval with
// key(i) <= q < key(i+1). It is used for time-indexed records where exact
// equality at boundaries is not expected.
func Linear[K any](n int, key func(int) K, compare func(a, b K) int, q K) (Interval, error) {
	if n < 2 {
		return Interval{}, ErrNoInterval
	}
	for i := 0; i < n-1; i++ {
		if compare(key(i), q) <= 0 && compare(q, key(i+1)) < 0 {
			return Interval{Lo: i, Hi: i + 1, Placement: Inside}, nil
		}
	}
	if compare(q, key(0)) < 0 {
		return Interval{Lo: 0, Hi: 1, Placement: BeforeFirst}, nil
	}
	return Interval{Lo: n - 2, Hi: n - 1, Placement: AfterLast}, nil
}

// Sorted performs an upper-bound search over strictly increasing keys.
func Sorted[K cmp.Ordered](keys []K, q K) (Interval, error) {
	n := len(keys)
	if n < 2 {
		return Interval{}, ErrNoInterval
	}
	// idx is the number of keys <= q.
	idx := sort.Search(n, func(i int) bool { return keys[i] > q })
	switch {
	case idx == 0:
		return Interval{Lo: 0, Hi: 1, Placement: BeforeFirst}, nil
	case idx == n:
		return Interval{Lo: n - 2, Hi: n - 1, Placement: AfterLast}, nil
	default:
		return Interval{Lo: idx - 1, Hi: idx, Placement: Inside}, nil
	}
}

// SortedBy is Sorted for records whose key is extracted by a function.
func SortedBy[K cmp.Ordered](n int, key func(int) K, q K) (Interval, error) {
	if n < 2 {
		return Interval{}, ErrNoInterval
	}
	idx := sort.Search(n, func(i int) bool { return key(i) > q })
	switch {
	case idx == 0:
		return Interval{Lo: 0, Hi: 1, Placement: BeforeFirst}, nil
	case idx == n:
		return Interval{Lo: n - 2, Hi: n - 1, Placement: AfterLast}, nil
	default:
		return Interval{Lo: idx - 1, Hi: idx, Placement: Inside}, nil
	}
}

// Span returns the index of the first of n half-open spans [lo, hi) that
// contains q. When none does, the first span is used if q precedes it, and
// otherwise the last span starting at or before q. n must be at least 1;
// a single span is returned as is.
func Span[K any](n int, bounds func(int) (lo, hi K), compare func(a, b K) int, q K) (int, Placement) {
	if n <= 0 {
		return -1, BeforeFirst
	}
	for i := 0; i < n; i++ {
		lo, hi := bounds(i)
		if compare(lo, q) <= 0 && compare(q, hi) < 0 {
			return i, Inside
		}
	}
	if first, _ := bounds(0); compare(q, first) < 0 {
		return 0, BeforeFirst
	}
	for i := n - 1; i >= 0; i-- {
		lo, _ := bounds(i)
		if compare(lo, q) <= 0 {
			if i == n-1 {
				return i, AfterLast
			}
			return i, Between
		}
	}
	return n - 1, AfterLast
}
