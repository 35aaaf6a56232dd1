// Package radiometry interpolates the sparse radiometric lookup tables
// annotated with SAR products: calibration vectors and thermal noise.
//
// Every interpolator is read-only after construction and safe for
// concurrent use. Queries outside the annotated grid are clamped to the
// edge vectors; a table with no vectors at all evaluates to 1.
package radiometry

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/sar-geolocation/internal/bracket"
)

// ErrInvalidLUT is returned when a vector list violates the ordering or
// length invariants of a lookup table.
var ErrInvalidLUT = errors.New("radiometry: invalid lookup table")

// identity is the value of an empty table.
const identity = 1.0

// gridValue bilinearly interpolates over n rows keyed by line. row evaluates
// row i at pixel. A single row is interpolated along pixel only.
func gridValue(n int, lineOf func(i int) int, row func(i int, pixel float64) float64, pixel, line float64) float64 {
	switch n {
	case 0:
		return identity
	case 1:
		return row(0, pixel)
	}
	iv, err := bracket.SortedBy(n, func(i int) float64 { return float64(lineOf(i)) }, line)
	if err != nil {
		return identity
	}
	muY := fraction(float64(lineOf(iv.Lo)), float64(lineOf(iv.Hi)), line)
	return lerp(row(iv.Lo, pixel), row(iv.Hi, pixel), muY)
}

// rowValue linearly interpolates values along strictly increasing keys.
func rowValue(keys []int, values []float64, q float64) float64 {
	switch len(values) {
	case 0:
		return identity
	case 1:
		return values[0]
	}
	iv, err := bracket.SortedBy(len(keys), func(i int) float64 { return float64(keys[i]) }, q)
	if err != nil {
		return values[0]
	}
	mu := fraction(float64(keys[iv.Lo]), float64(keys[iv.Hi]), q)
	return lerp(values[iv.Lo], values[iv.Hi], mu)
}

// fraction returns the position of q between a and b, clamped to [0, 1].
func fraction(a, b, q float64) float64 {
	if b == a {
		return 0
	}
	return min(max((q-a)/(b-a), 0), 1)
}

func lerp(a, b, mu float64) float64 { return a + mu*(b-a) }

// checkRow validates one annotated row.
func checkRow(what string, index int, pixels []int, values []float64) error {
	if len(values) != len(pixels) {
		return fmt.Errorf("%s %d: %d values for %d pixels: %w", what, index, len(values), len(pixels), ErrInvalidLUT)
	}
	for i := 1; i < len(pixels); i++ {
		if pixels[i] <= pixels[i-1] {
			return fmt.Errorf("%s %d: pixel %d not after %d: %w", what, index, pixels[i], pixels[i-1], ErrInvalidLUT)
		}
	}
	return nil
}

// checkLines validates that n row lines are strictly increasing.
func checkLines(what string, n int, lineOf func(i int) int) error {
	for i := 1; i < n; i++ {
		if lineOf(i) <= lineOf(i-1) {
			return fmt.Errorf("%s %d: line %d not after %d: %w", what, i, lineOf(i), lineOf(i-1), ErrInvalidLUT)
		}
	}
	return nil
}
