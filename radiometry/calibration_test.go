package radiometry

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/sar-geolocation/model"
)

func twoLineVectors() []model.CalibrationVector {
	return []model.CalibrationVector{
		{Line: 0, Pixels: []int{0, 1000}, SigmaNought: []float64{1, 2}, BetaNought: []float64{10, 20}},
		{Line: 1000, Pixels: []int{0, 1000}, SigmaNought: []float64{3, 4}, BetaNought: []float64{30, 40}},
	}
}

func mustCalibration(t *testing.T, kind CalibrationKind, vectors []model.CalibrationVector, opts ...CalibrationOption) *CalibrationLUT {
	t.Helper()
	l, err := NewCalibrationLUT(kind, vectors, opts...)
	if err != nil {
		t.Fatalf("NewCalibrationLUT: %v", err)
	}
	return l
}

func TestCalibrationBilinearCentre(t *testing.T) {
	l := mustCalibration(t, SigmaNought, twoLineVectors())
	if got := l.Value(500, 500); math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("Value(500, 500) = %v, want 2.5", got)
	}
	beta := mustCalibration(t, BetaNought, twoLineVectors())
	if got := beta.Value(500, 500); math.Abs(got-25) > 1e-12 {
		t.Fatalf("beta Value(500, 500) = %v, want 25", got)
	}
}

func TestCalibrationExactAtGridPoints(t *testing.T) {
	vectors := []model.CalibrationVector{
		{Line: 0, Pixels: []int{0, 40, 200, 1000}, Gamma: []float64{5, 6, 7, 8}},
		{Line: 300, Pixels: []int{0, 300, 1000}, Gamma: []float64{1.5, 2.5, 3.5}},
		{Line: 1200, Pixels: []int{0, 10, 600, 1000}, Gamma: []float64{9, 9.5, 11, 12}},
	}
	l := mustCalibration(t, Gamma, vectors)
	for _, v := range vectors {
		for i, p := range v.Pixels {
			if got := l.Value(float64(p), float64(v.Line)); math.Abs(got-v.Gamma[i]) > 1e-12 {
				t.Fatalf("line %d pixel %d: got %v, want %v", v.Line, p, got, v.Gamma[i])
			}
		}
	}
}

func TestCalibrationClampsOutsideGrid(t *testing.T) {
	l := mustCalibration(t, SigmaNought, twoLineVectors())
	cases := []struct {
		pixel, line, want float64
	}{
		{-100, -100, 1},
		{2000, -5, 2},
		{-1, 5000, 3},
		{1e6, 1e6, 4},
		{500, -1, 1.5},
	}
	for _, tc := range cases {
		if got := l.Value(tc.pixel, tc.line); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("Value(%v, %v) = %v, want %v", tc.pixel, tc.line, got, tc.want)
		}
	}
}

func TestCalibrationDegenerateTables(t *testing.T) {
	empty := mustCalibration(t, SigmaNought, nil)
	if got := empty.Value(10, 10); got != 1 {
		t.Fatalf("empty table: got %v, want 1", got)
	}
	single := mustCalibration(t, SigmaNought, twoLineVectors()[1:])
	if got := single.Value(250, -40); math.Abs(got-3.25) > 1e-12 {
		t.Fatalf("single vector: got %v, want 3.25", got)
	}
}

func TestNewCalibrationLUTValidation(t *testing.T) {
	unsorted := twoLineVectors()
	unsorted[1].Line = 0
	missing := twoLineVectors()
	badPixels := twoLineVectors()
	badPixels[0].Pixels = []int{10, 10}

	cases := []struct {
		name    string
		kind    CalibrationKind
		vectors []model.CalibrationVector
	}{
		{"duplicate lines", SigmaNought, unsorted},
		{"kind not annotated", DN, missing},
		{"pixels not increasing", SigmaNought, badPixels},
		{"unknown kind", CalibrationKind(9), twoLineVectors()},
	}
	for _, tc := range cases {
		if _, err := NewCalibrationLUT(tc.kind, tc.vectors); !errors.Is(err, ErrInvalidLUT) {
			t.Fatalf("%s: expected ErrInvalidLUT, got %v", tc.name, err)
		}
	}
}

func TestParseCalibrationKind(t *testing.T) {
	for in, want := range map[string]CalibrationKind{
		"sigma0": SigmaNought, "SigmaNought": SigmaNought, "beta0": BetaNought,
		"Gamma": Gamma, "dn": DN,
	} {
		got, err := ParseCalibrationKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseCalibrationKind(%q) = %v, %v; want %v", in, got, err, want)
		}
		if back, _ := ParseCalibrationKind(got.String()); back != got {
			t.Fatalf("%v does not round trip through String", got)
		}
	}
	if _, err := ParseCalibrationKind("theta"); err == nil {
		t.Fatalf("expected an error for an unknown kind")
	}
}
