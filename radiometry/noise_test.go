package radiometry

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/sar-geolocation/model"
)

func testNoise(t *testing.T) *NoiseLUT {
	t.Helper()
	rng := []model.RangeNoiseVector{
		{Line: 0, Pixels: []int{0, 1000}, Values: []float64{100, 200}},
		{Line: 1000, Pixels: []int{0, 500, 1000}, Values: []float64{300, 350, 400}},
	}
	az := []model.AzimuthNoiseVector{
		{Swath: "IW1", FirstAzimuthLine: 0, LastAzimuthLine: 999, FirstRangeSample: 0, LastRangeSample: 499, Lines: []int{0, 999}, Values: []float64{1, 0.5}},
		{Swath: "IW2", FirstAzimuthLine: 0, LastAzimuthLine: 999, FirstRangeSample: 500, LastRangeSample: 999, Lines: []int{100}, Values: []float64{0.8}},
	}
	l, err := NewNoiseLUT(rng, az)
	if err != nil {
		t.Fatalf("NewNoiseLUT: %v", err)
	}
	return l
}

func TestNoiseCombinesRangeAndAzimuth(t *testing.T) {
	l := testNoise(t)
	cases := []struct {
		pixel, line   float64
		rng, az, want float64
	}{
		{0, 0, 100, 1, 100},
		{250, 999, 324.8, 0.5, 324.8 * 0.5},
		{750, 500, 275, 0.8, 275 * 0.8},
		// Outside both azimuth blocks: the range profile alone.
		{1200, 500, 300, 1, 300},
	}
	for _, tc := range cases {
		if got := l.RangeValue(tc.pixel, tc.line); math.Abs(got-tc.rng) > 1e-9 {
			t.Fatalf("RangeValue(%v, %v) = %v, want %v", tc.pixel, tc.line, got, tc.rng)
		}
		if got := l.AzimuthValue(tc.pixel, tc.line); math.Abs(got-tc.az) > 1e-12 {
			t.Fatalf("AzimuthValue(%v, %v) = %v, want %v", tc.pixel, tc.line, got, tc.az)
		}
		if got := l.Value(tc.pixel, tc.line); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Value(%v, %v) = %v, want %v", tc.pixel, tc.line, got, tc.want)
		}
	}
}

func TestNoiseExactAtRangeGridPoints(t *testing.T) {
	l, err := NewNoiseLUT([]model.RangeNoiseVector{
		{Line: 10, Pixels: []int{0, 7, 90}, Values: []float64{1, 2, 3}},
		{Line: 70, Pixels: []int{5, 50}, Values: []float64{4, 5}},
	}, nil)
	if err != nil {
		t.Fatalf("NewNoiseLUT: %v", err)
	}
	for _, tc := range []struct{ pixel, line, want float64 }{
		{0, 10, 1}, {7, 10, 2}, {90, 10, 3}, {5, 70, 4}, {50, 70, 5},
	} {
		if got := l.Value(tc.pixel, tc.line); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("Value(%v, %v) = %v, want %v", tc.pixel, tc.line, got, tc.want)
		}
	}
}

func TestEmptyNoiseIsIdentity(t *testing.T) {
	l, err := NewNoiseLUT(nil, nil)
	if err != nil {
		t.Fatalf("NewNoiseLUT: %v", err)
	}
	if got := l.Value(123, 456); got != 1 {
		t.Fatalf("empty noise model: got %v, want 1", got)
	}
}

func TestNewNoiseLUTValidation(t *testing.T) {
	_, err := NewNoiseLUT([]model.RangeNoiseVector{{Line: 0, Pixels: []int{0, 1}, Values: []float64{1}}}, nil)
	if !errors.Is(err, ErrInvalidLUT) {
		t.Fatalf("mismatched range vector: got %v", err)
	}
	_, err = NewNoiseLUT(nil, []model.AzimuthNoiseVector{{FirstAzimuthLine: 10, LastAzimuthLine: 5}})
	if !errors.Is(err, ErrInvalidLUT) {
		t.Fatalf("inverted azimuth block: got %v", err)
	}
}
