package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/sar-geolocation/model"
)

func TestEvalConversionHorner(t *testing.T) {
	// 1 + 2x + 3x² at x = 4 - 2.
	got, err := evalConversion(2, []float64{1, 2, 3}, 4)
	if err != nil {
		t.Fatalf("evalConversion: %v", err)
	}
	if got != 17 {
		t.Fatalf("got %v, want 17", got)
	}
	if _, err := evalConversion(0, nil, 1); !errors.Is(err, ErrMissingOrMismatchedCoefficients) {
		t.Fatalf("expected ErrMissingOrMismatchedCoefficients, got %v", err)
	}
}

func conversionRecords() []model.CoordinateConversionRecord {
	return []model.CoordinateConversionRecord{
		{AzimuthTime: at(0), Rg0: 800_000, Coefficients: []float64{0, 1.2, 1e-7}},
		{AzimuthTime: at(10), Rg0: 800_100, Coefficients: []float64{10, 1.4, 3e-7}},
	}
}

func TestConvertRangeClampsOutsideRecords(t *testing.T) {
	recs := conversionRecords()
	for _, tc := range []struct {
		t   float64
		rec int
	}{{-5, 0}, {0, 0}, {10, 1}, {25, 1}} {
		got, err := convertRange(recs, at(tc.t), 801_000)
		if err != nil {
			t.Fatalf("t=%v: %v", tc.t, err)
		}
		r := recs[tc.rec]
		want, _ := evalConversion(r.Rg0, r.Coefficients, 801_000)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("t=%v: got %v, want record %d value %v", tc.t, got, tc.rec, want)
		}
	}
}

func TestConvertRangeInterpolatesCoefficients(t *testing.T) {
	recs := conversionRecords()
	got, err := convertRange(recs, at(2.5), 801_000)
	if err != nil {
		t.Fatalf("convertRange: %v", err)
	}
	// mu = 0.25: rg0 = 800025, coefficients {2.5, 1.25, 1.5e-7}.
	x := 801_000.0 - 800_025
	want := 2.5 + 1.25*x + 1.5e-7*x*x
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestConvertRangeErrors(t *testing.T) {
	if _, err := convertRange(nil, at(0), 1); !errors.Is(err, ErrMissingOrMismatchedCoefficients) {
		t.Fatalf("empty records: got %v", err)
	}
	recs := conversionRecords()
	recs[1].Coefficients = recs[1].Coefficients[:2]
	if _, err := convertRange(recs, at(5), 801_000); !errors.Is(err, ErrMissingOrMismatchedCoefficients) {
		t.Fatalf("mismatched records: got %v", err)
	}
	// Clamped queries only use one record, so the mismatch is not reached.
	if _, err := convertRange(recs, at(-1), 801_000); err != nil {
		t.Fatalf("clamped query: %v", err)
	}
}

func TestRangeConversionInverseLaw(t *testing.T) {
	// Linear pairs with a fixed scale and drifting reference interpolate to
	// exact inverses.
	const k = 1.3
	var sg, gs []model.CoordinateConversionRecord
	for i, s := range []float64{0, 5, 10} {
		s0 := 850_000 + 40*float64(i)
		sg = append(sg, model.CoordinateConversionRecord{AzimuthTime: at(s), Rg0: s0, Coefficients: []float64{0, k}})
		gs = append(gs, model.CoordinateConversionRecord{AzimuthTime: at(s), Rg0: 0, Coefficients: []float64{s0, 1 / k}})
	}
	m := mustModel(t, testParams(model.ProductGRD), Records{
		Orbits:        straightOrbit(),
		Bursts:        singleBurst(),
		SlantToGround: sg,
		GroundToSlant: gs,
	})

	for _, s := range []float64{0.5, 3.7, 5, 9.99} {
		for _, r := range []float64{850_100, 870_000, 900_000} {
			g, err := m.SlantRangeToGroundRange(r, at(s))
			if err != nil {
				t.Fatalf("SlantRangeToGroundRange: %v", err)
			}
			back, err := m.GroundRangeToSlantRange(g, at(s))
			if err != nil {
				t.Fatalf("GroundRangeToSlantRange: %v", err)
			}
			if math.Abs(back-r)/r > 1e-6 {
				t.Fatalf("t=%v r=%v: round trip gave %v", s, r, back)
			}
		}
	}
}
