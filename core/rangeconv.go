package core

import (
	"fmt"

	"github.com/signalsfoundry/sar-geolocation/internal/bracket"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// SlantRangeToGroundRange converts a slant range (metres) at azimuth time t
// to ground range using the slant-to-ground polynomials.
func (m *SensorModel) SlantRangeToGroundRange(slantRange float64, t model.Instant) (float64, error) {
	out, err := convertRange(m.slantToGround, t, slantRange)
	if err != nil {
		return 0, fmt.Errorf("SlantRangeToGroundRange: %w", err)
	}
	return out, nil
}

// GroundRangeToSlantRange converts a ground range (metres) at azimuth time t
// to slant range using the ground-to-slant polynomials.
func (m *SensorModel) GroundRangeToSlantRange(groundRange float64, t model.Instant) (float64, error) {
	out, err := convertRange(m.groundToSlant, t, groundRange)
	if err != nil {
		return 0, fmt.Errorf("GroundRangeToSlantRange: %w", err)
	}
	return out, nil
}

// convertRange evaluates the conversion polynomial valid at t. Times outside
// the records use the boundary record unchanged.
func convertRange(records []model.CoordinateConversionRecord, t model.Instant, in float64) (float64, error) {
	switch len(records) {
	case 0:
		return 0, fmt.Errorf("no conversion records: %w", ErrMissingOrMismatchedCoefficients)
	case 1:
		return evalConversion(records[0].Rg0, records[0].Coefficients, in)
	}

	iv, err := bracket.Linear(len(records),
		func(i int) model.Instant { return records[i].AzimuthTime },
		model.Instant.Compare, t)
	if err != nil {
		return 0, err
	}
	if iv.Clamped() {
		r := records[iv.Edge()]
		return evalConversion(r.Rg0, r.Coefficients, in)
	}

	prev, next := records[iv.Lo], records[iv.Hi]
	if len(prev.Coefficients) != len(next.Coefficients) {
		return 0, fmt.Errorf("records %d and %d have %d and %d coefficients: %w",
			iv.Lo, iv.Hi, len(prev.Coefficients), len(next.Coefficients), ErrMissingOrMismatchedCoefficients)
	}
	mu := t.Sub(prev.AzimuthTime).Ratio(next.AzimuthTime.Sub(prev.AzimuthTime))

	rg0 := lerp(prev.Rg0, next.Rg0, mu)
	coeffs := make([]float64, len(prev.Coefficients))
	for k := range coeffs {
		coeffs[k] = lerp(prev.Coefficients[k], next.Coefficients[k], mu)
	}
	return evalConversion(rg0, coeffs, in)
}

// evalConversion evaluates Σ coeffs[k]·(in − rg0)^k with Horner's scheme.
func evalConversion(rg0 float64, coeffs []float64, in float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, fmt.Errorf("empty coefficient list: %w", ErrMissingOrMismatchedCoefficients)
	}
	x := in - rg0
	out := coeffs[len(coeffs)-1]
	for k := len(coeffs) - 2; k >= 0; k-- {
		out = coeffs[k] + x*out
	}
	return out, nil
}

func lerp(a, b, mu float64) float64 {
	return (1-mu)*a + mu*b
}
