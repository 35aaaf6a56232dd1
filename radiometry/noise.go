package radiometry

import (
	"fmt"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// NoiseLUT is the thermal noise model: a range profile grid multiplied by
// block-wise azimuth profiles. Either part may be empty, in which case it
// contributes a factor of 1.
type NoiseLUT struct {
	rangeVectors   []model.RangeNoiseVector
	azimuthVectors []model.AzimuthNoiseVector
}

// NewNoiseLUT validates and copies the noise vectors.
func NewNoiseLUT(rangeVectors []model.RangeNoiseVector, azimuthVectors []model.AzimuthNoiseVector) (*NoiseLUT, error) {
	if err := checkLines("range noise vector", len(rangeVectors), func(i int) int { return rangeVectors[i].Line }); err != nil {
		return nil, err
	}
	for i, v := range rangeVectors {
		if err := checkRow("range noise vector", i, v.Pixels, v.Values); err != nil {
			return nil, err
		}
	}
	for i, v := range azimuthVectors {
		if v.LastAzimuthLine < v.FirstAzimuthLine || v.LastRangeSample < v.FirstRangeSample {
			return nil, fmt.Errorf("azimuth noise vector %d: empty validity block: %w", i, ErrInvalidLUT)
		}
		if err := checkRow("azimuth noise vector", i, v.Lines, v.Values); err != nil {
			return nil, err
		}
	}
	return &NoiseLUT{
		rangeVectors:   append([]model.RangeNoiseVector(nil), rangeVectors...),
		azimuthVectors: append([]model.AzimuthNoiseVector(nil), azimuthVectors...),
	}, nil
}

// Value returns the noise power at (pixel, line).
func (l *NoiseLUT) Value(pixel, line float64) float64 {
	return l.RangeValue(pixel, line) * l.AzimuthValue(pixel, line)
}

// RangeValue interpolates the range noise profiles bilinearly.
func (l *NoiseLUT) RangeValue(pixel, line float64) float64 {
	return gridValue(len(l.rangeVectors),
		func(i int) int { return l.rangeVectors[i].Line },
		func(i int, pixel float64) float64 {
			v := l.rangeVectors[i]
			return rowValue(v.Pixels, v.Values, pixel)
		},
		pixel, line)
}

// AzimuthValue interpolates along the line profile of the first azimuth
// vector whose block contains (pixel, line). It is 1 outside every block.
func (l *NoiseLUT) AzimuthValue(pixel, line float64) float64 {
	for _, v := range l.azimuthVectors {
		if v.Contains(pixel, line) {
			return rowValue(v.Lines, v.Values, line)
		}
	}
	return identity
}
