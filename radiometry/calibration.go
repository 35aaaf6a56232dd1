package radiometry

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// CalibrationKind selects which value list of the calibration vectors a
// CalibrationLUT interpolates.
type CalibrationKind int

const (
	SigmaNought CalibrationKind = iota
	BetaNought
	Gamma
	DN
)

func (k CalibrationKind) String() string {
	switch k {
	case SigmaNought:
		return "sigma0"
	case BetaNought:
		return "beta0"
	case Gamma:
		return "gamma"
	case DN:
		return "dn"
	default:
		return fmt.Sprintf("CalibrationKind(%d)", int(k))
	}
}

// ParseCalibrationKind accepts the names printed by String, case
// insensitively, plus the long forms "sigmaNought" and "betaNought".
func ParseCalibrationKind(s string) (CalibrationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sigma0", "sigmanought", "sigma":
		return SigmaNought, nil
	case "beta0", "betanought", "beta":
		return BetaNought, nil
	case "gamma", "gamma0":
		return Gamma, nil
	case "dn":
		return DN, nil
	}
	return 0, fmt.Errorf("radiometry: unknown calibration kind %q", s)
}

func (k CalibrationKind) values(v model.CalibrationVector) []float64 {
	switch k {
	case BetaNought:
		return v.BetaNought
	case Gamma:
		return v.Gamma
	case DN:
		return v.DN
	default:
		return v.SigmaNought
	}
}

// CalibrationLUT interpolates one kind of calibration value over
// (pixel, line).
type CalibrationLUT struct {
	kind     CalibrationKind
	vectors  []model.CalibrationVector
	absolute float64
}

// CalibrationOption customises a CalibrationLUT.
type CalibrationOption func(*CalibrationLUT)

// WithAbsoluteConstant sets the absolute calibration constant of the
// product. The default is 1.
func WithAbsoluteConstant(c float64) CalibrationOption {
	return func(l *CalibrationLUT) {
		if c > 0 {
			l.absolute = c
		}
	}
}

// NewCalibrationLUT validates vectors and copies them. Vector lines must be
// strictly increasing, and every vector must carry a value list of the
// selected kind with one entry per pixel.
func NewCalibrationLUT(kind CalibrationKind, vectors []model.CalibrationVector, opts ...CalibrationOption) (*CalibrationLUT, error) {
	if kind < SigmaNought || kind > DN {
		return nil, fmt.Errorf("calibration kind %v: %w", kind, ErrInvalidLUT)
	}
	if err := checkLines("calibration vector", len(vectors), func(i int) int { return vectors[i].Line }); err != nil {
		return nil, err
	}
	for i, v := range vectors {
		if err := checkRow("calibration vector", i, v.Pixels, kind.values(v)); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
	}
	l := &CalibrationLUT{
		kind:     kind,
		vectors:  append([]model.CalibrationVector(nil), vectors...),
		absolute: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Kind returns the interpolated value kind.
func (l *CalibrationLUT) Kind() CalibrationKind { return l.kind }

// AbsoluteConstant returns the absolute calibration constant.
func (l *CalibrationLUT) AbsoluteConstant() float64 { return l.absolute }

// Len returns the number of calibration vectors.
func (l *CalibrationLUT) Len() int { return len(l.vectors) }

// Value returns the calibration value at (pixel, line).
func (l *CalibrationLUT) Value(pixel, line float64) float64 {
	return gridValue(len(l.vectors),
		func(i int) int { return l.vectors[i].Line },
		func(i int, pixel float64) float64 {
			v := l.vectors[i]
			return rowValue(v.Pixels, l.kind.values(v), pixel)
		},
		pixel, line)
}
