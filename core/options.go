package core

import (
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// DefaultInterpolationDegree is the number of orbit records used by the
// Lagrange interpolator.
const DefaultInterpolationDegree = 8

// DefaultMaxIterations bounds the inverse Newton solve.
const DefaultMaxIterations = 50

// Recorder receives per-query outcomes. It is implemented by the Prometheus
// collector in internal/observability and must be safe for concurrent use.
type Recorder interface {
	ObserveWorldToImage(err error)
	ObserveImageToWorld(result InverseResult, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveWorldToImage(error)                {}
func (noopRecorder) ObserveImageToWorld(InverseResult, error) {}

// Option customises a SensorModel at construction time.
type Option func(*SensorModel)

// WithLogger sets the logger used for warnings such as singular Jacobians.
func WithLogger(l logging.Logger) Option {
	return func(m *SensorModel) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *SensorModel) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithInterpolationDegree overrides the number of orbit records used by the
// Lagrange interpolator. Values below 2 are ignored.
func WithInterpolationDegree(deg int) Option {
	return func(m *SensorModel) {
		if deg >= 2 {
			m.degree = deg
		}
	}
}

// WithMaxIterations overrides the Newton iteration budget.
func WithMaxIterations(n int) Option {
	return func(m *SensorModel) {
		if n > 0 {
			m.maxIter = n
		}
	}
}

// WithTimeOffsets presets the azimuth and range time offsets, e.g. from a
// previous calibration run.
func WithTimeOffsets(azimuth model.Duration, rangeTime float64) Option {
	return func(m *SensorModel) {
		m.offsets = TimeOffsets{Azimuth: azimuth, Range: rangeTime}
	}
}
