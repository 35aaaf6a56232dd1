package core

import (
	"fmt"
	"slices"

	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// Records groups the ordered record sequences a SensorModel is built from.
// Every sequence must already be sorted chronologically.
type Records struct {
	Orbits        []model.OrbitRecord
	Bursts        []model.BurstRecord
	GCPs          []model.GCPRecord
	SlantToGround []model.CoordinateConversionRecord
	GroundToSlant []model.CoordinateConversionRecord
}

// TimeOffsets are the azimuth and range time corrections added to the
// geometric zero-doppler solution.
type TimeOffsets struct {
	Azimuth model.Duration
	Range   float64 // seconds
}

// SensorModel maps between image and ground coordinates for one SAR product.
// It is immutable once constructed: every query is a pure function of the
// model and its arguments, so a single instance may be shared by many
// goroutines. Calibration returns a new model instead of mutating this one.
type SensorModel struct {
	params model.SARParameters

	orbits        []model.OrbitRecord
	bursts        []model.BurstRecord
	gcps          []model.GCPRecord
	slantToGround []model.CoordinateConversionRecord
	groundToSlant []model.CoordinateConversionRecord

	offsets TimeOffsets
	degree  int
	maxIter int

	log      logging.Logger
	recorder Recorder
}

// NewSensorModel validates the scalar parameters and record counts and
// returns a ready-to-query model. The records are copied.
func NewSensorModel(params model.SARParameters, rec Records, opts ...Option) (*SensorModel, error) {
	if len(rec.Orbits) < 2 {
		return nil, fmt.Errorf("NewSensorModel: %d orbit records: %w", len(rec.Orbits), ErrInsufficientOrbit)
	}
	for i := 1; i < len(rec.Orbits); i++ {
		if !rec.Orbits[i-1].Time.Before(rec.Orbits[i].Time) {
			return nil, fmt.Errorf("NewSensorModel: orbit record %d is not after record %d: %w", i, i-1, ErrInvalidParameter)
		}
	}
	if len(rec.Bursts) == 0 {
		return nil, fmt.Errorf("NewSensorModel: %w", ErrNoBursts)
	}
	if params.AzimuthTimeInterval <= 0 {
		return nil, fmt.Errorf("NewSensorModel: azimuth time interval %v: %w", params.AzimuthTimeInterval, ErrInvalidParameter)
	}
	if params.Product.IsGroundRange() {
		if params.RangeResolution <= 0 {
			return nil, fmt.Errorf("NewSensorModel: range resolution %v: %w", params.RangeResolution, ErrInvalidParameter)
		}
	} else if params.RangeSamplingRate <= 0 {
		return nil, fmt.Errorf("NewSensorModel: range sampling rate %v: %w", params.RangeSamplingRate, ErrInvalidParameter)
	}

	m := &SensorModel{
		params:        params,
		orbits:        slices.Clone(rec.Orbits),
		bursts:        slices.Clone(rec.Bursts),
		gcps:          slices.Clone(rec.GCPs),
		slantToGround: cloneConversion(rec.SlantToGround),
		groundToSlant: cloneConversion(rec.GroundToSlant),
		degree:        DefaultInterpolationDegree,
		maxIter:       DefaultMaxIterations,
		log:           logging.Noop(),
		recorder:      noopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func cloneConversion(in []model.CoordinateConversionRecord) []model.CoordinateConversionRecord {
	out := make([]model.CoordinateConversionRecord, len(in))
	for i, r := range in {
		out[i] = model.CoordinateConversionRecord{
			AzimuthTime:  r.AzimuthTime,
			Rg0:          r.Rg0,
			Coefficients: slices.Clone(r.Coefficients),
		}
	}
	return out
}

// derive returns a shallow copy sharing the immutable record slices.
func (m *SensorModel) derive() *SensorModel {
	cp := *m
	return &cp
}

// Params returns the scalar acquisition parameters.
func (m *SensorModel) Params() model.SARParameters { return m.params }

// Offsets returns the current azimuth and range time offsets.
func (m *SensorModel) Offsets() TimeOffsets { return m.offsets }

// IsGroundRange reports whether samples are in ground range geometry.
func (m *SensorModel) IsGroundRange() bool { return m.params.Product.IsGroundRange() }

// Orbits returns a copy of the orbit records.
func (m *SensorModel) Orbits() []model.OrbitRecord { return slices.Clone(m.orbits) }

// Bursts returns a copy of the burst records.
func (m *SensorModel) Bursts() []model.BurstRecord { return slices.Clone(m.bursts) }

// GCPs returns a copy of the GCP records.
func (m *SensorModel) GCPs() []model.GCPRecord { return slices.Clone(m.gcps) }

// Records returns a copy of every record sequence of the model.
func (m *SensorModel) Records() Records {
	return Records{
		Orbits:        m.Orbits(),
		Bursts:        m.Bursts(),
		GCPs:          m.GCPs(),
		SlantToGround: cloneConversion(m.slantToGround),
		GroundToSlant: cloneConversion(m.groundToSlant),
	}
}

// WithGCPs returns a model sharing everything but the GCP set.
func (m *SensorModel) WithGCPs(gcps []model.GCPRecord) *SensorModel {
	out := m.derive()
	out.gcps = slices.Clone(gcps)
	return out
}
