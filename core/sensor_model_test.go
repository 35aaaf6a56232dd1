package core

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/sar-geolocation/model"
)

func testParams(kind model.ProductKind) model.SARParameters {
	return model.SARParameters{
		Product:             kind,
		RadarFrequency:      5.405e9,
		AzimuthTimeInterval: model.Seconds(0.001),
		NearRangeTime:       0.005,
		RangeSamplingRate:   6.4345e7,
		RangeResolution:     10,
		RightLooking:        true,
	}
}

func singleBurst() []model.BurstRecord {
	return []model.BurstRecord{{
		AzimuthStartTime: at(0),
		AzimuthStopTime:  at(0.999),
		StartLine:        0,
		EndLine:          999,
		StartSample:      0,
		EndSample:        499,
	}}
}

func mustModel(t *testing.T, params model.SARParameters, rec Records, opts ...Option) *SensorModel {
	t.Helper()
	m, err := NewSensorModel(params, rec, opts...)
	if err != nil {
		t.Fatalf("NewSensorModel: %v", err)
	}
	return m
}

func TestNewSensorModelValidation(t *testing.T) {
	orbit := straightOrbit()
	reversed := []model.OrbitRecord{orbit[1], orbit[0]}

	grd := testParams(model.ProductGRD)
	grd.RangeResolution = 0
	slc := testParams(model.ProductSLC)
	slc.RangeSamplingRate = 0
	noATI := testParams(model.ProductSLC)
	noATI.AzimuthTimeInterval = 0

	cases := []struct {
		name   string
		params model.SARParameters
		rec    Records
		want   error
	}{
		{"one orbit record", testParams(model.ProductSLC), Records{Orbits: orbit[:1], Bursts: singleBurst()}, ErrInsufficientOrbit},
		{"unsorted orbit", testParams(model.ProductSLC), Records{Orbits: reversed, Bursts: singleBurst()}, ErrInvalidParameter},
		{"no bursts", testParams(model.ProductSLC), Records{Orbits: orbit}, ErrNoBursts},
		{"no azimuth interval", noATI, Records{Orbits: orbit, Bursts: singleBurst()}, ErrInvalidParameter},
		{"grd without spacing", grd, Records{Orbits: orbit, Bursts: singleBurst()}, ErrInvalidParameter},
		{"slc without sampling rate", slc, Records{Orbits: orbit, Bursts: singleBurst()}, ErrInvalidParameter},
	}
	for _, tc := range cases {
		if _, err := NewSensorModel(tc.params, tc.rec); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestNewSensorModelCopiesRecords(t *testing.T) {
	orbit := straightOrbit()
	gcps := []model.GCPRecord{{ID: "a"}}
	m := mustModel(t, testParams(model.ProductSLC), Records{Orbits: orbit, Bursts: singleBurst(), GCPs: gcps})

	orbit[0].Position = model.Vec3{X: 1}
	gcps[0].ID = "mutated"
	if m.Orbits()[0].Position == orbit[0].Position || m.GCPs()[0].ID != "a" {
		t.Fatalf("model shares caller slices")
	}

	rec := m.Records()
	rec.Orbits[1].Position = model.Vec3{Y: 5}
	if len(rec.Bursts) != 1 || len(rec.GCPs) != 1 || m.Orbits()[1].Position == rec.Orbits[1].Position {
		t.Fatalf("Records should return independent copies")
	}

	other := m.WithGCPs(nil)
	if len(other.GCPs()) != 0 || len(m.GCPs()) != 1 {
		t.Fatalf("WithGCPs should not touch the receiver")
	}
}

func TestOptions(t *testing.T) {
	m := mustModel(t, testParams(model.ProductSLC), Records{Orbits: straightOrbit(), Bursts: singleBurst()},
		WithInterpolationDegree(1), WithMaxIterations(0), WithTimeOffsets(model.Seconds(1), 2e-9), WithLogger(nil), WithRecorder(nil))
	if m.degree != DefaultInterpolationDegree || m.maxIter != DefaultMaxIterations {
		t.Fatalf("invalid option values should be ignored: degree=%d maxIter=%d", m.degree, m.maxIter)
	}
	if got := m.Offsets(); got.Azimuth != model.Seconds(1) || got.Range != 2e-9 {
		t.Fatalf("offsets %+v", got)
	}
	if m.log == nil || m.recorder == nil {
		t.Fatalf("nil logger or recorder should keep defaults")
	}
}
