package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/sar-geolocation/model"
)

var epoch = model.InstantFromSeconds(1_600_000_000)

func at(s float64) model.Instant { return epoch.Add(model.Seconds(s)) }

// circularRecords samples a polar circular orbit of radius 7071 km.
func circularRecords(from, to, step float64) []model.OrbitRecord {
	const r = 7_071_000.0
	w := math.Sqrt(3.986004418e14 / (r * r * r))
	var out []model.OrbitRecord
	for s := from; s <= to; s += step {
		sin, cos := math.Sincos(w * s)
		out = append(out, model.OrbitRecord{
			Time:     at(s),
			Position: model.Vec3{X: r * cos, Z: r * sin},
			Velocity: model.Vec3{X: -r * w * sin, Z: r * w * cos},
		})
	}
	return out
}

func linearRecords() []model.OrbitRecord {
	v := model.Vec3{X: 100, Y: 200, Z: -50}
	p0 := model.Vec3{X: 7_000_000, Y: 10, Z: 20}
	var out []model.OrbitRecord
	for _, s := range []float64{0, 10, 20} {
		out = append(out, model.OrbitRecord{Time: at(s), Position: p0.Add(v.Scale(s)), Velocity: v})
	}
	return out
}

func closeVec(a, b model.Vec3, tol float64) bool {
	return a.DistanceTo(b) <= tol
}

func TestInterpolateOrbitStraightLineMidpoint(t *testing.T) {
	recs := linearRecords()
	want := recs[0].Position.Add(recs[1].Position).Scale(0.5)

	for _, deg := range []int{2, 3, 8} {
		pos, vel, err := InterpolateOrbit(recs, at(5), deg)
		if err != nil {
			t.Fatalf("degree %d: %v", deg, err)
		}
		if !closeVec(pos, want, 1e-6) {
			t.Fatalf("degree %d: position %+v, want %+v", deg, pos, want)
		}
		if !closeVec(vel, recs[0].Velocity, 1e-9) {
			t.Fatalf("degree %d: velocity %+v, want %+v", deg, vel, recs[0].Velocity)
		}
	}
}

func TestInterpolateOrbitExactAtKnots(t *testing.T) {
	recs := circularRecords(-100, 100, 10)
	for _, deg := range []int{2, 3, 5, 8} {
		for i, r := range recs {
			pos, vel, err := InterpolateOrbit(recs, r.Time, deg)
			if err != nil {
				t.Fatalf("degree %d knot %d: %v", deg, i, err)
			}
			if !closeVec(pos, r.Position, 1e-6) || !closeVec(vel, r.Velocity, 1e-9) {
				t.Fatalf("degree %d knot %d: got %+v/%+v want %+v/%+v", deg, i, pos, vel, r.Position, r.Velocity)
			}
		}
	}
}

func TestInterpolateOrbitBetweenKnots(t *testing.T) {
	recs := circularRecords(-100, 100, 10)
	truth := circularRecords(-33.3, -33.3, 1)[0]

	pos, vel, err := InterpolateOrbit(recs, truth.Time, DefaultInterpolationDegree)
	if err != nil {
		t.Fatalf("InterpolateOrbit: %v", err)
	}
	if !closeVec(pos, truth.Position, 1e-3) {
		t.Fatalf("position off by %.6f m", pos.DistanceTo(truth.Position))
	}
	if !closeVec(vel, truth.Velocity, 1e-6) {
		t.Fatalf("velocity off by %.9f m/s", vel.DistanceTo(truth.Velocity))
	}
}

func TestOrbitWindow(t *testing.T) {
	recs := circularRecords(0, 90, 10) // 10 records at 0..90 s
	cases := []struct {
		name       string
		t          float64
		deg        int
		begin, end int
	}{
		{"odd centred", 40, 3, 3, 6},
		{"even after closest", 41, 4, 3, 7},
		{"even before closest", 39, 4, 2, 6},
		{"clamped start", 0, 8, 0, 8},
		{"clamped end", 90, 8, 2, 10},
		{"shorter than degree", 50, 20, 0, 10},
		{"before first", -30, 4, 0, 4},
	}
	for _, tc := range cases {
		b, e := orbitWindow(recs, at(tc.t), tc.deg)
		if b != tc.begin || e != tc.end {
			t.Fatalf("%s: window [%d,%d), want [%d,%d)", tc.name, b, e, tc.begin, tc.end)
		}
	}
}

func TestInterpolateOrbitEmpty(t *testing.T) {
	if _, _, err := InterpolateOrbit(nil, epoch, 8); !errors.Is(err, ErrInsufficientOrbit) {
		t.Fatalf("expected ErrInsufficientOrbit, got %v", err)
	}
}
