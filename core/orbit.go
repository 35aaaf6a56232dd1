package core

import (
	"fmt"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// InterpolateOrbit returns the sensor position and velocity at t using
// Lagrange interpolation over a window of up to degree consecutive records
// centred on the record closest to t. With fewer records than degree, the
// whole sequence is used. The interpolation is exact at every knot.
func InterpolateOrbit(records []model.OrbitRecord, t model.Instant, degree int) (model.Vec3, model.Vec3, error) {
	n := len(records)
	if n == 0 {
		return model.Vec3{}, model.Vec3{}, fmt.Errorf("InterpolateOrbit: %w", ErrInsufficientOrbit)
	}
	if degree < 1 {
		degree = 1
	}
	begin, end := orbitWindow(records, t, degree)

	var pos, vel model.Vec3
	for i := begin; i < end; i++ {
		w := 1.0
		ti := records[i].Time
		for j := begin; j < end; j++ {
			if j == i {
				continue
			}
			tj := records[j].Time
			// Microsecond scale keeps the ratios well conditioned.
			w *= t.Sub(tj).Microseconds() / ti.Sub(tj).Microseconds()
		}
		pos = pos.Add(records[i].Position.Scale(w))
		vel = vel.Add(records[i].Velocity.Scale(w))
	}
	return pos, vel, nil
}

// orbitWindow returns the half-open index range [begin, end) of the records
// used to interpolate at t.
func orbitWindow(records []model.OrbitRecord, t model.Instant, degree int) (int, int) {
	n := len(records)
	w := degree
	if w > n {
		w = n
	}

	closest := 0
	best := t.Sub(records[0].Time).Abs()
	for i := 1; i < n; i++ {
		if d := t.Sub(records[i].Time).Abs(); d < best {
			best = d
			closest = i
		}
	}

	begin := closest - (w-1)/2
	if w%2 == 0 {
		switch {
		case t.After(records[closest].Time):
			begin = closest - w/2 + 1
		case t.Before(records[closest].Time):
			begin = closest - w/2
		}
	}
	if begin < 0 {
		begin = 0
	}
	if begin+w > n {
		begin = n - w
	}
	return begin, begin + w
}
