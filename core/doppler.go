package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// ZeroDopplerSolution is the sensor state at the zero-doppler time of a
// ground point.
type ZeroDopplerSolution struct {
	AzimuthTime    model.Instant
	SensorPosition model.Vec3
	SensorVelocity model.Vec3
	// Range is the sensor to point distance in metres and Doppler the
	// residual doppler frequency left by the linear crossing estimate.
	Range   float64
	Doppler float64
}

// RangeDoppler returns the slant range (metres) from sensor to point and the
// doppler frequency (Hz) seen at radarFrequency. The doppler is positive
// while the sensor approaches the point.
func RangeDoppler(point, sensorPos, sensorVel model.Vec3, radarFrequency float64) (float64, float64) {
	s2g := point.Sub(sensorPos)
	r := s2g.Norm()
	if r == 0 {
		return 0, 0
	}
	return r, 2 * radarFrequency / model.SpeedOfLight * sensorVel.Dot(s2g) / r
}

// dopplerCrossing walks the orbit records until the doppler proxy
// (point − position)·velocity changes sign and returns the linearly
// interpolated crossing time.
func dopplerCrossing(orbits []model.OrbitRecord, point model.Vec3) (model.Instant, error) {
	if len(orbits) < 2 {
		return model.Instant{}, ErrInsufficientOrbit
	}
	proxy := func(r model.OrbitRecord) float64 {
		return point.Sub(r.Position).Dot(r.Velocity)
	}

	d1 := proxy(orbits[0])
	for i := 1; i < len(orbits); i++ {
		d2 := proxy(orbits[i])
		if (d1 < 0) != (d2 < 0) {
			denom := math.Abs(d1) + math.Abs(d2)
			interp := 0.0
			if denom > 0 {
				interp = math.Abs(d1) / denom
			}
			prev := orbits[i-1].Time
			return prev.Add(orbits[i].Time.Sub(prev).Scale(interp)), nil
		}
		d1 = d2
	}
	return model.Instant{}, ErrNoDopplerCrossing
}

// bistaticCorrection is the one-way light time between sensor and point,
// rounded to the microsecond.
func bistaticCorrection(point, sensorPos model.Vec3) model.Duration {
	us := 1e6 * sensorPos.DistanceTo(point) / model.SpeedOfLight
	return model.Microseconds(math.Floor(us + 0.5))
}

// ZeroDopplerLookup finds the azimuth time at which point crosses zero
// doppler, applies the azimuth time offset and, when enabled, the bistatic
// correction, and interpolates the sensor state at that time.
func (m *SensorModel) ZeroDopplerLookup(point model.Vec3) (ZeroDopplerSolution, error) {
	t, err := dopplerCrossing(m.orbits, point)
	if err != nil {
		return ZeroDopplerSolution{}, fmt.Errorf("ZeroDopplerLookup: %w", err)
	}
	t = t.Add(m.offsets.Azimuth)

	pos, vel, err := InterpolateOrbit(m.orbits, t, m.degree)
	if err != nil {
		return ZeroDopplerSolution{}, fmt.Errorf("ZeroDopplerLookup: %w", err)
	}

	if m.params.BistaticCorrection {
		t = t.Add(bistaticCorrection(point, pos))
		if pos, vel, err = InterpolateOrbit(m.orbits, t, m.degree); err != nil {
			return ZeroDopplerSolution{}, fmt.Errorf("ZeroDopplerLookup: %w", err)
		}
	}

	r, fd := RangeDoppler(point, pos, vel, m.params.RadarFrequency)
	return ZeroDopplerSolution{
		AzimuthTime:    t,
		SensorPosition: pos,
		SensorVelocity: vel,
		Range:          r,
		Doppler:        fd,
	}, nil
}
