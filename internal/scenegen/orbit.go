package scenegen

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// EarthGM is the WGS84 gravitational parameter, m³/s².
const EarthGM = 3.986004418e14

// earthRotationRate is the WGS84 mean angular velocity of the Earth, rad/s.
const earthRotationRate = 7.292115e-5

// CircularOrbit is a polar circular orbit expressed directly in ECEF, with
// Earth rotation ignored. It crosses the equator northbound above longitude
// zero at Epoch, so the ground track follows the prime meridian and the
// zero-doppler time of any point is known in closed form.
type CircularOrbit struct {
	Epoch  model.Instant
	Radius float64 // metres
}

// AngularRate returns the Keplerian mean motion of the orbit, rad/s.
func (o CircularOrbit) AngularRate() float64 {
	return math.Sqrt(EarthGM / (o.Radius * o.Radius * o.Radius))
}

// State returns the ECEF position and velocity at t.
func (o CircularOrbit) State(t model.Instant) (model.Vec3, model.Vec3) {
	w := o.AngularRate()
	a := w * t.Sub(o.Epoch).Seconds()
	sin, cos := math.Sincos(a)
	pos := model.Vec3{X: o.Radius * cos, Z: o.Radius * sin}
	vel := model.Vec3{X: -o.Radius * w * sin, Z: o.Radius * w * cos}
	return pos, vel
}

// ZeroDopplerTime returns the exact time at which p is perpendicular to the
// velocity vector.
func (o CircularOrbit) ZeroDopplerTime(p model.Vec3) model.Instant {
	return o.Epoch.Add(model.Seconds(math.Atan2(p.Z, p.X) / o.AngularRate()))
}

// Records samples the orbit every step over [from, to].
func (o CircularOrbit) Records(from, to model.Instant, step model.Duration) ([]model.OrbitRecord, error) {
	if step <= 0 || to.Before(from) {
		return nil, fmt.Errorf("scenegen: invalid orbit sampling from %v to %v every %v", from, to, step)
	}
	var out []model.OrbitRecord
	for t := from; !t.After(to); t = t.Add(step) {
		pos, vel := o.State(t)
		out = append(out, model.OrbitRecord{Time: t, Position: pos, Velocity: vel})
	}
	return out, nil
}

// TLEOrbit propagates a two-line element set with SGP4.
type TLEOrbit struct {
	sat satellite.Satellite
}

// NewTLEOrbit parses the two TLE lines.
func NewTLEOrbit(line1, line2 string) *TLEOrbit {
	return &TLEOrbit{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}
}

// State returns the ECEF position (m) and velocity (m/s) at t, which is
// truncated to the second.
func (o *TLEOrbit) State(t time.Time) (model.Vec3, model.Vec3) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, velECI := satellite.Propagate(o.sat, year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, min, sec))
	pos := satellite.ECIToECEF(posECI, gmst)
	vel := satellite.ECIToECEF(velECI, gmst)

	const kmToM = 1000.0
	p := model.Vec3{X: pos.X * kmToM, Y: pos.Y * kmToM, Z: pos.Z * kmToM}
	// Remove the frame rotation: v_ecef = R·v_eci − ω × r_ecef.
	v := model.Vec3{
		X: vel.X*kmToM + earthRotationRate*p.Y,
		Y: vel.Y*kmToM - earthRotationRate*p.X,
		Z: vel.Z * kmToM,
	}
	return p, v
}

// Records propagates count state vectors starting at start, every step
// whole seconds.
func (o *TLEOrbit) Records(start time.Time, step time.Duration, count int) ([]model.OrbitRecord, error) {
	if step < time.Second || step%time.Second != 0 {
		return nil, fmt.Errorf("scenegen: TLE step %v must be a whole number of seconds", step)
	}
	if count < 2 {
		return nil, fmt.Errorf("scenegen: need at least 2 state vectors, got %d", count)
	}
	start = start.Truncate(time.Second)
	out := make([]model.OrbitRecord, 0, count)
	for i := 0; i < count; i++ {
		t := start.Add(time.Duration(i) * step)
		pos, vel := o.State(t)
		if math.IsNaN(pos.X) || pos.Norm() == 0 {
			return nil, fmt.Errorf("scenegen: SGP4 propagation failed at %v", t)
		}
		out = append(out, model.OrbitRecord{Time: model.InstantFromTime(t), Position: pos, Velocity: vel})
	}
	return out, nil
}
