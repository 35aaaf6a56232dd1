package model

import "math"

// SpeedOfLight in vacuum, metres per second.
const SpeedOfLight = 299792458.0

// Vec3 is an ECEF vector in metres (or metres per second for velocities).
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v * f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// GeoPoint is a WGS84 geodetic position: latitude and longitude in degrees,
// height above the ellipsoid in metres.
type GeoPoint struct {
	Lat    float64
	Lon    float64
	Height float64
}

// IsNaN reports whether any component is NaN.
func (g GeoPoint) IsNaN() bool {
	return math.IsNaN(g.Lat) || math.IsNaN(g.Lon) || math.IsNaN(g.Height)
}

// ImagePoint is a position in image coordinates. Line is the azimuth (row)
// coordinate and Sample the range (column) coordinate; both may be fractional.
type ImagePoint struct {
	Line   float64
	Sample float64
}

// SquaredDistanceTo returns the squared image-plane distance in pixels².
func (p ImagePoint) SquaredDistanceTo(other ImagePoint) float64 {
	dl := p.Line - other.Line
	ds := p.Sample - other.Sample
	return dl*dl + ds*ds
}
