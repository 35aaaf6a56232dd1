package model

import (
	"fmt"
	"strings"
)

// ProductKind identifies the SAR product family. SLC products are sampled in
// slant range; every other kind is projected to ground range.
type ProductKind int

const (
	ProductSLC ProductKind = iota
	ProductGRD
	ProductMGD
	ProductGEC
	ProductEEC
)

var productKindNames = [...]string{"SLC", "GRD", "MGD", "GEC", "EEC"}

// ParseProductKind maps an annotation string such as "GRD" to a ProductKind.
func ParseProductKind(s string) (ProductKind, error) {
	for i, name := range productKindNames {
		if strings.EqualFold(s, name) {
			return ProductKind(i), nil
		}
	}
	return 0, fmt.Errorf("invalid SAR product kind %q", s)
}

func (k ProductKind) String() string {
	if k < 0 || int(k) >= len(productKindNames) {
		return fmt.Sprintf("ProductKind(%d)", int(k))
	}
	return productKindNames[k]
}

// IsGroundRange reports whether image samples are spaced in ground range.
func (k ProductKind) IsGroundRange() bool {
	return k != ProductSLC
}

// OrbitRecord is one orbit state vector in ECEF.
type OrbitRecord struct {
	Time     Instant
	Position Vec3 // metres
	Velocity Vec3 // metres per second
}

// BurstRecord describes the time and line extent of one burst. Single-burst
// products carry exactly one record spanning the whole image.
type BurstRecord struct {
	AzimuthStartTime Instant
	AzimuthStopTime  Instant
	StartLine        int
	EndLine          int
	StartSample      int
	EndSample        int
	AzimuthAnxTime   float64 // seconds since ascending node crossing, informational
}

// GCPRecord ties an image position to a ground position together with the
// annotated azimuth and slant range times of that position.
type GCPRecord struct {
	ID             string
	AzimuthTime    Instant
	SlantRangeTime float64 // two-way, seconds
	ImagePoint     ImagePoint
	WorldPoint     GeoPoint
}

// CoordinateConversionRecord holds one slant/ground range polynomial valid
// around AzimuthTime: out = Σ Coefficients[k] · (in − Rg0)^k.
type CoordinateConversionRecord struct {
	AzimuthTime  Instant
	Rg0          float64
	Coefficients []float64
}

// SARParameters are the scalar acquisition parameters of a product.
type SARParameters struct {
	Product             ProductKind
	RadarFrequency      float64  // Hz
	AzimuthTimeInterval Duration // time between two lines
	NearRangeTime       float64  // two-way slant range time of the first sample, seconds
	RangeSamplingRate   float64  // Hz
	RangeResolution     float64  // ground range pixel spacing, metres
	BistaticCorrection  bool
	RightLooking        bool
}
