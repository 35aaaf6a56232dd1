package model

// CalibrationVector is one calibration annotation row. Pixels is strictly
// increasing and every non-empty value list has the same length as Pixels.
type CalibrationVector struct {
	AzimuthTime Instant
	Line        int
	Pixels      []int
	SigmaNought []float64
	BetaNought  []float64
	Gamma       []float64
	DN          []float64
}

// RangeNoiseVector is one thermal-noise annotation row along range.
type RangeNoiseVector struct {
	AzimuthTime Instant
	Line        int
	Pixels      []int
	Values      []float64
}

// AzimuthNoiseVector is an azimuth noise profile valid inside the rectangle
// [FirstRangeSample, LastRangeSample] × [FirstAzimuthLine, LastAzimuthLine].
type AzimuthNoiseVector struct {
	Swath            string
	FirstAzimuthLine int
	LastAzimuthLine  int
	FirstRangeSample int
	LastRangeSample  int
	Lines            []int
	Values           []float64
}

// Contains reports whether (pixel, line) falls inside the validity rectangle.
func (v AzimuthNoiseVector) Contains(pixel, line float64) bool {
	return pixel >= float64(v.FirstRangeSample) && pixel <= float64(v.LastRangeSample) &&
		line >= float64(v.FirstAzimuthLine) && line <= float64(v.LastAzimuthLine)
}
