// Package scenegen builds synthetic SAR scenes whose geometry is known in
// closed form. Scenes feed the command line driver and the round trip tests.
package scenegen

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// Config describes a synthetic acquisition by a right-looking sensor on a
// CircularOrbit. The scene is centred on the equator: the middle image line
// is acquired at the orbit epoch.
type Config struct {
	Product             model.ProductKind
	Epoch               model.Instant
	OrbitRadius         float64 // metres
	OrbitStep           model.Duration
	OrbitMargin         model.Duration // orbit coverage beyond the image on each side
	RadarFrequency      float64        // Hz
	AzimuthTimeInterval model.Duration
	RangeSamplingRate   float64 // Hz, slant range products
	RangeResolution     float64 // metres, ground range products
	NearLon             float64 // degrees, longitude of the first sample on the equator
	Lines               int     // per burst
	Samples             int
	Bursts              int
	OverlapLines        int // lines shared in time by consecutive bursts
	GCPRows, GCPCols    int
	BistaticCorrection  bool
}

// DefaultConfig is a 1000×1000 single-burst SLC over the equator.
func DefaultConfig() Config {
	return Config{
		Product:             model.ProductSLC,
		Epoch:               model.InstantFromSeconds(1_700_000_000),
		OrbitRadius:         7_071_000,
		OrbitStep:           model.Seconds(10),
		OrbitMargin:         model.Seconds(100),
		RadarFrequency:      5.405e9,
		AzimuthTimeInterval: model.Seconds(0.002),
		RangeSamplingRate:   model.SpeedOfLight / (2 * 20), // 20 m slant spacing
		RangeResolution:     25,
		NearLon:             3.3,
		Lines:               1000,
		Samples:             1000,
		Bursts:              1,
		GCPRows:             6,
		GCPCols:             6,
	}
}

// Scene is the generated record set.
type Scene struct {
	Config  Config
	Orbit   CircularOrbit
	Params  model.SARParameters
	Records core.Records
}

// Build generates the records for cfg. GCPs are placed on a regular image
// grid at zero height and located by projecting ground points through the
// scene geometry, so they agree with the model to numerical precision.
func Build(cfg Config) (*Scene, error) {
	if cfg.Lines < 2 || cfg.Samples < 2 || cfg.Bursts < 1 {
		return nil, fmt.Errorf("scenegen: invalid image size %d×%d with %d bursts", cfg.Lines, cfg.Samples, cfg.Bursts)
	}
	if cfg.OverlapLines < 0 || cfg.OverlapLines >= cfg.Lines {
		return nil, fmt.Errorf("scenegen: overlap of %d lines for %d-line bursts", cfg.OverlapLines, cfg.Lines)
	}

	orbit := CircularOrbit{Epoch: cfg.Epoch, Radius: cfg.OrbitRadius}
	ati := cfg.AzimuthTimeInterval
	stride := cfg.Lines - cfg.OverlapLines
	totalTime := ati.Scale(float64(stride*(cfg.Bursts-1) + cfg.Lines - 1))
	first := cfg.Epoch.Add(-totalTime.Div(2))

	bursts := make([]model.BurstRecord, cfg.Bursts)
	for i := range bursts {
		start := first.Add(ati.Scale(float64(i * stride)))
		bursts[i] = model.BurstRecord{
			AzimuthStartTime: start,
			AzimuthStopTime:  start.Add(ati.Scale(float64(cfg.Lines - 1))),
			StartLine:        i * cfg.Lines,
			EndLine:          (i+1)*cfg.Lines - 1,
			StartSample:      0,
			EndSample:        cfg.Samples - 1,
		}
	}
	last := bursts[len(bursts)-1].AzimuthStopTime

	orbits, err := orbit.Records(first.Add(-cfg.OrbitMargin), last.Add(cfg.OrbitMargin), cfg.OrbitStep)
	if err != nil {
		return nil, err
	}

	// Near range from the orbit epoch to the first sample on the equator.
	sat, _ := orbit.State(cfg.Epoch)
	nearPoint := core.GeoToECEF(model.GeoPoint{Lat: 0, Lon: cfg.NearLon})
	nearSlant := sat.DistanceTo(nearPoint)

	params := model.SARParameters{
		Product:             cfg.Product,
		RadarFrequency:      cfg.RadarFrequency,
		AzimuthTimeInterval: ati,
		NearRangeTime:       2 * nearSlant / model.SpeedOfLight,
		RangeSamplingRate:   cfg.RangeSamplingRate,
		RangeResolution:     cfg.RangeResolution,
		BistaticCorrection:  cfg.BistaticCorrection,
		RightLooking:        true,
	}
	s := &Scene{
		Config: cfg,
		Orbit:  orbit,
		Params: params,
		Records: core.Records{
			Orbits: orbits,
			Bursts: bursts,
		},
	}
	if cfg.Product.IsGroundRange() {
		s.Records.SlantToGround, s.Records.GroundToSlant = rangePolynomials(first, last, nearSlant)
	}

	gcps, err := s.gcpGrid()
	if err != nil {
		return nil, err
	}
	s.Records.GCPs = gcps
	return s, nil
}

// groundScale is the ground range metres per slant range metre used by the
// synthetic ground range polynomials.
const groundScale = 1.25

// rangePolynomials returns two linear slant/ground conversion records, one
// at each end of the acquisition. The reference slant range drifts by a
// few metres between them so that interpolation is exercised, while each
// pair stays an exact inverse.
func rangePolynomials(first, last model.Instant, nearSlant float64) (sg, gs []model.CoordinateConversionRecord) {
	for i, t := range []model.Instant{first, last} {
		s0 := nearSlant + 5*float64(i)
		sg = append(sg, model.CoordinateConversionRecord{
			AzimuthTime:  t,
			Rg0:          s0,
			Coefficients: []float64{0, groundScale},
		})
		gs = append(gs, model.CoordinateConversionRecord{
			AzimuthTime:  t,
			Rg0:          0,
			Coefficients: []float64{s0, 1 / groundScale},
		})
	}
	return sg, gs
}

// Model builds a SensorModel over the scene records.
func (s *Scene) Model(opts ...core.Option) (*core.SensorModel, error) {
	return core.NewSensorModel(s.Params, s.Records, opts...)
}

// gcpGrid spreads GCPs over the image. Each GCP starts from the ground point
// the circular orbit sees at the requested line and range and is then
// projected through the model for its exact image position and times.
func (s *Scene) gcpGrid() ([]model.GCPRecord, error) {
	rows, cols := s.Config.GCPRows, s.Config.GCPCols
	if rows < 1 || cols < 1 {
		return nil, nil
	}
	m, err := core.NewSensorModel(s.Params, s.Records)
	if err != nil {
		return nil, err
	}

	lines := float64(s.Records.Bursts[len(s.Records.Bursts)-1].EndLine)
	samples := float64(s.Config.Samples - 1)
	out := make([]model.GCPRecord, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			line := lines * (float64(r) + 0.5) / float64(rows)
			sample := samples * (float64(c) + 0.5) / float64(cols)
			ground, err := s.groundPoint(m, line, sample)
			if err != nil {
				return nil, err
			}
			img, err := m.WorldToLineSample(ground)
			if err != nil {
				return nil, fmt.Errorf("scenegen: GCP %d,%d: %w", r, c, err)
			}
			az, rt, err := m.WorldToAzimuthRangeTime(ground)
			if err != nil {
				return nil, err
			}
			out = append(out, model.GCPRecord{
				ID:             fmt.Sprintf("gcp-%02d-%02d", r, c),
				AzimuthTime:    az,
				SlantRangeTime: rt,
				ImagePoint:     img,
				WorldPoint:     ground,
			})
		}
	}
	return out, nil
}

// groundPoint returns the zero-height point at the slant range of sample,
// in the zero-doppler plane of line. The orbit is polar in the x-z plane, so
// that plane is spanned by the sensor position and the y axis.
func (s *Scene) groundPoint(m *core.SensorModel, line, sample float64) (model.GeoPoint, error) {
	t, rt, err := m.LineSampleToAzimuthRangeTime(model.ImagePoint{Line: line, Sample: sample})
	if err != nil {
		return model.GeoPoint{}, err
	}
	pos, _ := s.Orbit.State(t)
	slant := rt * model.SpeedOfLight / 2

	// Bisect the look angle on the plane through the sensor and the y axis
	// until the point on the line of sight at the slant range has zero
	// height. Height increases monotonically away from nadir.
	up := pos.Scale(1 / pos.Norm())
	east := model.Vec3{Y: 1}
	at := func(angle float64) model.GeoPoint {
		sin, cos := math.Sincos(angle)
		look := up.Scale(-cos).Add(east.Scale(sin))
		return core.ECEFToGeo(pos.Add(look.Scale(slant)))
	}
	lo, hi := 0.0, math.Pi/2
	for i := 0; i < 200 && hi-lo > 1e-13; i++ {
		mid := (lo + hi) / 2
		if at(mid).Height > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	g := at((lo + hi) / 2)
	if math.Abs(g.Height) > 0.01 {
		return model.GeoPoint{}, fmt.Errorf("scenegen: no ground intersection at line %.1f sample %.1f", line, sample)
	}
	g.Height = 0
	return g, nil
}
