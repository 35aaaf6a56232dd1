// Package scenefile reads and writes SAR scene descriptions as YAML. A
// scene file carries the already-parsed product annotation: acquisition
// parameters, orbit, bursts, GCPs, range conversion polynomials and the
// radiometric lookup tables.
package scenefile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/model"
	"github.com/signalsfoundry/sar-geolocation/radiometry"
)

// Scene is a decoded scene file.
type Scene struct {
	Name    string
	Params  model.SARParameters
	Records core.Records
	// Offsets are calibrated time offsets, applied when building the model.
	Offsets core.TimeOffsets

	Calibration                 []model.CalibrationVector
	AbsoluteCalibrationConstant float64
	RangeNoise                  []model.RangeNoiseVector
	AzimuthNoise                []model.AzimuthNoiseVector
}

// internal YAML shapes; times are RFC 3339 strings, durations seconds.
type sceneYAML struct {
	Name        string           `yaml:"name,omitempty"`
	Product     productYAML      `yaml:"product"`
	Offsets     *offsetsYAML     `yaml:"offsets,omitempty"`
	Orbit       []orbitYAML      `yaml:"orbit"`
	Bursts      []burstYAML      `yaml:"bursts"`
	GCPs        []gcpYAML        `yaml:"gcps,omitempty"`
	SRGR        []convYAML       `yaml:"slant_to_ground,omitempty"`
	GRSR        []convYAML       `yaml:"ground_to_slant,omitempty"`
	Calibration *calibrationYAML `yaml:"calibration,omitempty"`
	Noise       *noiseYAML       `yaml:"noise,omitempty"`
}

type productYAML struct {
	Kind                string  `yaml:"kind"`
	RadarFrequency      float64 `yaml:"radar_frequency"`
	AzimuthTimeInterval float64 `yaml:"azimuth_time_interval"`
	NearRangeTime       float64 `yaml:"near_range_time"`
	RangeSamplingRate   float64 `yaml:"range_sampling_rate,omitempty"`
	RangeResolution     float64 `yaml:"range_resolution,omitempty"`
	BistaticCorrection  bool    `yaml:"bistatic_correction,omitempty"`
	LookSide            string  `yaml:"look_side,omitempty"` // "right" (default) | "left"
}

type offsetsYAML struct {
	Azimuth float64 `yaml:"azimuth"`
	Range   float64 `yaml:"range"`
}

type vecYAML [3]float64

type orbitYAML struct {
	Time     string  `yaml:"time"`
	Position vecYAML `yaml:"position,flow"`
	Velocity vecYAML `yaml:"velocity,flow"`
}

type burstYAML struct {
	AzimuthStartTime string  `yaml:"azimuth_start_time"`
	AzimuthStopTime  string  `yaml:"azimuth_stop_time"`
	AzimuthAnxTime   float64 `yaml:"azimuth_anx_time,omitempty"` // seconds since ascending node
	StartLine        int     `yaml:"start_line"`
	EndLine          int     `yaml:"end_line"`
	StartSample      int     `yaml:"start_sample"`
	EndSample        int     `yaml:"end_sample"`
}

type gcpYAML struct {
	ID             string  `yaml:"id"`
	AzimuthTime    string  `yaml:"azimuth_time"`
	SlantRangeTime float64 `yaml:"slant_range_time"`
	Line           float64 `yaml:"line"`
	Sample         float64 `yaml:"sample"`
	Lat            float64 `yaml:"lat"`
	Lon            float64 `yaml:"lon"`
	Height         float64 `yaml:"height"`
}

type convYAML struct {
	AzimuthTime  string    `yaml:"azimuth_time"`
	Rg0          float64   `yaml:"rg0"`
	Coefficients []float64 `yaml:"coefficients,flow"`
}

type calibrationYAML struct {
	AbsoluteConstant float64                 `yaml:"absolute_constant,omitempty"`
	Vectors          []calibrationVectorYAML `yaml:"vectors"`
}

type calibrationVectorYAML struct {
	AzimuthTime string    `yaml:"azimuth_time,omitempty"`
	Line        int       `yaml:"line"`
	Pixels      []int     `yaml:"pixels,flow"`
	SigmaNought []float64 `yaml:"sigma_nought,flow,omitempty"`
	BetaNought  []float64 `yaml:"beta_nought,flow,omitempty"`
	Gamma       []float64 `yaml:"gamma,flow,omitempty"`
	DN          []float64 `yaml:"dn,flow,omitempty"`
}

type noiseYAML struct {
	Range   []rangeNoiseYAML   `yaml:"range,omitempty"`
	Azimuth []azimuthNoiseYAML `yaml:"azimuth,omitempty"`
}

type rangeNoiseYAML struct {
	AzimuthTime string    `yaml:"azimuth_time,omitempty"`
	Line        int       `yaml:"line"`
	Pixels      []int     `yaml:"pixels,flow"`
	Values      []float64 `yaml:"values,flow"`
}

type azimuthNoiseYAML struct {
	Swath            string    `yaml:"swath,omitempty"`
	FirstAzimuthLine int       `yaml:"first_azimuth_line"`
	LastAzimuthLine  int       `yaml:"last_azimuth_line"`
	FirstRangeSample int       `yaml:"first_range_sample"`
	LastRangeSample  int       `yaml:"last_range_sample"`
	Lines            []int     `yaml:"lines,flow"`
	Values           []float64 `yaml:"values,flow"`
}

// Load decodes a scene from r. It fails on YAML and field format errors
// only; model level validation happens in Model.
func Load(r io.Reader) (*Scene, error) {
	var payload sceneYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("scenefile: decode failed: %w", err)
	}
	return payload.scene()
}

// LoadFile reads the scene file at path.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Write encodes s as YAML.
func (s *Scene) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromScene(s)); err != nil {
		return fmt.Errorf("scenefile: encode failed: %w", err)
	}
	return enc.Close()
}

// WriteFile writes s to path, replacing any existing file.
func (s *Scene) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("scenefile: %w", err)
	}
	return nil
}

// Model builds the sensor model of the scene. Stored offsets are applied
// before any caller supplied option.
func (s *Scene) Model(opts ...core.Option) (*core.SensorModel, error) {
	all := make([]core.Option, 0, len(opts)+1)
	if s.Offsets != (core.TimeOffsets{}) {
		all = append(all, core.WithTimeOffsets(s.Offsets.Azimuth, s.Offsets.Range))
	}
	all = append(all, opts...)
	return core.NewSensorModel(s.Params, s.Records, all...)
}

// CalibrationLUT builds the calibration table of the given kind.
func (s *Scene) CalibrationLUT(kind radiometry.CalibrationKind) (*radiometry.CalibrationLUT, error) {
	return radiometry.NewCalibrationLUT(kind, s.Calibration, radiometry.WithAbsoluteConstant(s.AbsoluteCalibrationConstant))
}

// NoiseLUT builds the thermal noise table.
func (s *Scene) NoiseLUT() (*radiometry.NoiseLUT, error) {
	return radiometry.NewNoiseLUT(s.RangeNoise, s.AzimuthNoise)
}

func (p sceneYAML) scene() (*Scene, error) {
	kind, err := model.ParseProductKind(p.Product.Kind)
	if err != nil {
		return nil, fmt.Errorf("scenefile: product: %w", err)
	}
	s := &Scene{
		Name: p.Name,
		Params: model.SARParameters{
			Product:             kind,
			RadarFrequency:      p.Product.RadarFrequency,
			AzimuthTimeInterval: model.Seconds(p.Product.AzimuthTimeInterval),
			NearRangeTime:       p.Product.NearRangeTime,
			RangeSamplingRate:   p.Product.RangeSamplingRate,
			RangeResolution:     p.Product.RangeResolution,
			BistaticCorrection:  p.Product.BistaticCorrection,
		},
	}
	switch p.Product.LookSide {
	case "", "right", "RIGHT":
		s.Params.RightLooking = true
	case "left", "LEFT":
	default:
		return nil, fmt.Errorf("scenefile: product: invalid look side %q", p.Product.LookSide)
	}
	if p.Offsets != nil {
		s.Offsets = core.TimeOffsets{Azimuth: model.Seconds(p.Offsets.Azimuth), Range: p.Offsets.Range}
	}

	for i, o := range p.Orbit {
		t, err := model.ParseInstant(o.Time)
		if err != nil {
			return nil, fmt.Errorf("scenefile: orbit %d: %w", i, err)
		}
		s.Records.Orbits = append(s.Records.Orbits, model.OrbitRecord{Time: t, Position: o.Position.vec(), Velocity: o.Velocity.vec()})
	}
	for i, b := range p.Bursts {
		rec := model.BurstRecord{
			StartLine:      b.StartLine,
			EndLine:        b.EndLine,
			StartSample:    b.StartSample,
			EndSample:      b.EndSample,
			AzimuthAnxTime: b.AzimuthAnxTime,
		}
		if rec.AzimuthStartTime, err = model.ParseInstant(b.AzimuthStartTime); err != nil {
			return nil, fmt.Errorf("scenefile: burst %d: %w", i, err)
		}
		if rec.AzimuthStopTime, err = model.ParseInstant(b.AzimuthStopTime); err != nil {
			return nil, fmt.Errorf("scenefile: burst %d: %w", i, err)
		}
		s.Records.Bursts = append(s.Records.Bursts, rec)
	}
	for i, g := range p.GCPs {
		t, err := model.ParseInstant(g.AzimuthTime)
		if err != nil {
			return nil, fmt.Errorf("scenefile: gcp %d: %w", i, err)
		}
		s.Records.GCPs = append(s.Records.GCPs, model.GCPRecord{
			ID:             g.ID,
			AzimuthTime:    t,
			SlantRangeTime: g.SlantRangeTime,
			ImagePoint:     model.ImagePoint{Line: g.Line, Sample: g.Sample},
			WorldPoint:     model.GeoPoint{Lat: g.Lat, Lon: g.Lon, Height: g.Height},
		})
	}
	if s.Records.SlantToGround, err = convRecords("slant_to_ground", p.SRGR); err != nil {
		return nil, err
	}
	if s.Records.GroundToSlant, err = convRecords("ground_to_slant", p.GRSR); err != nil {
		return nil, err
	}

	if c := p.Calibration; c != nil {
		s.AbsoluteCalibrationConstant = c.AbsoluteConstant
		for i, v := range c.Vectors {
			t, err := optionalInstant(v.AzimuthTime)
			if err != nil {
				return nil, fmt.Errorf("scenefile: calibration vector %d: %w", i, err)
			}
			s.Calibration = append(s.Calibration, model.CalibrationVector{
				AzimuthTime: t, Line: v.Line, Pixels: v.Pixels,
				SigmaNought: v.SigmaNought, BetaNought: v.BetaNought, Gamma: v.Gamma, DN: v.DN,
			})
		}
	}
	if n := p.Noise; n != nil {
		for i, v := range n.Range {
			t, err := optionalInstant(v.AzimuthTime)
			if err != nil {
				return nil, fmt.Errorf("scenefile: range noise vector %d: %w", i, err)
			}
			s.RangeNoise = append(s.RangeNoise, model.RangeNoiseVector{AzimuthTime: t, Line: v.Line, Pixels: v.Pixels, Values: v.Values})
		}
		for _, v := range n.Azimuth {
			s.AzimuthNoise = append(s.AzimuthNoise, model.AzimuthNoiseVector{
				Swath:            v.Swath,
				FirstAzimuthLine: v.FirstAzimuthLine,
				LastAzimuthLine:  v.LastAzimuthLine,
				FirstRangeSample: v.FirstRangeSample,
				LastRangeSample:  v.LastRangeSample,
				Lines:            v.Lines,
				Values:           v.Values,
			})
		}
	}
	return s, nil
}

func convRecords(what string, in []convYAML) ([]model.CoordinateConversionRecord, error) {
	var out []model.CoordinateConversionRecord
	for i, c := range in {
		t, err := model.ParseInstant(c.AzimuthTime)
		if err != nil {
			return nil, fmt.Errorf("scenefile: %s %d: %w", what, i, err)
		}
		out = append(out, model.CoordinateConversionRecord{AzimuthTime: t, Rg0: c.Rg0, Coefficients: c.Coefficients})
	}
	return out, nil
}

func optionalInstant(s string) (model.Instant, error) {
	if s == "" {
		return model.Instant{}, nil
	}
	return model.ParseInstant(s)
}

func formatOptional(t model.Instant) string {
	if t.IsZero() {
		return ""
	}
	return t.String()
}

func (v vecYAML) vec() model.Vec3 { return model.Vec3{X: v[0], Y: v[1], Z: v[2]} }

func toVec(v model.Vec3) vecYAML { return vecYAML{v.X, v.Y, v.Z} }

func fromScene(s *Scene) sceneYAML {
	p := sceneYAML{
		Name: s.Name,
		Product: productYAML{
			Kind:                s.Params.Product.String(),
			RadarFrequency:      s.Params.RadarFrequency,
			AzimuthTimeInterval: s.Params.AzimuthTimeInterval.Seconds(),
			NearRangeTime:       s.Params.NearRangeTime,
			RangeSamplingRate:   s.Params.RangeSamplingRate,
			RangeResolution:     s.Params.RangeResolution,
			BistaticCorrection:  s.Params.BistaticCorrection,
			LookSide:            "right",
		},
	}
	if !s.Params.RightLooking {
		p.Product.LookSide = "left"
	}
	if s.Offsets != (core.TimeOffsets{}) {
		p.Offsets = &offsetsYAML{Azimuth: s.Offsets.Azimuth.Seconds(), Range: s.Offsets.Range}
	}
	for _, o := range s.Records.Orbits {
		p.Orbit = append(p.Orbit, orbitYAML{Time: o.Time.String(), Position: toVec(o.Position), Velocity: toVec(o.Velocity)})
	}
	for _, b := range s.Records.Bursts {
		p.Bursts = append(p.Bursts, burstYAML{
			AzimuthStartTime: b.AzimuthStartTime.String(),
			AzimuthStopTime:  b.AzimuthStopTime.String(),
			AzimuthAnxTime:   b.AzimuthAnxTime,
			StartLine:        b.StartLine,
			EndLine:          b.EndLine,
			StartSample:      b.StartSample,
			EndSample:        b.EndSample,
		})
	}
	for _, g := range s.Records.GCPs {
		p.GCPs = append(p.GCPs, gcpYAML{
			ID:             g.ID,
			AzimuthTime:    g.AzimuthTime.String(),
			SlantRangeTime: g.SlantRangeTime,
			Line:           g.ImagePoint.Line,
			Sample:         g.ImagePoint.Sample,
			Lat:            g.WorldPoint.Lat,
			Lon:            g.WorldPoint.Lon,
			Height:         g.WorldPoint.Height,
		})
	}
	for _, c := range s.Records.SlantToGround {
		p.SRGR = append(p.SRGR, convYAML{AzimuthTime: c.AzimuthTime.String(), Rg0: c.Rg0, Coefficients: c.Coefficients})
	}
	for _, c := range s.Records.GroundToSlant {
		p.GRSR = append(p.GRSR, convYAML{AzimuthTime: c.AzimuthTime.String(), Rg0: c.Rg0, Coefficients: c.Coefficients})
	}
	if len(s.Calibration) > 0 {
		p.Calibration = &calibrationYAML{AbsoluteConstant: s.AbsoluteCalibrationConstant}
		for _, v := range s.Calibration {
			p.Calibration.Vectors = append(p.Calibration.Vectors, calibrationVectorYAML{
				AzimuthTime: formatOptional(v.AzimuthTime),
				Line:        v.Line,
				Pixels:      v.Pixels,
				SigmaNought: v.SigmaNought,
				BetaNought:  v.BetaNought,
				Gamma:       v.Gamma,
				DN:          v.DN,
			})
		}
	}
	if len(s.RangeNoise) > 0 || len(s.AzimuthNoise) > 0 {
		p.Noise = &noiseYAML{}
		for _, v := range s.RangeNoise {
			p.Noise.Range = append(p.Noise.Range, rangeNoiseYAML{AzimuthTime: formatOptional(v.AzimuthTime), Line: v.Line, Pixels: v.Pixels, Values: v.Values})
		}
		for _, v := range s.AzimuthNoise {
			p.Noise.Azimuth = append(p.Noise.Azimuth, azimuthNoiseYAML{
				Swath:            v.Swath,
				FirstAzimuthLine: v.FirstAzimuthLine,
				LastAzimuthLine:  v.LastAzimuthLine,
				FirstRangeSample: v.FirstRangeSample,
				LastRangeSample:  v.LastRangeSample,
				Lines:            v.Lines,
				Values:           v.Values,
			})
		}
	}
	return p
}
