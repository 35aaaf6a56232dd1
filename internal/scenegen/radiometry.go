package scenegen

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// Radiometry is a synthetic set of radiometric annotations.
type Radiometry struct {
	Calibration  []model.CalibrationVector
	RangeNoise   []model.RangeNoiseVector
	AzimuthNoise []model.AzimuthNoiseVector
}

// Radiometry annotates the scene every lineStep lines and pixelStep
// pixels. Calibration values grow smoothly with range like an antenna
// pattern; noise has one azimuth block per burst.
func (s *Scene) Radiometry(lineStep, pixelStep int) (Radiometry, error) {
	if lineStep < 1 || pixelStep < 1 {
		return Radiometry{}, fmt.Errorf("scenegen: invalid LUT spacing %d×%d", lineStep, pixelStep)
	}
	lastLine := s.Records.Bursts[len(s.Records.Bursts)-1].EndLine
	lastPixel := s.Config.Samples - 1

	lines := gridSteps(lastLine, lineStep)
	pixels := gridSteps(lastPixel, pixelStep)

	var out Radiometry
	for _, line := range lines {
		t := s.lineTime(line)
		cal := model.CalibrationVector{AzimuthTime: t, Line: line, Pixels: pixels}
		noise := model.RangeNoiseVector{AzimuthTime: t, Line: line, Pixels: pixels}
		for _, p := range pixels {
			x := float64(p) / float64(max(lastPixel, 1))
			beta := 237 + 0.01*float64(line)/float64(max(lastLine, 1))
			sigma := beta * (1 + 0.2*x)
			cal.BetaNought = append(cal.BetaNought, beta)
			cal.SigmaNought = append(cal.SigmaNought, sigma)
			cal.Gamma = append(cal.Gamma, sigma*math.Sqrt(1+0.1*x))
			cal.DN = append(cal.DN, beta)
			noise.Values = append(noise.Values, 50+30*math.Sin(math.Pi*x))
		}
		out.Calibration = append(out.Calibration, cal)
		out.RangeNoise = append(out.RangeNoise, noise)
	}

	for i, b := range s.Records.Bursts {
		out.AzimuthNoise = append(out.AzimuthNoise, model.AzimuthNoiseVector{
			Swath:            fmt.Sprintf("burst%d", i+1),
			FirstAzimuthLine: b.StartLine,
			LastAzimuthLine:  b.EndLine,
			FirstRangeSample: b.StartSample,
			LastRangeSample:  b.EndSample,
			Lines:            []int{b.StartLine, (b.StartLine + b.EndLine) / 2, b.EndLine},
			Values:           []float64{0.9, 1, 0.9},
		})
	}
	return out, nil
}

func (s *Scene) lineTime(line int) model.Instant {
	for _, b := range s.Records.Bursts {
		if line >= b.StartLine && line <= b.EndLine {
			return b.AzimuthStartTime.Add(s.Config.AzimuthTimeInterval.Scale(float64(line - b.StartLine)))
		}
	}
	return s.Records.Bursts[0].AzimuthStartTime
}

// gridSteps returns 0, step, 2·step, ... and always ends on last.
func gridSteps(last, step int) []int {
	var out []int
	for v := 0; v < last; v += step {
		out = append(out, v)
	}
	return append(out, last)
}
