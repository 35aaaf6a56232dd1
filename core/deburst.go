package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// DeburstResult describes a deburst image.
type DeburstResult struct {
	// Lines are the kept ranges of the original image lines, in order.
	Lines []LineRange
	// Samples is the range of original samples kept.
	Samples SampleRange
	// Model is the single-burst model of the deburst image. It is the
	// receiver itself when the product has a single burst.
	Model *SensorModel
}

// Deburst merges the bursts of a multi-burst product into one continuous
// line numbering. GCPs are moved to the deburst geometry; those falling on
// dropped lines (or outside the valid samples) are discarded.
func (m *SensorModel) Deburst(onlyValidSamples bool) (DeburstResult, error) {
	lines, samples, merged, err := DeburstLines(m.bursts, m.params.AzimuthTimeInterval, onlyValidSamples)
	if err != nil {
		return DeburstResult{}, fmt.Errorf("Deburst: %w", err)
	}
	if len(m.bursts) == 1 {
		return DeburstResult{Lines: lines, Samples: samples, Model: m}, nil
	}

	out := m.derive()
	out.bursts = []model.BurstRecord{merged}

	gcps := make([]model.GCPRecord, 0, len(m.gcps))
	for _, gcp := range m.gcps {
		line, lineFrac := splitPixel(gcp.ImagePoint.Line)
		sample, sampleFrac := splitPixel(gcp.ImagePoint.Sample)

		newLine, err := ImageLineToDeburstLine(lines, line)
		if err != nil {
			continue
		}
		if onlyValidSamples {
			if sample < samples.First || sample > samples.Last {
				continue
			}
			sample -= samples.First
		}
		gcp.ImagePoint = model.ImagePoint{
			Line:   float64(newLine) + lineFrac,
			Sample: float64(sample) + sampleFrac,
		}
		gcps = append(gcps, gcp)
	}
	out.gcps = gcps

	if onlyValidSamples {
		out.params.NearRangeTime += out.sampleTime(samples.First)
	}
	return DeburstResult{Lines: lines, Samples: samples, Model: out}, nil
}

// BurstExtraction returns a single-burst model restricted to burst index,
// with line and sample numbering starting at the burst origin. It also
// returns the original line and sample ranges of that burst.
func (m *SensorModel) BurstExtraction(index int) (*SensorModel, LineRange, SampleRange, error) {
	if index < 0 || index >= len(m.bursts) {
		return nil, LineRange{}, SampleRange{}, fmt.Errorf("BurstExtraction: burst %d of %d: %w", index, len(m.bursts), ErrBurstIndex)
	}
	b := m.bursts[index]
	lines := LineRange{First: b.StartLine, Last: b.EndLine}
	samples := SampleRange{First: b.StartSample, Last: b.EndSample}
	if len(m.bursts) == 1 {
		return m, lines, samples, nil
	}

	out := m.derive()
	out.bursts = []model.BurstRecord{{
		AzimuthStartTime: b.AzimuthStartTime,
		AzimuthStopTime:  b.AzimuthStopTime,
		StartLine:        0,
		EndLine:          lines.Last - lines.First,
		StartSample:      0,
		EndSample:        samples.Last - samples.First,
		AzimuthAnxTime:   b.AzimuthAnxTime,
	}}

	gcps := make([]model.GCPRecord, 0)
	for _, gcp := range m.gcps {
		line, lineFrac := splitPixel(gcp.ImagePoint.Line)
		sample, sampleFrac := splitPixel(gcp.ImagePoint.Sample)
		if !lines.Contains(line) || sample < samples.First || sample > samples.Last {
			continue
		}
		gcp.ImagePoint = model.ImagePoint{
			Line:   float64(line-lines.First) + lineFrac,
			Sample: float64(sample-samples.First) + sampleFrac,
		}
		gcps = append(gcps, gcp)
	}
	out.gcps = gcps
	out.params.NearRangeTime += out.sampleTime(samples.First)
	return out, lines, samples, nil
}

// sampleTime is the two-way range time spanned by n slant range samples.
func (m *SensorModel) sampleTime(n int) float64 {
	if m.params.RangeSamplingRate <= 0 {
		return 0
	}
	return float64(n) / m.params.RangeSamplingRate
}

// splitPixel rounds a fractional pixel coordinate to the nearest integer
// pixel and returns the remaining fraction.
func splitPixel(v float64) (int, float64) {
	p := math.Floor(v + 0.5)
	return int(p), v - p
}
