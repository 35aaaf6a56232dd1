package core

import (
	"cmp"
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-geolocation/internal/bracket"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// LineRange is an inclusive range of image lines.
type LineRange struct {
	First int
	Last  int
}

// Len returns the number of lines in the range.
func (r LineRange) Len() int { return r.Last - r.First + 1 }

// Contains reports whether line lies within the range.
func (r LineRange) Contains(line int) bool { return line >= r.First && line <= r.Last }

// SampleRange is an inclusive range of image samples.
type SampleRange struct {
	First int
	Last  int
}

// AzimuthTimeToLine returns the (fractional) image line acquired at t. The
// burst whose [start, stop) time interval contains t is used; times outside
// every burst fall back to the first or preceding burst.
func (m *SensorModel) AzimuthTimeToLine(t model.Instant) float64 {
	return azimuthTimeToLine(m.bursts, m.params.AzimuthTimeInterval, t)
}

// LineToAzimuthTime returns the azimuth time of a (fractional) image line.
func (m *SensorModel) LineToAzimuthTime(line float64) model.Instant {
	return lineToAzimuthTime(m.bursts, m.params.AzimuthTimeInterval, line)
}

func azimuthTimeToLine(bursts []model.BurstRecord, ati model.Duration, t model.Instant) float64 {
	i, _ := bracket.Span(len(bursts), func(i int) (model.Instant, model.Instant) {
		return bursts[i].AzimuthStartTime, bursts[i].AzimuthStopTime
	}, model.Instant.Compare, t)
	b := bursts[i]
	return float64(b.StartLine) + t.Sub(b.AzimuthStartTime).Ratio(ati)
}

func lineToAzimuthTime(bursts []model.BurstRecord, ati model.Duration, line float64) model.Instant {
	i, _ := bracket.Span(len(bursts), func(i int) (float64, float64) {
		return float64(bursts[i].StartLine), float64(bursts[i].EndLine)
	}, cmp.Compare[float64], line)
	b := bursts[i]
	return b.AzimuthStartTime.Add(ati.Scale(line - float64(b.StartLine)))
}

// DeburstLines computes the line ranges kept when merging consecutive
// bursts, dropping half of each time overlap on both sides of every burst
// boundary. It also returns the sample range and the single burst record
// describing the merged image. When onlyValidSamples is set, the sample
// range is narrowed to the samples valid in every burst.
//
// A single burst yields its own line range and record unchanged.
func DeburstLines(bursts []model.BurstRecord, ati model.Duration, onlyValidSamples bool) ([]LineRange, SampleRange, model.BurstRecord, error) {
	switch {
	case len(bursts) == 0:
		return nil, SampleRange{}, model.BurstRecord{}, ErrNoBursts
	case ati <= 0:
		return nil, SampleRange{}, model.BurstRecord{}, fmt.Errorf("azimuth time interval %v: %w", ati, ErrInvalidParameter)
	case len(bursts) == 1:
		b := bursts[0]
		return []LineRange{{First: b.StartLine, Last: b.EndLine}},
			SampleRange{First: b.StartSample, Last: b.EndSample}, b, nil
	}

	lines := make([]LineRange, 0, len(bursts))
	samples := SampleRange{First: bursts[0].StartSample, Last: bursts[0].EndSample}
	narrow := func(b model.BurstRecord) {
		if !onlyValidSamples {
			return
		}
		samples.First = max(samples.First, b.StartSample)
		samples.Last = min(samples.Last, b.EndSample)
	}

	currentStart := bursts[0].StartLine
	endLine := 0
	for i := 0; i+1 < len(bursts); i++ {
		cur, next := bursts[i], bursts[i+1]

		overlap := max(int(cur.AzimuthStopTime.Sub(next.AzimuthStartTime).Ratio(ati)), 0)
		halfEnd := overlap / 2
		endTimeInNext := cur.AzimuthStopTime.Add(-ati * model.Duration(halfEnd-1))
		halfBegin := max(roundHalfUp(endTimeInNext.Sub(next.AzimuthStartTime).Ratio(ati)), 0)

		currentStop := cur.EndLine - halfEnd
		endLine += currentStop - currentStart + 1
		lines = append(lines, LineRange{First: currentStart, Last: currentStop})

		currentStart = next.StartLine + halfBegin
		narrow(cur)
	}
	last := bursts[len(bursts)-1]
	endLine += last.EndLine - currentStart
	lines = append(lines, LineRange{First: currentStart, Last: last.EndLine})
	narrow(last)

	merged := model.BurstRecord{
		AzimuthStartTime: bursts[0].AzimuthStartTime,
		AzimuthStopTime:  last.AzimuthStopTime,
		StartLine:        0,
		EndLine:          endLine,
		AzimuthAnxTime:   bursts[0].AzimuthAnxTime,
	}
	if onlyValidSamples {
		merged.EndSample = samples.Last - samples.First
	}
	return lines, samples, merged, nil
}

// ImageLineToDeburstLine maps an original image line to its line in the
// deburst image. Lines dropped by deburst return ErrLineOutsideDeburst.
func ImageLineToDeburstLine(lines []LineRange, imageLine int) (int, error) {
	if len(lines) == 0 {
		return 0, ErrLineOutsideDeburst
	}
	offset := lines[0].First
	for i, r := range lines {
		if r.Contains(imageLine) {
			return imageLine - offset, nil
		}
		if i+1 < len(lines) {
			offset += lines[i+1].First - r.Last - 1
		}
	}
	return 0, fmt.Errorf("image line %d: %w", imageLine, ErrLineOutsideDeburst)
}

// DeburstLineToImageLine is the inverse of ImageLineToDeburstLine.
func DeburstLineToImageLine(lines []LineRange, deburstLine int) (int, error) {
	if len(lines) == 0 || deburstLine < 0 {
		return 0, fmt.Errorf("deburst line %d: %w", deburstLine, ErrLineOutsideDeburst)
	}
	offset := lines[0].First
	for i, r := range lines {
		if r.Contains(deburstLine + offset) {
			return deburstLine + offset, nil
		}
		if i+1 < len(lines) {
			offset += lines[i+1].First - r.Last - 1
		}
	}
	return 0, fmt.Errorf("deburst line %d: %w", deburstLine, ErrLineOutsideDeburst)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(0.5 + x))
}
