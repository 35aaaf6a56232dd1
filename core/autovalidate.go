package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-geolocation/model"
)

// InverseTolerances bound the residuals accepted by
// AutovalidateInverseModelFromGCPs.
type InverseTolerances struct {
	Sample      float64 // pixels
	Line        float64 // pixels
	AzimuthTime float64 // microseconds
	RangeTime   float64 // seconds
}

// GCPResidual is the per-GCP outcome of a validation run.
type GCPResidual struct {
	ID string
	// Image is predicted minus annotated image position.
	Image model.ImagePoint
	// AzimuthTime and RangeTime are predicted minus annotated times.
	AzimuthTime model.Duration
	RangeTime   float64
	// World is the distance in metres between the annotated and the
	// estimated ground position (image to ground validation only).
	World float64
	Err   error
	OK    bool
}

// ValidationReport summarises a validation run.
type ValidationReport struct {
	Passed    bool
	Residuals []GCPResidual
}

// Failed returns the residuals of the GCPs that did not pass.
func (r ValidationReport) Failed() []GCPResidual {
	var out []GCPResidual
	for _, res := range r.Residuals {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

// AutovalidateInverseModelFromGCPs projects every GCP ground point into the
// image and compares the predicted image position and times with the
// annotated ones.
func (m *SensorModel) AutovalidateInverseModelFromGCPs(tol InverseTolerances) (ValidationReport, error) {
	if len(m.gcps) == 0 {
		return ValidationReport{}, fmt.Errorf("AutovalidateInverseModelFromGCPs: %w", ErrEmptyGCPSet)
	}

	report := ValidationReport{Passed: true, Residuals: make([]GCPResidual, 0, len(m.gcps))}
	for _, gcp := range m.gcps {
		r := GCPResidual{ID: gcp.ID}
		point := GeoToECEF(gcp.WorldPoint)
		img, sol, err := m.worldToImage(point)
		if err != nil {
			r.Err = err
		} else {
			r.Image = model.ImagePoint{
				Line:   img.Line - gcp.ImagePoint.Line,
				Sample: img.Sample - gcp.ImagePoint.Sample,
			}
			r.AzimuthTime = sol.AzimuthTime.Sub(gcp.AzimuthTime)
			r.RangeTime = m.rangeTime(sol) - gcp.SlantRangeTime
			r.OK = math.Abs(r.Image.Sample) <= tol.Sample &&
				math.Abs(r.Image.Line) <= tol.Line &&
				math.Abs(r.AzimuthTime.Microseconds()) <= tol.AzimuthTime &&
				math.Abs(r.RangeTime) <= tol.RangeTime
		}
		report.Passed = report.Passed && r.OK
		report.Residuals = append(report.Residuals, r)
	}
	return report, nil
}

// AutovalidateForwardModelFromGCPs holds out every second GCP, locates its
// image position on the ground at its annotated height using the remaining
// GCPs as seeds, and checks the distance to the annotated ground point
// against tolerance (metres). With an odd GCP count the last one is unused.
func (m *SensorModel) AutovalidateForwardModelFromGCPs(ctx context.Context, tolerance float64) (ValidationReport, error) {
	if len(m.gcps) < 2 {
		return ValidationReport{}, fmt.Errorf("AutovalidateForwardModelFromGCPs: %d GCPs, need 2: %w", len(m.gcps), ErrEmptyGCPSet)
	}

	n := len(m.gcps) / 2
	seeds := make([]model.GCPRecord, 0, n)
	tests := make([]model.GCPRecord, 0, n)
	for i := 0; i+1 < len(m.gcps); i += 2 {
		seeds = append(seeds, m.gcps[i])
		tests = append(tests, m.gcps[i+1])
	}
	seeded := m.WithGCPs(seeds)

	report := ValidationReport{Passed: true, Residuals: make([]GCPResidual, 0, len(tests))}
	for _, gcp := range tests {
		r := GCPResidual{ID: gcp.ID}
		if t, rt, err := seeded.LineSampleToAzimuthRangeTime(gcp.ImagePoint); err == nil {
			r.AzimuthTime = t.Sub(gcp.AzimuthTime)
			r.RangeTime = rt - gcp.SlantRangeTime
		}

		res, err := seeded.LineSampleHeightToWorld(ctx, gcp.ImagePoint, gcp.WorldPoint.Height)
		switch {
		case err != nil:
			r.Err = err
		case res.World.IsNaN():
			r.Err = fmt.Errorf("GCP %q: estimate is NaN", gcp.ID)
		default:
			r.World = GeoToECEF(gcp.WorldPoint).DistanceTo(GeoToECEF(res.World))
			r.OK = r.World <= tolerance
		}
		report.Passed = report.Passed && r.OK
		report.Residuals = append(report.Residuals, r)
	}
	return report, nil
}
