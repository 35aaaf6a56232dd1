package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// Newton stopping thresholds and finite difference step.
const (
	imageTolerance  = 0.01 // pixels
	heightTolerance = 0.01 // metres
	jacobianStep    = 10.0 // metres
)

// HeightReference supplies the reference elevation (metres above the
// ellipsoid) the inverse solve projects onto, typically a DEM lookup.
type HeightReference interface {
	HeightAt(p model.GeoPoint) float64
}

// HeightFunc adapts a function to HeightReference.
type HeightFunc func(p model.GeoPoint) float64

// HeightAt calls f(p).
func (f HeightFunc) HeightAt(p model.GeoPoint) float64 { return f(p) }

// ConstantHeight is a flat reference surface at a fixed ellipsoidal height.
type ConstantHeight float64

// HeightAt returns h for every point.
func (h ConstantHeight) HeightAt(model.GeoPoint) float64 { return float64(h) }

// InverseResult is the outcome of an image to ground solve. The solve
// returns its best estimate even when it stops on the iteration budget or a
// singular Jacobian; Converged tells whether both residuals are within
// tolerance. A solve that fails on an iterate outside the orbit coverage
// still reports the seed, the iterations done and the last valid estimate.
type InverseResult struct {
	World          model.GeoPoint
	Iterations     int
	ImageResidual  float64 // pixels
	HeightResidual float64 // metres
	Converged      bool
	Singular       bool
	SeedGCP        string
}

// WorldToAzimuthRangeTime returns the zero-doppler azimuth time of p and its
// two-way slant range time, both including the calibration offsets.
func (m *SensorModel) WorldToAzimuthRangeTime(p model.GeoPoint) (model.Instant, float64, error) {
	sol, err := m.ZeroDopplerLookup(GeoToECEF(p))
	if err != nil {
		return model.Instant{}, 0, err
	}
	return sol.AzimuthTime, m.rangeTime(sol), nil
}

func (m *SensorModel) rangeTime(sol ZeroDopplerSolution) float64 {
	return 2*sol.Range/model.SpeedOfLight + m.offsets.Range
}

// WorldToLineSample projects a ground point into the image.
func (m *SensorModel) WorldToLineSample(p model.GeoPoint) (model.ImagePoint, error) {
	img, _, err := m.worldToImage(GeoToECEF(p))
	m.recorder.ObserveWorldToImage(err)
	return img, err
}

// WorldToLineSampleYZ projects a ground point into the image and also
// returns its cross-track (y) and radial (z) coordinates in the sensor
// frame. y is positive on the illuminated side.
func (m *SensorModel) WorldToLineSampleYZ(p model.GeoPoint) (model.ImagePoint, float64, float64, error) {
	point := GeoToECEF(p)
	img, sol, err := m.worldToImage(point)
	m.recorder.ObserveWorldToImage(err)
	if err != nil {
		return model.ImagePoint{}, 0, 0, err
	}

	pos, vel := sol.SensorPosition, sol.SensorVelocity
	norm := pos.Norm()
	z := norm - point.Dot(pos)/norm
	y := math.Sqrt(math.Max(sol.Range*sol.Range-z*z, 0))
	if (vel.Dot(pos.Cross(point)) > 0) != m.params.RightLooking {
		y = -y
	}
	return img, y, z, nil
}

func (m *SensorModel) worldToImage(point model.Vec3) (model.ImagePoint, ZeroDopplerSolution, error) {
	sol, err := m.ZeroDopplerLookup(point)
	if err != nil {
		return model.ImagePoint{}, sol, err
	}
	rt := m.rangeTime(sol)

	img := model.ImagePoint{Line: m.AzimuthTimeToLine(sol.AzimuthTime)}
	if m.IsGroundRange() {
		gr, err := m.SlantRangeToGroundRange(rt*model.SpeedOfLight/2, sol.AzimuthTime)
		if err != nil {
			return model.ImagePoint{}, sol, err
		}
		img.Sample = gr / m.params.RangeResolution
	} else {
		img.Sample = (rt - m.params.NearRangeTime) * m.params.RangeSamplingRate
	}
	return img, sol, nil
}

// LineSampleToAzimuthRangeTime returns the azimuth time and two-way slant
// range time annotated for an image position. Offsets are not applied: they
// are already part of the image geometry.
func (m *SensorModel) LineSampleToAzimuthRangeTime(img model.ImagePoint) (model.Instant, float64, error) {
	t := m.LineToAzimuthTime(img.Line)
	if !m.IsGroundRange() {
		return t, m.params.NearRangeTime + img.Sample/m.params.RangeSamplingRate, nil
	}
	sr, err := m.GroundRangeToSlantRange(img.Sample*m.params.RangeResolution, t)
	if err != nil {
		return model.Instant{}, 0, err
	}
	return t, 2 * sr / model.SpeedOfLight, nil
}

// LineSampleToWorld locates the ground point imaged at img on the surface
// given by ref.
func (m *SensorModel) LineSampleToWorld(ctx context.Context, img model.ImagePoint, ref HeightReference) (InverseResult, error) {
	gcp, err := m.closestGCP(img)
	if err != nil {
		m.recorder.ObserveImageToWorld(InverseResult{}, err)
		return InverseResult{}, fmt.Errorf("LineSampleToWorld: %w", err)
	}
	res, err := m.projectToSurface(ctx, gcp, img, ref)
	m.recorder.ObserveImageToWorld(res, err)
	return res, err
}

// LineSampleHeightToWorld locates the ground point imaged at img at a fixed
// ellipsoidal height. A NaN height uses the height of the seed GCP.
func (m *SensorModel) LineSampleHeightToWorld(ctx context.Context, img model.ImagePoint, height float64) (InverseResult, error) {
	gcp, err := m.closestGCP(img)
	if err != nil {
		m.recorder.ObserveImageToWorld(InverseResult{}, err)
		return InverseResult{}, fmt.Errorf("LineSampleHeightToWorld: %w", err)
	}
	if math.IsNaN(height) {
		height = gcp.WorldPoint.Height
	}
	res, err := m.projectToSurface(ctx, gcp, img, ConstantHeight(height))
	m.recorder.ObserveImageToWorld(res, err)
	return res, err
}

// closestGCP returns the GCP nearest to img in the image plane. Ties keep
// the first one found.
func (m *SensorModel) closestGCP(img model.ImagePoint) (model.GCPRecord, error) {
	return closestGCP(m.gcps, img)
}

func closestGCP(gcps []model.GCPRecord, img model.ImagePoint) (model.GCPRecord, error) {
	if len(gcps) == 0 {
		return model.GCPRecord{}, ErrEmptyGCPSet
	}
	best := 0
	bestDist := img.SquaredDistanceTo(gcps[0].ImagePoint)
	for i := 1; i < len(gcps); i++ {
		if d := img.SquaredDistanceTo(gcps[i].ImagePoint); d < bestDist {
			best, bestDist = i, d
		}
	}
	return gcps[best], nil
}

// projectToSurface runs the Newton solve seeded at the GCP ground point.
// Each step estimates the Jacobian of (sample, line, height) with respect to
// the ECEF coordinates by finite differences and solves the 3×3 system for
// the correction. When an iterate leaves the orbit coverage the last valid
// estimate is returned along with the error.
func (m *SensorModel) projectToSurface(ctx context.Context, seed model.GCPRecord, target model.ImagePoint, ref HeightReference) (InverseResult, error) {
	cur := GeoToECEF(seed.WorldPoint)
	curGeo := seed.WorldPoint
	res := InverseResult{World: curGeo, SeedGCP: seed.ID}
	curImg, _, err := m.worldToImage(cur)
	if err != nil {
		return res, fmt.Errorf("seed GCP %q: %w", seed.ID, err)
	}
	heightRes := ref.HeightAt(curGeo) - curGeo.Height
	imgSq := curImg.SquaredDistanceTo(target)

	var (
		jac = mat.NewDense(3, 3, nil)
		f   = mat.NewVecDense(3, nil)
		dr  mat.VecDense
	)
	steps := [3]model.Vec3{{X: jacobianStep}, {Y: jacobianStep}, {Z: jacobianStep}}

	for first := true; (first || imgSq > imageTolerance*imageTolerance || math.Abs(heightRes) > heightTolerance) && res.Iterations < m.maxIter; first = false {
		f.SetVec(0, target.Sample-curImg.Sample)
		f.SetVec(1, target.Line-curImg.Line)
		f.SetVec(2, heightRes)

		for k, d := range steps {
			p := cur.Add(d)
			pImg, _, err := m.worldToImage(p)
			if err != nil {
				return settle(res, curGeo, imgSq, heightRes), fmt.Errorf("jacobian at iteration %d: %w", res.Iterations, err)
			}
			jac.Set(0, k, (curImg.Sample-pImg.Sample)/jacobianStep)
			jac.Set(1, k, (curImg.Line-pImg.Line)/jacobianStep)
			jac.Set(2, k, (curGeo.Height-ECEFToGeo(p).Height)/jacobianStep)
		}

		if err := dr.SolveVec(jac, f); err != nil && isSingular(err) {
			res.Singular = true
			m.log.Warn(ctx, "singular jacobian, returning best estimate",
				logging.Any("target", target),
				logging.String("seed_gcp", seed.ID),
				logging.Int("iteration", res.Iterations),
			)
			break
		}

		next := cur.Sub(model.Vec3{X: dr.AtVec(0), Y: dr.AtVec(1), Z: dr.AtVec(2)})
		nextImg, _, err := m.worldToImage(next)
		if err != nil {
			return settle(res, curGeo, imgSq, heightRes), fmt.Errorf("iteration %d: %w", res.Iterations, err)
		}
		cur, curImg = next, nextImg
		curGeo = ECEFToGeo(cur)
		heightRes = ref.HeightAt(curGeo) - curGeo.Height
		imgSq = curImg.SquaredDistanceTo(target)
		res.Iterations++
	}

	return settle(res, curGeo, imgSq, heightRes), nil
}

// settle records the iterate at geo and its residuals in res.
func settle(res InverseResult, geo model.GeoPoint, imgSq, heightRes float64) InverseResult {
	res.World = geo
	res.ImageResidual = math.Sqrt(imgSq)
	res.HeightResidual = heightRes
	res.Converged = imgSq <= imageTolerance*imageTolerance && math.Abs(heightRes) <= heightTolerance
	return res
}

// isSingular reports whether a gonum solve failed on an exactly singular
// matrix. Ill-conditioned but finite systems still yield a usable step.
func isSingular(err error) bool {
	if errors.Is(err, mat.ErrSingular) {
		return true
	}
	var cond mat.Condition
	if errors.As(err, &cond) {
		return math.IsInf(float64(cond), 1)
	}
	return true
}
