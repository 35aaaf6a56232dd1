package observability

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/sar-geolocation/core"
)

// Query directions used as the "direction" label.
const (
	DirectionWorldToImage = "world_to_image"
	DirectionImageToWorld = "image_to_world"
)

// GeolocationCollector bundles Prometheus metrics for sensor model queries.
// It implements core.Recorder, so a model built with core.WithRecorder
// reports every public query to it.
type GeolocationCollector struct {
	gatherer prometheus.Gatherer

	Queries        *prometheus.CounterVec
	Iterations     prometheus.Histogram
	ImageResidual  prometheus.Histogram
	HeightResidual prometheus.Histogram

	SceneOrbitRecords prometheus.Gauge
	SceneBursts       prometheus.Gauge
	SceneGCPs         prometheus.Gauge
}

var _ core.Recorder = (*GeolocationCollector)(nil)

// NewGeolocationCollector registers geolocation metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil.
func NewGeolocationCollector(reg prometheus.Registerer) (*GeolocationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sargeo_queries_total",
		Help: "Total number of geolocation queries, labeled by direction and outcome.",
	}, []string{"direction", "outcome"})
	queries, err := registerCounterVec(reg, queries, "sargeo_queries_total")
	if err != nil {
		return nil, err
	}

	iterations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sargeo_newton_iterations",
		Help:    "Newton iterations spent per image to ground solve.",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30, 50},
	}), "sargeo_newton_iterations")
	if err != nil {
		return nil, err
	}
	imageResidual, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sargeo_image_residual_pixels",
		Help:    "Final image residual of image to ground solves, in pixels.",
		Buckets: []float64{1e-5, 1e-4, 1e-3, 0.01, 0.1, 1, 10},
	}), "sargeo_image_residual_pixels")
	if err != nil {
		return nil, err
	}
	heightResidual, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sargeo_height_residual_meters",
		Help:    "Absolute final height residual of image to ground solves, in metres.",
		Buckets: []float64{1e-5, 1e-4, 1e-3, 0.01, 0.1, 1, 10},
	}), "sargeo_height_residual_meters")
	if err != nil {
		return nil, err
	}

	orbits, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sargeo_scene_orbit_records",
		Help: "Number of orbit state vectors in the loaded scene.",
	}), "sargeo_scene_orbit_records")
	if err != nil {
		return nil, err
	}
	bursts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sargeo_scene_bursts",
		Help: "Number of bursts in the loaded scene.",
	}), "sargeo_scene_bursts")
	if err != nil {
		return nil, err
	}
	gcps, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sargeo_scene_gcps",
		Help: "Number of ground control points in the loaded scene.",
	}), "sargeo_scene_gcps")
	if err != nil {
		return nil, err
	}

	return &GeolocationCollector{
		gatherer:          gatherer,
		Queries:           queries,
		Iterations:        iterations,
		ImageResidual:     imageResidual,
		HeightResidual:    heightResidual,
		SceneOrbitRecords: orbits,
		SceneBursts:       bursts,
		SceneGCPs:         gcps,
	}, nil
}

// ObserveWorldToImage counts a ground to image projection.
func (c *GeolocationCollector) ObserveWorldToImage(err error) {
	if c == nil || c.Queries == nil {
		return
	}
	c.Queries.WithLabelValues(DirectionWorldToImage, Outcome(err)).Inc()
}

// ObserveImageToWorld counts an image to ground solve and records its
// convergence statistics.
func (c *GeolocationCollector) ObserveImageToWorld(res core.InverseResult, err error) {
	if c == nil {
		return
	}
	outcome := Outcome(err)
	if err == nil {
		switch {
		case res.Singular:
			outcome = "singular"
		case !res.Converged:
			outcome = "not_converged"
		}
	}
	if c.Queries != nil {
		c.Queries.WithLabelValues(DirectionImageToWorld, outcome).Inc()
	}
	if err != nil {
		return
	}
	if c.Iterations != nil {
		c.Iterations.Observe(float64(res.Iterations))
	}
	if c.ImageResidual != nil {
		c.ImageResidual.Observe(res.ImageResidual)
	}
	if c.HeightResidual != nil {
		h := res.HeightResidual
		if h < 0 {
			h = -h
		}
		c.HeightResidual.Observe(h)
	}
}

// SetSceneCounts updates the scene gauges from a sensor model.
func (c *GeolocationCollector) SetSceneCounts(m *core.SensorModel) {
	if c == nil || m == nil {
		return
	}
	if c.SceneOrbitRecords != nil {
		c.SceneOrbitRecords.Set(float64(len(m.Orbits())))
	}
	if c.SceneBursts != nil {
		c.SceneBursts.Set(float64(len(m.Bursts())))
	}
	if c.SceneGCPs != nil {
		c.SceneGCPs.Set(float64(len(m.GCPs())))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GeolocationCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Outcome maps a query error onto the "outcome" label. Unknown errors are
// reported as "error".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrNoDopplerCrossing):
		return "no_doppler_crossing"
	case errors.Is(err, core.ErrEmptyGCPSet):
		return "empty_gcp_set"
	case errors.Is(err, core.ErrMissingOrMismatchedCoefficients):
		return "bad_coefficients"
	default:
		return "error"
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
