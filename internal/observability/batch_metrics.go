package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchCollector exposes metrics of batch geolocation jobs.
type BatchCollector struct {
	gatherer prometheus.Gatherer

	JobDuration    prometheus.Histogram
	PointsInFlight prometheus.Gauge
	PointFailures  prometheus.Counter
	ConvergedRatio prometheus.Gauge
}

// NewBatchCollector registers batch metrics against the provided registerer.
func NewBatchCollector(reg prometheus.Registerer) (*BatchCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	jobHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sargeo_batch_job_duration_seconds",
		Help:    "Wall time of batch geolocation jobs.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	jobHistogram, err := registerHistogram(reg, jobHistogram, "sargeo_batch_job_duration_seconds")
	if err != nil {
		return nil, err
	}

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sargeo_batch_points_in_flight",
		Help: "Number of points of the running batch job not yet geolocated.",
	})
	inFlight, err = registerGauge(reg, inFlight, "sargeo_batch_points_in_flight")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sargeo_batch_point_failures_total",
		Help: "Cumulative number of batch points that could not be geolocated.",
	})
	failures, err = registerCounter(reg, failures, "sargeo_batch_point_failures_total")
	if err != nil {
		return nil, err
	}

	converged := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sargeo_batch_converged_ratio",
		Help: "Fraction of image to ground solves of the last batch job that converged.",
	})
	converged, err = registerGauge(reg, converged, "sargeo_batch_converged_ratio")
	if err != nil {
		return nil, err
	}

	return &BatchCollector{
		gatherer:       gatherer,
		JobDuration:    jobHistogram,
		PointsInFlight: inFlight,
		PointFailures:  failures,
		ConvergedRatio: converged,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *BatchCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveJob records a batch job duration measurement.
func (c *BatchCollector) ObserveJob(d time.Duration) {
	if c == nil || c.JobDuration == nil {
		return
	}
	c.JobDuration.Observe(d.Seconds())
}

// AddInFlight moves the in-flight gauge by delta.
func (c *BatchCollector) AddInFlight(delta int) {
	if c == nil || c.PointsInFlight == nil {
		return
	}
	c.PointsInFlight.Add(float64(delta))
}

// IncFailures increments the failed point counter.
func (c *BatchCollector) IncFailures() {
	if c == nil || c.PointFailures == nil {
		return
	}
	c.PointFailures.Inc()
}

// SetConvergedRatio sets the converged ratio of the last job.
func (c *BatchCollector) SetConvergedRatio(ratio float64) {
	if c == nil || c.ConvergedRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.ConvergedRatio.Set(ratio)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
