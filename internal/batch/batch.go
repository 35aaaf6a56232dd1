// Package batch geolocates many points concurrently on one shared sensor
// model. The model is read-only during a batch, so workers share it without
// locking.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/internal/observability"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// Geolocator is the part of core.SensorModel a batch needs.
type Geolocator interface {
	LineSampleHeightToWorld(ctx context.Context, img model.ImagePoint, height float64) (core.InverseResult, error)
	WorldToLineSample(p model.GeoPoint) (model.ImagePoint, error)
}

// ImageQuery asks for the ground point of an image position at a height.
type ImageQuery struct {
	Image  model.ImagePoint
	Height float64
}

// WorldResult is the outcome of one ImageQuery. Err holds per-point
// failures; they do not abort the batch.
type WorldResult struct {
	Query  ImageQuery
	Result core.InverseResult
	Err    error
}

// ImageResult is the outcome of projecting one ground point.
type ImageResult struct {
	World model.GeoPoint
	Image model.ImagePoint
	Err   error
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Points    int
	Failed    int
	Converged int
	Elapsed   time.Duration
}

// Runner fans queries out over a bounded number of workers.
type Runner struct {
	model   Geolocator
	workers int
	log     logging.Logger
	metrics *observability.BatchCollector
}

// Option customises a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of concurrent queries. Values below 1 keep
// the default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger used for batch summaries.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics reports batch metrics to c.
func WithMetrics(c *observability.BatchCollector) Option {
	return func(r *Runner) { r.metrics = c }
}

// NewRunner returns a Runner over m.
func NewRunner(m Geolocator, opts ...Option) *Runner {
	r := &Runner{
		model:   m,
		workers: runtime.GOMAXPROCS(0),
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Workers returns the concurrency bound.
func (r *Runner) Workers() int { return r.workers }

// ImageToWorld solves every query. Results are in query order. The returned
// error is non-nil only when ctx is cancelled.
func (r *Runner) ImageToWorld(ctx context.Context, queries []ImageQuery) ([]WorldResult, Summary, error) {
	ctx, span := r.startSpan(ctx, "batch.ImageToWorld", len(queries))
	defer span.End()

	out := make([]WorldResult, len(queries))
	var converged atomic.Int64
	summary, err := r.run(ctx, len(queries), func(ctx context.Context, i int) error {
		q := queries[i]
		res, err := r.model.LineSampleHeightToWorld(ctx, q.Image, q.Height)
		out[i] = WorldResult{Query: q, Result: res, Err: err}
		if err == nil && res.Converged {
			converged.Add(1)
		}
		return err
	})
	summary.Converged = int(converged.Load())
	if summary.Points > 0 {
		r.metrics.SetConvergedRatio(float64(summary.Converged) / float64(summary.Points))
	}
	r.finish(ctx, span, "image to world batch complete", summary, err)
	return out, summary, err
}

// WorldToImage projects every ground point. Results are in input order.
func (r *Runner) WorldToImage(ctx context.Context, points []model.GeoPoint) ([]ImageResult, Summary, error) {
	ctx, span := r.startSpan(ctx, "batch.WorldToImage", len(points))
	defer span.End()

	out := make([]ImageResult, len(points))
	summary, err := r.run(ctx, len(points), func(_ context.Context, i int) error {
		img, err := r.model.WorldToLineSample(points[i])
		out[i] = ImageResult{World: points[i], Image: img, Err: err}
		return err
	})
	r.finish(ctx, span, "world to image batch complete", summary, err)
	return out, summary, err
}

// run calls fn for indices [0, n) on the worker pool. fn errors are counted
// as point failures; only cancellation stops the pool.
func (r *Runner) run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) (Summary, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var failed atomic.Int64
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		r.metrics.AddInFlight(1)
		g.Go(func() error {
			defer r.metrics.AddInFlight(-1)
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, i); err != nil {
				failed.Add(1)
				r.metrics.IncFailures()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	elapsed := time.Since(start)
	r.metrics.ObserveJob(elapsed)
	summary := Summary{Points: n, Failed: int(failed.Load()), Elapsed: elapsed}
	if err != nil {
		return summary, fmt.Errorf("batch: %w", err)
	}
	return summary, nil
}

func (r *Runner) startSpan(ctx context.Context, name string, points int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.Int("batch.points", points),
		attribute.Int("batch.workers", r.workers),
	}
	if m, ok := r.model.(*core.SensorModel); ok {
		attrs = append(attrs, observability.SceneAttributes(m)...)
	}
	return observability.StartSpan(ctx, name, attrs...)
}

func (r *Runner) finish(ctx context.Context, span trace.Span, msg string, s Summary, err error) {
	span.SetAttributes(
		attribute.Int("batch.failed", s.Failed),
		attribute.Int("batch.converged", s.Converged),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Warn(ctx, "batch cancelled", logging.Err(err), logging.Int("points", s.Points))
		return
	}
	r.log.Info(ctx, msg,
		logging.Int("points", s.Points),
		logging.Int("failed", s.Failed),
		logging.Int("converged", s.Converged),
		logging.Any("elapsed", s.Elapsed),
	)
}

// Grid returns image queries on a regular grid of lines × samples points
// spanning [0, maxLine] × [0, maxSample], all at the same height.
func Grid(maxLine, maxSample float64, lines, samples int, height float64) []ImageQuery {
	if lines < 1 || samples < 1 {
		return nil
	}
	step := func(extent float64, n int) float64 {
		if n == 1 {
			return 0
		}
		return extent / float64(n-1)
	}
	dl, ds := step(maxLine, lines), step(maxSample, samples)
	out := make([]ImageQuery, 0, lines*samples)
	for i := 0; i < lines; i++ {
		for j := 0; j < samples; j++ {
			out = append(out, ImageQuery{
				Image:  model.ImagePoint{Line: float64(i) * dl, Sample: float64(j) * ds},
				Height: height,
			})
		}
	}
	return out
}
