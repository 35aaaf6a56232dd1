package batch

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/observability"
	"github.com/signalsfoundry/sar-geolocation/internal/scenegen"
	"github.com/signalsfoundry/sar-geolocation/model"
)

func TestGrid(t *testing.T) {
	g := Grid(100, 50, 3, 2, 7)
	if len(g) != 6 {
		t.Fatalf("got %d queries, want 6", len(g))
	}
	if g[0].Image != (model.ImagePoint{}) || g[5].Image != (model.ImagePoint{Line: 100, Sample: 50}) || g[2].Image.Line != 50 {
		t.Fatalf("unexpected grid %+v", g)
	}
	if g[3].Height != 7 {
		t.Fatalf("height %v, want 7", g[3].Height)
	}
	if one := Grid(100, 50, 1, 1, 0); len(one) != 1 || one[0].Image != (model.ImagePoint{}) {
		t.Fatalf("single point grid %+v", one)
	}
	if Grid(1, 1, 0, 3, 0) != nil {
		t.Fatalf("empty grid should be nil")
	}
}

func TestRunnerRoundTripsScene(t *testing.T) {
	scene, err := scenegen.Build(scenegen.DefaultConfig())
	if err != nil {
		t.Fatalf("scenegen.Build: %v", err)
	}
	m, err := scene.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewBatchCollector(reg)
	if err != nil {
		t.Fatalf("NewBatchCollector: %v", err)
	}
	r := NewRunner(m, WithWorkers(4), WithMetrics(metrics))

	queries := Grid(999, 999, 5, 5, 20)
	worlds, summary, err := r.ImageToWorld(context.Background(), queries)
	if err != nil {
		t.Fatalf("ImageToWorld: %v", err)
	}
	if summary.Points != 25 || summary.Failed != 0 || summary.Converged != 25 {
		t.Fatalf("summary %+v", summary)
	}

	points := make([]model.GeoPoint, len(worlds))
	for i, w := range worlds {
		if w.Err != nil || w.Query != queries[i] {
			t.Fatalf("result %d out of order or failed: %+v", i, w)
		}
		points[i] = w.Result.World
	}
	images, summary, err := r.WorldToImage(context.Background(), points)
	if err != nil || summary.Failed != 0 {
		t.Fatalf("WorldToImage: %+v, %v", summary, err)
	}
	for i, img := range images {
		if d := math.Sqrt(img.Image.SquaredDistanceTo(queries[i].Image)); d > 0.1 {
			t.Fatalf("point %d came back %.4f px away", i, d)
		}
	}

	if got := testutil.ToFloat64(metrics.ConvergedRatio); got != 1 {
		t.Fatalf("converged ratio %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.PointsInFlight); got != 0 {
		t.Fatalf("points in flight %v after completion", got)
	}
}

type flakyModel struct {
	calls atomic.Int64
}

var errFlaky = errors.New("flaky")

func (f *flakyModel) LineSampleHeightToWorld(_ context.Context, img model.ImagePoint, h float64) (core.InverseResult, error) {
	f.calls.Add(1)
	if int(img.Line)%2 == 1 {
		return core.InverseResult{}, errFlaky
	}
	return core.InverseResult{World: model.GeoPoint{Height: h}, Converged: img.Sample == 0}, nil
}

func (f *flakyModel) WorldToLineSample(p model.GeoPoint) (model.ImagePoint, error) {
	f.calls.Add(1)
	if p.Lat < 0 {
		return model.ImagePoint{}, core.ErrNoDopplerCrossing
	}
	return model.ImagePoint{Line: p.Lat, Sample: p.Lon}, nil
}

func TestRunnerCountsPointFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewBatchCollector(reg)
	if err != nil {
		t.Fatalf("NewBatchCollector: %v", err)
	}
	r := NewRunner(&flakyModel{}, WithWorkers(3), WithMetrics(metrics))

	// Lines 0..3 × samples {0, 1}: odd lines fail, sample 0 converges.
	results, summary, err := r.ImageToWorld(context.Background(), Grid(3, 1, 4, 2, 5))
	if err != nil {
		t.Fatalf("ImageToWorld: %v", err)
	}
	if summary.Failed != 4 || summary.Converged != 2 {
		t.Fatalf("summary %+v", summary)
	}
	if !errors.Is(results[2].Err, errFlaky) || results[0].Err != nil {
		t.Fatalf("per-point errors misplaced: %+v", results)
	}
	if got := testutil.ToFloat64(metrics.PointFailures); got != 4 {
		t.Fatalf("point failures %v, want 4", got)
	}

	images, summary, err := r.WorldToImage(context.Background(), []model.GeoPoint{{Lat: 1}, {Lat: -1}})
	if err != nil || summary.Failed != 1 || !errors.Is(images[1].Err, core.ErrNoDopplerCrossing) {
		t.Fatalf("WorldToImage: %+v %+v %v", images, summary, err)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &flakyModel{}
	_, _, err := NewRunner(f, WithWorkers(2)).ImageToWorld(ctx, Grid(10, 10, 10, 10, 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("cancelled batch still ran %d queries", f.calls.Load())
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(&flakyModel{}, WithWorkers(0), WithLogger(nil))
	if r.Workers() < 1 || r.log == nil {
		t.Fatalf("defaults not applied: workers=%d", r.Workers())
	}
}
