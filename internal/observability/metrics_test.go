package observability

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/scenegen"
	"github.com/signalsfoundry/sar-geolocation/model"
)

func TestGeolocationCollectorRecordsModelQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGeolocationCollector(reg)
	if err != nil {
		t.Fatalf("NewGeolocationCollector: %v", err)
	}

	scene, err := scenegen.Build(scenegen.DefaultConfig())
	if err != nil {
		t.Fatalf("scenegen.Build: %v", err)
	}
	m, err := scene.Model(core.WithRecorder(collector))
	if err != nil {
		t.Fatalf("Model: %v", err)
	}

	if _, err := m.LineSampleHeightToWorld(context.Background(), model.ImagePoint{Line: 400, Sample: 300}, 0); err != nil {
		t.Fatalf("LineSampleHeightToWorld: %v", err)
	}
	if _, err := m.WorldToLineSample(scene.Records.GCPs[0].WorldPoint); err != nil {
		t.Fatalf("WorldToLineSample: %v", err)
	}
	_, _ = m.WorldToLineSample(model.GeoPoint{Lat: 70})

	if got := testutil.ToFloat64(collector.Queries.WithLabelValues(DirectionImageToWorld, "ok")); got != 1 {
		t.Fatalf("image_to_world ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Queries.WithLabelValues(DirectionWorldToImage, "ok")); got != 1 {
		t.Fatalf("world_to_image ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Queries.WithLabelValues(DirectionWorldToImage, "no_doppler_crossing")); got != 1 {
		t.Fatalf("world_to_image no_doppler_crossing = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "sargeo_newton_iterations", nil); count != 1 {
		t.Fatalf("sargeo_newton_iterations sample_count = %d, want 1", count)
	}
}

func TestObserveImageToWorldOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGeolocationCollector(reg)
	if err != nil {
		t.Fatalf("NewGeolocationCollector: %v", err)
	}

	collector.ObserveImageToWorld(core.InverseResult{Iterations: 50, ImageResidual: 3}, nil)
	collector.ObserveImageToWorld(core.InverseResult{Singular: true, Iterations: 2}, nil)
	collector.ObserveImageToWorld(core.InverseResult{}, fmt.Errorf("wrapped: %w", core.ErrEmptyGCPSet))

	for outcome, want := range map[string]float64{"not_converged": 1, "singular": 1, "empty_gcp_set": 1, "ok": 0} {
		if got := testutil.ToFloat64(collector.Queries.WithLabelValues(DirectionImageToWorld, outcome)); got != want {
			t.Fatalf("image_to_world %s = %v, want %v", outcome, got, want)
		}
	}
	// Failed solves carry no convergence statistics.
	if count := histogramSampleCount(t, reg, "sargeo_image_residual_pixels", nil); count != 2 {
		t.Fatalf("sargeo_image_residual_pixels sample_count = %d, want 2", count)
	}
}

func TestCollectorToleratesReregistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewGeolocationCollector(reg)
	if err != nil {
		t.Fatalf("NewGeolocationCollector: %v", err)
	}
	second, err := NewGeolocationCollector(reg)
	if err != nil {
		t.Fatalf("second NewGeolocationCollector: %v", err)
	}
	second.ObserveWorldToImage(nil)
	if got := testutil.ToFloat64(first.Queries.WithLabelValues(DirectionWorldToImage, "ok")); got != 1 {
		t.Fatalf("collectors should share the registered vector, got %v", got)
	}

	var nilCollector *GeolocationCollector
	nilCollector.ObserveWorldToImage(nil)
	nilCollector.ObserveImageToWorld(core.InverseResult{}, nil)
}

func TestMetricsHandlerExposesSceneGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGeolocationCollector(reg)
	if err != nil {
		t.Fatalf("NewGeolocationCollector: %v", err)
	}
	batch, err := NewBatchCollector(reg)
	if err != nil {
		t.Fatalf("NewBatchCollector: %v", err)
	}

	scene, err := scenegen.Build(scenegen.DefaultConfig())
	if err != nil {
		t.Fatalf("scenegen.Build: %v", err)
	}
	m, err := scene.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	collector.SetSceneCounts(m)
	collector.ObserveWorldToImage(nil)
	batch.ObserveJob(20 * time.Millisecond)
	batch.AddInFlight(3)
	batch.IncFailures()
	batch.SetConvergedRatio(1.5)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"sargeo_queries_total",
		fmt.Sprintf("sargeo_scene_gcps %d", len(scene.Records.GCPs)),
		fmt.Sprintf("sargeo_scene_orbit_records %d", len(scene.Records.Orbits)),
		"sargeo_scene_bursts 1",
		"sargeo_batch_job_duration_seconds",
		"sargeo_batch_points_in_flight 3",
		"sargeo_batch_point_failures_total 1",
		"sargeo_batch_converged_ratio 1",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output:\n%s", metric, body)
		}
	}
}

func TestOutcome(t *testing.T) {
	cases := map[error]string{
		nil:                                     "ok",
		core.ErrNoDopplerCrossing:               "no_doppler_crossing",
		core.ErrMissingOrMismatchedCoefficients: "bad_coefficients",
		fmt.Errorf("x: %w", core.ErrEmptyGCPSet): "empty_gcp_set",
		core.ErrNoBursts:                        "error",
	}
	for err, want := range cases {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
