package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/internal/observability"
	"github.com/signalsfoundry/sar-geolocation/internal/scenefile"
)

// app holds the process wide state shared by every subcommand.
type app struct {
	scenePath   string
	metricsAddr string
	logLevel    string
	logFormat   string

	log          logging.Logger
	registry     *prometheus.Registry
	metrics      *observability.GeolocationCollector
	batchMetrics *observability.BatchCollector
	metricsSrv   *http.Server
	shutdown     func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.Noop()}
	root := &cobra.Command{
		Use:           "sargeo",
		Short:         "SAR geolocation and radiometric lookup tool",
		Long:          "Maps SAR image coordinates to ground coordinates and back from a YAML scene description, calibrates timing offsets from GCPs and evaluates calibration and noise lookup tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close(cmd.Context())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.scenePath, "scene", "scene.yaml", "path to the YAML scene description")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format override (text, json)")

	root.AddCommand(
		newSynthCmd(a),
		newOrbitCmd(a),
		newForwardCmd(a),
		newInverseCmd(a),
		newGridCmd(a),
		newCalibrateCmd(a),
		newValidateCmd(a),
		newDeburstCmd(a),
		newLUTCmd(a),
	)
	return root
}

func (a *app) init(ctx context.Context, stderr io.Writer) error {
	cfg := logging.ConfigFromEnv()
	cfg.Output = stderr
	if a.logLevel != "" {
		cfg.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Format = a.logFormat
	}
	a.log = logging.New(cfg)

	tracing := observability.TracingConfigFromEnv()
	tracing.Output = stderr
	shutdown, err := observability.InitTracing(ctx, tracing, a.log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdown = shutdown

	a.registry = prometheus.NewRegistry()
	if a.metrics, err = observability.NewGeolocationCollector(a.registry); err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if a.batchMetrics, err = observability.NewBatchCollector(a.registry); err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if a.metricsAddr != "" {
		a.metricsSrv = serveMetrics(a.metricsAddr, a.metrics, a.log)
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	observability.ShutdownWithTimeout(ctx, a.shutdown, a.log)
	if a.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = a.metricsSrv.Shutdown(shutdownCtx)
	}
}

// loadScene reads the scene file and builds its model with the process
// logger and metrics attached.
func (a *app) loadScene(ctx context.Context) (context.Context, *scenefile.Scene, *core.SensorModel, error) {
	scene, err := scenefile.LoadFile(a.scenePath)
	if err != nil {
		return ctx, nil, nil, err
	}
	product := scene.Name
	if product == "" {
		product = a.scenePath
	}
	ctx, log := logging.WithProductLogger(logging.ContextWithProduct(ctx, product), a.log)
	_, span := observability.StartSpan(ctx, "scene.load", attribute.String("scene.path", a.scenePath))
	defer span.End()

	m, err := scene.Model(core.WithLogger(log), core.WithRecorder(a.metrics))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ctx, nil, nil, fmt.Errorf("build sensor model: %w", err)
	}
	span.SetAttributes(observability.SceneAttributes(m)...)
	a.metrics.SetSceneCounts(m)
	log.Debug(ctx, "scene loaded",
		logging.String("path", a.scenePath),
		logging.String("kind", scene.Params.Product.String()),
		logging.Int("orbit_records", len(m.Orbits())),
		logging.Int("bursts", len(m.Bursts())),
		logging.Int("gcps", len(m.GCPs())),
	)
	return ctx, scene, m, nil
}

func serveMetrics(addr string, collector *observability.GeolocationCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sargeo:", err)
		os.Exit(1)
	}
}
