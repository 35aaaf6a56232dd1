package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/batch"
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/model"
)

type forwardOutput struct {
	Line           float64 `json:"line"`
	Sample         float64 `json:"sample"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
	AzimuthTime    string  `json:"azimuth_time"`
	SlantRangeTime float64 `json:"slant_range_time"`
}

func newForwardCmd(a *app) *cobra.Command {
	var p model.GeoPoint
	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Project a ground point into the image",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, m, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}
			img, y, z, err := m.WorldToLineSampleYZ(p)
			if err != nil {
				return err
			}
			az, rt, err := m.WorldToAzimuthRangeTime(p)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), forwardOutput{
				Line: img.Line, Sample: img.Sample, Y: y, Z: z,
				AzimuthTime: az.String(), SlantRangeTime: rt,
			})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&p.Lat, "lat", 0, "latitude, degrees")
	f.Float64Var(&p.Lon, "lon", 0, "longitude, degrees")
	f.Float64Var(&p.Height, "height", 0, "ellipsoidal height, metres")
	return cmd
}

type inverseOutput struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Height         float64 `json:"height"`
	Iterations     int     `json:"iterations"`
	ImageResidual  float64 `json:"image_residual"`
	HeightResidual float64 `json:"height_residual"`
	Converged      bool    `json:"converged"`
	Singular       bool    `json:"singular,omitempty"`
	SeedGCP        string  `json:"seed_gcp"`
	Error          string  `json:"error,omitempty"`
}

func toInverseOutput(res core.InverseResult, err error) inverseOutput {
	out := inverseOutput{
		Lat: res.World.Lat, Lon: res.World.Lon, Height: res.World.Height,
		Iterations:     res.Iterations,
		ImageResidual:  res.ImageResidual,
		HeightResidual: res.HeightResidual,
		Converged:      res.Converged,
		Singular:       res.Singular,
		SeedGCP:        res.SeedGCP,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func newInverseCmd(a *app) *cobra.Command {
	var (
		img    model.ImagePoint
		height float64
	)
	cmd := &cobra.Command{
		Use:   "inverse",
		Short: "Locate the ground point of an image position at a height",
		Long:  "Locates the ground point of an image position. Without --height the height of the nearest GCP is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _, m, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("height") {
				height = math.NaN()
			}
			res, err := m.LineSampleHeightToWorld(ctx, img, height)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), toInverseOutput(res, nil))
		},
	}
	f := cmd.Flags()
	f.Float64Var(&img.Line, "line", 0, "image line")
	f.Float64Var(&img.Sample, "sample", 0, "image sample")
	f.Float64Var(&height, "height", 0, "ellipsoidal height, metres")
	return cmd
}

type gridPoint struct {
	Line   float64 `json:"line"`
	Sample float64 `json:"sample"`
	inverseOutput
}

type gridOutput struct {
	Points    int         `json:"points"`
	Failed    int         `json:"failed"`
	Converged int         `json:"converged"`
	Elapsed   string      `json:"elapsed"`
	Results   []gridPoint `json:"results,omitempty"`
}

func newGridCmd(a *app) *cobra.Command {
	var (
		lines, samples int
		height         float64
		workers        int
		summaryOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Geolocate a regular grid of image positions concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _, m, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}
			bursts := m.Bursts()
			maxLine := float64(bursts[len(bursts)-1].EndLine)
			maxSample := 0.0
			for _, b := range bursts {
				maxSample = math.Max(maxSample, float64(b.EndSample))
			}

			runner := batch.NewRunner(m,
				batch.WithWorkers(workers),
				batch.WithLogger(logging.LoggerFromContext(ctx)),
				batch.WithMetrics(a.batchMetrics),
			)
			results, summary, err := runner.ImageToWorld(ctx, batch.Grid(maxLine, maxSample, lines, samples, height))
			if err != nil {
				return err
			}

			out := gridOutput{
				Points:    summary.Points,
				Failed:    summary.Failed,
				Converged: summary.Converged,
				Elapsed:   summary.Elapsed.String(),
			}
			if !summaryOnly {
				for _, r := range results {
					out.Results = append(out.Results, gridPoint{
						Line:          r.Query.Image.Line,
						Sample:        r.Query.Image.Sample,
						inverseOutput: toInverseOutput(r.Result, r.Err),
					})
				}
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d points failed", summary.Failed, summary.Points)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&lines, "lines", 10, "grid points along azimuth")
	f.IntVar(&samples, "samples", 10, "grid points along range")
	f.Float64Var(&height, "height", 0, "ellipsoidal height, metres")
	f.IntVar(&workers, "workers", 0, "concurrent solves (default GOMAXPROCS)")
	f.BoolVar(&summaryOnly, "summary", false, "print only the summary")
	return cmd
}
