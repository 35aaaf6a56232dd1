package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/internal/scenefile"
	"github.com/signalsfoundry/sar-geolocation/internal/scenegen"
	"github.com/signalsfoundry/sar-geolocation/model"
)

func newSynthCmd(a *app) *cobra.Command {
	cfg := scenegen.DefaultConfig()
	var (
		kind     string
		name     string
		lutStep  int
		withLUTs bool
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic scene with known geometry to --scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseProductKind(kind)
			if err != nil {
				return err
			}
			cfg.Product = k
			g, err := scenegen.Build(cfg)
			if err != nil {
				return err
			}
			var rad *scenegen.Radiometry
			if withLUTs {
				r, err := g.Radiometry(lutStep, lutStep)
				if err != nil {
					return err
				}
				rad = &r
			}
			if err := scenefile.FromGenerated(name, g, rad).WriteFile(a.scenePath); err != nil {
				return err
			}
			a.log.Info(cmd.Context(), "synthetic scene written",
				logging.String("path", a.scenePath),
				logging.String("kind", k.String()),
				logging.Int("bursts", len(g.Records.Bursts)),
				logging.Int("gcps", len(g.Records.GCPs)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s, %d bursts, %d GCPs\n", a.scenePath, k, len(g.Records.Bursts), len(g.Records.GCPs))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "product", "SLC", "product kind (SLC, GRD, MGD, GEC, EEC)")
	f.StringVar(&name, "name", "synthetic", "scene name")
	f.IntVar(&cfg.Lines, "lines", cfg.Lines, "lines per burst")
	f.IntVar(&cfg.Samples, "samples", cfg.Samples, "samples per line")
	f.IntVar(&cfg.Bursts, "bursts", cfg.Bursts, "number of bursts")
	f.IntVar(&cfg.OverlapLines, "overlap", cfg.OverlapLines, "lines shared by consecutive bursts")
	f.IntVar(&cfg.GCPRows, "gcp-rows", cfg.GCPRows, "GCP grid rows")
	f.IntVar(&cfg.GCPCols, "gcp-cols", cfg.GCPCols, "GCP grid columns")
	f.BoolVar(&cfg.BistaticCorrection, "bistatic", false, "enable the bistatic azimuth correction")
	f.BoolVar(&withLUTs, "luts", true, "annotate calibration and noise lookup tables")
	f.IntVar(&lutStep, "lut-step", 100, "lookup table spacing in lines and pixels")
	return cmd
}

func newOrbitCmd(a *app) *cobra.Command {
	var (
		line1, line2 string
		start        string
		step         time.Duration
		count        int
	)
	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Propagate a TLE with SGP4 and print ECEF orbit state vectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if line1 == "" || line2 == "" {
				return fmt.Errorf("both --tle1 and --tle2 are required")
			}
			t0, err := model.ParseInstant(start)
			if err != nil {
				return err
			}
			recs, err := scenegen.NewTLEOrbit(line1, line2).Records(t0.Time(), step, count)
			if err != nil {
				return err
			}
			a.log.Debug(cmd.Context(), "orbit propagated", logging.Int("records", len(recs)))

			type stateVector struct {
				Time     string     `json:"time"`
				Position [3]float64 `json:"position"`
				Velocity [3]float64 `json:"velocity"`
			}
			out := make([]stateVector, len(recs))
			for i, r := range recs {
				out[i] = stateVector{
					Time:     r.Time.String(),
					Position: [3]float64{r.Position.X, r.Position.Y, r.Position.Z},
					Velocity: [3]float64{r.Velocity.X, r.Velocity.Y, r.Velocity.Z},
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&line1, "tle1", "", "first TLE line")
	f.StringVar(&line2, "tle2", "", "second TLE line")
	f.StringVar(&start, "start", "", "first state vector time (RFC 3339)")
	f.DurationVar(&step, "step", 10*time.Second, "state vector spacing, whole seconds")
	f.IntVar(&count, "count", 11, "number of state vectors")
	return cmd
}
