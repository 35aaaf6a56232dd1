package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
)

type offsetsOutput struct {
	AzimuthMicroseconds float64 `json:"azimuth_us"`
	RangeSeconds        float64 `json:"range_s"`
	Written             string  `json:"written,omitempty"`
}

func newCalibrateCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Estimate azimuth and range time offsets from the scene GCPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, scene, m, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}
			_, offsets, err := m.OptimizeTimeOffsetsFromGCPs(ctx)
			if err != nil {
				return err
			}
			out := offsetsOutput{
				AzimuthMicroseconds: offsets.Azimuth.Microseconds(),
				RangeSeconds:        offsets.Range,
			}
			if write {
				scene.Offsets = offsets
				if err := scene.WriteFile(a.scenePath); err != nil {
					return err
				}
				out.Written = a.scenePath
				logging.LoggerFromContext(ctx).Info(ctx, "calibrated offsets stored",
					logging.Float("azimuth_us", out.AzimuthMicroseconds),
					logging.Float("range_s", out.RangeSeconds),
				)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "store the offsets in the scene file")
	return cmd
}

type residualOutput struct {
	ID            string  `json:"id"`
	Line          float64 `json:"line"`
	Sample        float64 `json:"sample"`
	AzimuthTimeUs float64 `json:"azimuth_time_us"`
	RangeTime     float64 `json:"range_time"`
	World         float64 `json:"world_m,omitempty"`
	OK            bool    `json:"ok"`
	Error         string  `json:"error,omitempty"`
}

type reportOutput struct {
	Passed    bool             `json:"passed"`
	Checked   int              `json:"checked"`
	Failed    int              `json:"failed"`
	Residuals []residualOutput `json:"residuals,omitempty"`
}

func toReportOutput(r core.ValidationReport, verbose bool) reportOutput {
	out := reportOutput{Passed: r.Passed, Checked: len(r.Residuals), Failed: len(r.Failed())}
	list := r.Failed()
	if verbose {
		list = r.Residuals
	}
	for _, res := range list {
		ro := residualOutput{
			ID:            res.ID,
			Line:          res.Image.Line,
			Sample:        res.Image.Sample,
			AzimuthTimeUs: res.AzimuthTime.Microseconds(),
			RangeTime:     res.RangeTime,
			World:         res.World,
			OK:            res.OK,
		}
		if res.Err != nil {
			ro.Error = res.Err.Error()
		}
		out.Residuals = append(out.Residuals, ro)
	}
	return out
}

var errValidationFailed = errors.New("validation failed")

func newValidateCmd(a *app) *cobra.Command {
	var (
		tol         core.InverseTolerances
		worldTol    float64
		verbose     bool
		skipForward bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the scene model against its GCPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _, m, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}
			inverse, err := m.AutovalidateInverseModelFromGCPs(tol)
			if err != nil {
				return err
			}
			result := map[string]reportOutput{"inverse": toReportOutput(inverse, verbose)}
			passed := inverse.Passed

			if !skipForward {
				forward, err := m.AutovalidateForwardModelFromGCPs(ctx, worldTol)
				if err != nil {
					return err
				}
				result["forward"] = toReportOutput(forward, verbose)
				passed = passed && forward.Passed
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !passed {
				return errValidationFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&tol.Line, "line-tolerance", 0.1, "line residual bound, pixels")
	f.Float64Var(&tol.Sample, "sample-tolerance", 0.1, "sample residual bound, pixels")
	f.Float64Var(&tol.AzimuthTime, "azimuth-tolerance", 10, "azimuth time residual bound, microseconds")
	f.Float64Var(&tol.RangeTime, "range-tolerance", 1e-9, "range time residual bound, seconds")
	f.Float64Var(&worldTol, "world-tolerance", 1, "image to ground residual bound, metres")
	f.BoolVar(&skipForward, "inverse-only", false, "skip the image to ground check")
	f.BoolVar(&verbose, "verbose", false, "list every GCP, not only failures")
	return cmd
}

// outputPath is where derived scenes are written: --out, or the input scene.
func outputPath(out, scene string) string {
	if out != "" {
		return out
	}
	return scene
}
