package main

import (
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sar-geolocation/core"
	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/internal/scenefile"
)

type rangeOutput struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

type deburstOutput struct {
	Lines   []rangeOutput `json:"lines"`
	Samples rangeOutput   `json:"samples"`
	GCPs    int           `json:"gcps"`
	Written string        `json:"written"`
}

func newDeburstCmd(a *app) *cobra.Command {
	var (
		validSamples bool
		out          string
		burst        int
	)
	cmd := &cobra.Command{
		Use:   "deburst",
		Short: "Merge the bursts of a TOPS scene, or extract one burst with --burst",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, scene, m, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}

			var (
				derived *core.SensorModel
				lines   []core.LineRange
				samples core.SampleRange
			)
			if burst >= 0 {
				var lr core.LineRange
				derived, lr, samples, err = m.BurstExtraction(burst)
				lines = []core.LineRange{lr}
			} else {
				var res core.DeburstResult
				res, err = m.Deburst(validSamples)
				derived, lines, samples = res.Model, res.Lines, res.Samples
			}
			if err != nil {
				return err
			}

			// Lookup tables are annotated in the original geometry and are
			// not carried to the derived scene.
			path := outputPath(out, a.scenePath)
			derivedScene := &scenefile.Scene{
				Name:    scene.Name,
				Params:  derived.Params(),
				Records: derived.Records(),
				Offsets: derived.Offsets(),
			}
			if err := derivedScene.WriteFile(path); err != nil {
				return err
			}
			logging.LoggerFromContext(ctx).Info(ctx, "derived scene written",
				logging.String("path", path),
				logging.Int("ranges", len(lines)),
				logging.Int("gcps", len(derivedScene.Records.GCPs)),
			)

			res := deburstOutput{
				Samples: rangeOutput{samples.First, samples.Last},
				GCPs:    len(derivedScene.Records.GCPs),
				Written: path,
			}
			for _, lr := range lines {
				res.Lines = append(res.Lines, rangeOutput{lr.First, lr.Last})
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&validSamples, "valid-samples", false, "keep only samples valid in every burst")
	f.IntVar(&burst, "burst", -1, "extract this burst instead of merging")
	f.StringVar(&out, "out", "", "output scene path (default: overwrite --scene)")
	return cmd
}
