package main

import (
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sar-geolocation/radiometry"
)

type lutOutput struct {
	Kind        string   `json:"kind"`
	Calibration float64  `json:"calibration"`
	Noise       float64  `json:"noise"`
	Intensity   *float64 `json:"intensity,omitempty"`
}

func newLUTCmd(a *app) *cobra.Command {
	var (
		kindName    string
		pixel, line float64
		amplitude   float64
		noNoise     bool
	)
	cmd := &cobra.Command{
		Use:   "lut",
		Short: "Evaluate the calibration and noise lookup tables at a pixel",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, scene, _, err := a.loadScene(cmd.Context())
			if err != nil {
				return err
			}
			kind, err := radiometry.ParseCalibrationKind(kindName)
			if err != nil {
				return err
			}
			cal, err := scene.CalibrationLUT(kind)
			if err != nil {
				return err
			}
			noise, err := scene.NoiseLUT()
			if err != nil {
				return err
			}
			out := lutOutput{
				Kind:        kind.String(),
				Calibration: cal.Value(pixel, line),
				Noise:       noise.Value(pixel, line),
			}
			if cmd.Flags().Changed("amplitude") {
				if noNoise {
					noise = nil
				}
				c, err := radiometry.NewCalibrator(cal, noise)
				if err != nil {
					return err
				}
				v := c.Intensity(amplitude, pixel, line)
				out.Intensity = &v
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&kindName, "kind", "sigma0", "calibration kind (sigma0, beta0, gamma, dn)")
	f.Float64Var(&pixel, "pixel", 0, "image sample")
	f.Float64Var(&line, "line", 0, "image line")
	f.Float64Var(&amplitude, "amplitude", 0, "DN amplitude to calibrate")
	f.BoolVar(&noNoise, "keep-noise", false, "skip thermal noise removal")
	return cmd
}
