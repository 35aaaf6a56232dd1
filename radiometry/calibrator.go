package radiometry

import "fmt"

// Calibrator turns complex amplitudes into calibrated, noise-corrected
// backscatter intensity.
type Calibrator struct {
	lut   *CalibrationLUT
	noise *NoiseLUT
}

// NewCalibrator pairs a calibration table with an optional noise model. A
// nil noise model disables noise removal.
func NewCalibrator(lut *CalibrationLUT, noise *NoiseLUT) (*Calibrator, error) {
	if lut == nil {
		return nil, fmt.Errorf("calibrator needs a calibration table: %w", ErrInvalidLUT)
	}
	return &Calibrator{lut: lut, noise: noise}, nil
}

// Intensity returns max(0, |a|² − noise) / lut², scaled by the absolute
// calibration constant. amplitude is the detected magnitude of the pixel.
func (c *Calibrator) Intensity(amplitude, pixel, line float64) float64 {
	return c.calibrate(amplitude*amplitude, pixel, line)
}

// ComplexIntensity is Intensity for a complex SLC sample.
func (c *Calibrator) ComplexIntensity(v complex64, pixel, line float64) float64 {
	re, im := float64(real(v)), float64(imag(v))
	return c.calibrate(re*re+im*im, pixel, line)
}

func (c *Calibrator) calibrate(power, pixel, line float64) float64 {
	if c.noise != nil {
		power = max(power-c.noise.Value(pixel, line), 0)
	}
	a := c.lut.Value(pixel, line)
	if a == 0 {
		return 0
	}
	return power / (a * a) * c.lut.AbsoluteConstant()
}
