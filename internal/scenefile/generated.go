package scenefile

import (
	"github.com/signalsfoundry/sar-geolocation/internal/scenegen"
)

// FromGenerated wraps a synthetic scene, and optionally its radiometric
// annotations, for writing to disk.
func FromGenerated(name string, g *scenegen.Scene, r *scenegen.Radiometry) *Scene {
	s := &Scene{
		Name:                        name,
		Params:                      g.Params,
		Records:                     g.Records,
		AbsoluteCalibrationConstant: 1,
	}
	if r != nil {
		s.Calibration = r.Calibration
		s.RangeNoise = r.RangeNoise
		s.AzimuthNoise = r.AzimuthNoise
	}
	return s
}
