package core

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/sar-geolocation/internal/logging"
	"github.com/signalsfoundry/sar-geolocation/model"
)

// OptimizeTimeOffsetsFromGCPs estimates the azimuth and range time offsets
// as the mean difference between the annotated GCP times and the times
// predicted from their ground positions. The azimuth offset is estimated
// first and applied before the range residuals are measured. GCPs without a
// doppler crossing are skipped.
//
// The receiver is left untouched; the calibrated model is returned.
func (m *SensorModel) OptimizeTimeOffsetsFromGCPs(ctx context.Context) (*SensorModel, TimeOffsets, error) {
	if len(m.gcps) == 0 {
		return nil, TimeOffsets{}, fmt.Errorf("OptimizeTimeOffsetsFromGCPs: %w", ErrEmptyGCPSet)
	}

	out := m.derive()
	out.offsets = TimeOffsets{}

	var (
		cumAz model.Duration
		count int
	)
	for _, gcp := range out.gcps {
		t, _, err := out.WorldToAzimuthRangeTime(gcp.WorldPoint)
		if err != nil {
			continue
		}
		cumAz += gcp.AzimuthTime.Sub(t)
		count++
	}
	if count == 0 {
		return nil, TimeOffsets{}, fmt.Errorf("OptimizeTimeOffsetsFromGCPs: no GCP could be located: %w", ErrNoDopplerCrossing)
	}
	out.offsets.Azimuth = cumAz.Div(float64(count))

	var cumRange float64
	count = 0
	for _, gcp := range out.gcps {
		_, rt, err := out.WorldToAzimuthRangeTime(gcp.WorldPoint)
		if err != nil {
			continue
		}
		cumRange += gcp.SlantRangeTime - rt
		count++
	}
	if count > 0 {
		out.offsets.Range = cumRange / float64(count)
	}

	out.log.Debug(ctx, "time offsets calibrated from GCPs",
		logging.String("azimuth_offset", out.offsets.Azimuth.String()),
		logging.Any("range_offset_s", out.offsets.Range),
		logging.Int("gcps", len(out.gcps)),
		logging.Int("located", count),
	)
	return out, out.offsets, nil
}
