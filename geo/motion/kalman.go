package motion

import (
	"log/slog"
	"time"

	rkalman "github.com/regnull/kalman"
	"github.com/trajkit/trajkit/common"
	"github.com/trajkit/trajkit/types/track"
)

// speedSmoother wraps a geodetic Kalman filter to estimate a smoothed
// speed alongside the raw calculation. Observation accuracies are
// nominal; the source table carries no per-fix accuracy column.
type speedSmoother struct {
	filter *rkalman.GeoFilter
}

func newSpeedSmoother(first track.Point) *speedSmoother {
	filter, err := rkalman.NewGeoFilter(&rkalman.GeoProcessNoise{
		// We assume the measurements take place near the same latitude,
		// so the earth's curvature can be disregarded between fixes.
		BaseLat: first.Lat,
		// How much we expect the entity to move, meters per second.
		DistancePerSecond: common.SpeedOfWalkingMean,
		// How much we expect the speed to change, meters per second squared.
		SpeedPerSecond: 0.1,
	})
	if err != nil {
		slog.Error("Kalman filter init failed", "error", err)
		return nil
	}
	return &speedSmoother{filter: filter}
}

func (s *speedSmoother) observe(p track.Point, dt time.Duration, speed float64) float64 {
	if s == nil || s.filter == nil {
		return 0
	}
	err := s.filter.Observe(dt.Seconds(), &rkalman.GeoObserved{
		Lat:                p.Lat,
		Lng:                p.Lon,
		Speed:              speed,
		SpeedAccuracy:      0.2,
		HorizontalAccuracy: 10,
		VerticalAccuracy:   2.0,
	})
	if err != nil {
		slog.Error("Kalman.Observe failed", "error", err)
		return 0
	}
	estimate := s.filter.Estimate()
	if estimate == nil {
		return 0
	}
	return estimate.Speed
}
