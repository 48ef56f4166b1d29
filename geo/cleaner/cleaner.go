// Package cleaner removes junk fixes before analysis: invalid
// coordinates, GPS jumps, jitter, and trajectories too short to say
// anything about.
package cleaner

import (
	"context"

	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

// FilterValid reports whether the point carries plausible coordinates.
func FilterValid(p track.Point) bool {
	return p.Validate() == nil
}

// SpeedMaxFilter drops points whose speed from the last kept point of
// the same entity exceeds cfg.SpeedMax, m/s. A jump drops the arriving
// point, not the anchor, so a single teleport costs one fix.
func SpeedMaxFilter(ctx context.Context, cfg *params.CleanConfig, in <-chan track.Point) <-chan track.Point {
	if cfg == nil {
		cfg = params.DefaultCleanConfig
	}
	out := make(chan track.Point)
	go func() {
		defer close(out)
		last := map[conceptual.EntityID]track.Point{}
		for p := range in {
			if anchor, ok := last[p.EntityID]; ok {
				dt := p.Time.Sub(anchor.Time).Seconds()
				if dt > 0 {
					if cell.Distance(anchor.Point(), p.Point())/dt > cfg.SpeedMax {
						continue
					}
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- p:
				last[p.EntityID] = p
			}
		}
	}()
	return out
}

// NearbyPointFilter drops points closer than cfg.RadiusMin, meters, to
// the last kept point of the same entity. Stationary jitter collapses
// to its first fix. A zero radius passes everything through.
func NearbyPointFilter(ctx context.Context, cfg *params.CleanConfig, in <-chan track.Point) <-chan track.Point {
	if cfg == nil {
		cfg = params.DefaultCleanConfig
	}
	out := make(chan track.Point)
	go func() {
		defer close(out)
		last := map[conceptual.EntityID]track.Point{}
		for p := range in {
			if anchor, ok := last[p.EntityID]; ok && cfg.RadiusMin > 0 {
				if cell.Distance(anchor.Point(), p.Point()) < cfg.RadiusMin {
					continue
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- p:
				last[p.EntityID] = p
			}
		}
	}()
	return out
}

// DropShortTrajectories removes trajectories with fewer than
// cfg.MinTrajectoryPoints points, reporting each removal as an anomaly.
func DropShortTrajectories(cfg *params.CleanConfig, tjs []track.Trajectory) ([]track.Trajectory, []track.Anomaly) {
	if cfg == nil {
		cfg = params.DefaultCleanConfig
	}
	kept := make([]track.Trajectory, 0, len(tjs))
	var anomalies []track.Anomaly
	for _, tj := range tjs {
		if len(tj.Points) < cfg.MinTrajectoryPoints {
			anomalies = append(anomalies, track.Anomaly{
				Kind:     track.AnomalySkippedTrajectory,
				EntityID: tj.EntityID,
				Detail:   "too few points",
			})
			continue
		}
		kept = append(kept, tj)
	}
	return kept, anomalies
}
