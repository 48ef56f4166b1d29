// Package motion derives per-point kinematic features from an ordered
// point sequence: time delta, distance delta, speed, bearing, and
// direction change. It owns the dt > 0 invariant: a zero or negative
// delta is a data-quality fault repaired here (earlier point wins)
// rather than propagated.
package motion

import (
	"log/slog"
	"math"
	"time"

	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

// Compute derives one MotionRecord per point index >= 1 of the repaired
// trajectory. Points whose timestamp does not advance past their
// predecessor's are dropped and recorded as anomalies; the repaired
// trajectory is returned re-sequenced. Single-point trajectories yield
// an empty record slice.
//
// Speeds above cfg.SpeedCeiling are flagged, not removed; the segmenter
// decides whether to treat them as sensor noise.
func Compute(tj track.Trajectory, cfg *params.MotionConfig) (track.Trajectory, []track.MotionRecord, []track.Anomaly) {
	if cfg == nil {
		cfg = params.DefaultMotionConfig
	}

	repaired, anomalies := repair(tj)
	if repaired.Len() < 2 {
		return repaired, nil, anomalies
	}

	var smoother *speedSmoother
	if cfg.KalmanSmoothing {
		smoother = newSpeedSmoother(repaired.Points[0])
	}

	records := make([]track.MotionRecord, 0, repaired.Len()-1)
	prevBearing := math.NaN()
	for i := 1; i < repaired.Len(); i++ {
		prev, cur := repaired.Points[i-1], repaired.Points[i]

		dt := cur.Time.Sub(prev.Time)
		dist := cell.Distance(prev.Point(), cur.Point())
		speed := dist / dt.Seconds()
		bearing := cell.Bearing(prev.Point(), cur.Point())

		rec := track.MotionRecord{
			Dt:      dt,
			Dist:    dist,
			Speed:   speed,
			Bearing: bearing,
		}
		if !math.IsNaN(prevBearing) {
			rec.TurnAngle = turnAngle(prevBearing, bearing)
		}
		prevBearing = bearing

		if smoother != nil {
			rec.KalmanSpeed = smoother.observe(cur, dt, speed)
		}

		if cfg.SpeedCeiling > 0 && speed > cfg.SpeedCeiling {
			rec.SpeedOutlier = true
			anomalies = append(anomalies, track.Anomaly{
				Kind:     track.AnomalySpeedOutlier,
				EntityID: tj.EntityID,
				Seq:      cur.Seq,
				Detail:   "speed above ceiling",
			})
		}

		records = append(records, rec)
	}
	return repaired, records, anomalies
}

// repair drops points whose timestamp is not strictly after the
// previous kept point's, logging the anomaly rather than failing the
// trajectory. Indices are reassigned afterward so that derived views
// key cleanly by (entity, index).
func repair(tj track.Trajectory) (track.Trajectory, []track.Anomaly) {
	var anomalies []track.Anomaly
	kept := make([]track.Point, 0, len(tj.Points))
	for _, p := range tj.Points {
		if len(kept) > 0 && !p.Time.After(kept[len(kept)-1].Time) {
			anomalies = append(anomalies, track.Anomaly{
				Kind:     track.AnomalyNonMonotonicTime,
				EntityID: tj.EntityID,
				Seq:      p.Seq,
				Detail:   p.Time.Format(time.RFC3339),
			})
			slog.Debug("Dropping non-monotonic point",
				"entity", tj.EntityID, "seq", p.Seq, "time", p.Time)
			continue
		}
		kept = append(kept, p)
	}
	for i := range kept {
		kept[i].Seq = i
	}
	return track.Trajectory{EntityID: tj.EntityID, Points: kept}, anomalies
}

// turnAngle returns the absolute bearing change, folded to [0, 180].
func turnAngle(prev, next float64) float64 {
	d := math.Abs(next - prev)
	if d > 180 {
		d = 360 - d
	}
	return d
}
