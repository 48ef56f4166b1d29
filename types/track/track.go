// Package track defines the typed records the pipeline flows:
// points, trajectories, motion records, segments, and clusters.
// Records are owned by value; derived views (motion, segments,
// clusters) are recomputed from scratch whenever the source table
// changes, never patched in place.
package track

import (
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/trajkit/trajkit/common"
	"github.com/trajkit/trajkit/conceptual"
)

// Point is one timestamped spatial fix of one entity.
// Props carries any passthrough columns from the source table, untouched.
type Point struct {
	EntityID conceptual.EntityID `json:"id"`
	Lat      float64             `json:"lat"`
	Lon      float64             `json:"lon"`
	Time     time.Time           `json:"datetime"`
	Seq      int                 `json:"-"`
	Props    map[string]any      `json:"-"`
}

// Point returns the fix as an orb geometry, x,y::lng,lat.
func (p Point) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Validate checks the coordinate invariant.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return &InvalidCoordinateError{
			EntityID: p.EntityID, Seq: p.Seq, Lat: p.Lat, Lon: p.Lon,
		}
	}
	if p.Time.IsZero() {
		return fmt.Errorf("zero time: entity=%s seq=%d", p.EntityID, p.Seq)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("%s %s [%v,%v]",
		p.EntityID,
		p.Time.Format("2006-01-02 15:04:05"),
		common.DecimalToFixed(p.Lat, common.GPSPrecision5),
		common.DecimalToFixed(p.Lon, common.GPSPrecision5),
	)
}

// SlicesSortFunc orders points chronologically, entity first.
// Equal timestamps compare as equal, so a stable sort preserves
// original input order for ties.
func SlicesSortFunc(a, b Point) int {
	if a.EntityID != b.EntityID {
		if a.EntityID < b.EntityID {
			return -1
		}
		return 1
	}
	if a.Time.Before(b.Time) {
		return -1
	}
	if a.Time.After(b.Time) {
		return 1
	}
	return 0
}

// Trajectory is the ordered fix sequence of one entity.
// Invariant: at least one point, non-decreasing timestamps.
type Trajectory struct {
	EntityID conceptual.EntityID
	Points   []Point
}

// NewTrajectory builds a trajectory from points of one entity,
// stable-sorted by time (ties keep input order) and re-sequenced.
// Duplicate timestamps are reported as anomalies, not errors.
func NewTrajectory(id conceptual.EntityID, points []Point) (Trajectory, []Anomaly) {
	pts := make([]Point, len(points))
	copy(pts, points)
	slices.SortStableFunc(pts, SlicesSortFunc)

	var anomalies []Anomaly
	for i := range pts {
		pts[i].Seq = i
		if i > 0 && pts[i].Time.Equal(pts[i-1].Time) {
			anomalies = append(anomalies, Anomaly{
				Kind:     AnomalyDuplicateTimestamp,
				EntityID: id,
				Seq:      i,
				Detail:   pts[i].Time.Format(time.RFC3339),
			})
		}
	}
	return Trajectory{EntityID: id, Points: pts}, anomalies
}

// Len returns the number of points.
func (tj Trajectory) Len() int {
	return len(tj.Points)
}

// Timespan returns the duration from first to last fix.
func (tj Trajectory) Timespan() time.Duration {
	if len(tj.Points) < 2 {
		return 0
	}
	return tj.Points[len(tj.Points)-1].Time.Sub(tj.Points[0].Time)
}

// MotionRecord carries per-point kinematics relative to the previous
// point. One record per point index >= 1; always a freshly derived
// slice, never mutated in place.
type MotionRecord struct {
	Dt        time.Duration
	Dist      float64 // meters since previous point
	Speed     float64 // m/s
	Bearing   float64 // degrees, [0,360)
	TurnAngle float64 // degrees, absolute change from previous bearing

	// KalmanSpeed is the filtered speed estimate, when smoothing is
	// enabled. Zero otherwise.
	KalmanSpeed float64

	// SpeedOutlier marks implausible instantaneous speed above the
	// configured ceiling. Flagged, never silently removed; the
	// segmenter decides whether to treat it as sensor noise.
	SpeedOutlier bool
}
