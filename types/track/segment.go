package track

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/trajkit/trajkit/common"
	"github.com/trajkit/trajkit/conceptual"
)

// Label is the motion state of a segment.
type Label string

const (
	Stop Label = "STOP"
	Move Label = "MOVE"
)

// Cluster id sentinels.
const (
	// ClusterNone marks rows that never participate in clustering (MOVE rows).
	ClusterNone = -2
	// ClusterNoise marks STOP rows reachable by no core point.
	ClusterNoise = -1
)

// Segment is a maximal contiguous run of same-state points within one
// trajectory. Segments of one trajectory partition its point indices
// exhaustively: no gaps, no overlaps.
type Segment struct {
	EntityID conceptual.EntityID `json:"entity"`
	Label    Label               `json:"label"`
	Start    int                 `json:"start"` // point index, inclusive
	End      int                 `json:"end"`   // point index, inclusive
	Duration time.Duration       `json:"duration"`

	// Centroid is the mean position of member points. STOP only.
	Centroid orb.Point `json:"centroid,omitempty"`

	// DominantSpeed is the median of member motion speeds, m/s. MOVE only.
	DominantSpeed float64 `json:"dominant_speed,omitempty"`

	// ClusterID is assigned by the clusterer on STOP segments;
	// ClusterNone otherwise.
	ClusterID int `json:"cluster_id"`
}

// Span returns the number of points the segment covers.
func (s Segment) Span() int {
	return s.End - s.Start + 1
}

// NewStopSegment summarizes a run of stationary points.
func NewStopSegment(tj Trajectory, start, end int) Segment {
	pts := tj.Points[start : end+1]
	mp := make(orb.MultiPoint, 0, len(pts))
	for _, p := range pts {
		mp = append(mp, p.Point())
	}
	centroid, _ := planar.CentroidArea(mp)
	return Segment{
		EntityID:  tj.EntityID,
		Label:     Stop,
		Start:     start,
		End:       end,
		Duration:  pts[len(pts)-1].Time.Sub(pts[0].Time).Round(time.Second),
		Centroid:  centroid,
		ClusterID: ClusterNone,
	}
}

// NewMoveSegment summarizes a run of moving points.
// Motion records index the trajectory from 1; speeds for points
// (start, end] feed the dominant speed. A degenerate single-point
// segment carries no speed.
func NewMoveSegment(tj Trajectory, motion []MotionRecord, start, end int) Segment {
	seg := Segment{
		EntityID:  tj.EntityID,
		Label:     Move,
		Start:     start,
		End:       end,
		Duration:  tj.Points[end].Time.Sub(tj.Points[start].Time).Round(time.Second),
		ClusterID: ClusterNone,
	}
	speeds := make([]float64, 0, end-start)
	for i := start + 1; i <= end; i++ {
		speeds = append(speeds, motion[i-1].Speed)
	}
	if len(speeds) > 0 {
		median, err := stats.Median(stats.Float64Data(speeds))
		if err == nil {
			seg.DominantSpeed = common.DecimalToFixed(median, 2)
		}
	}
	return seg
}

// StopID keys a STOP segment across the whole batch.
type StopID struct {
	EntityID conceptual.EntityID `json:"entity"`
	Start    int                 `json:"start"`
}

// Cluster is a recurring place: a group of STOP segments.
// Membership is recomputed wholesale on each clustering run.
type Cluster struct {
	ID       int       `json:"cluster_id"`
	Members  []StopID  `json:"members"`
	Centroid orb.Point `json:"centroid"`
}
