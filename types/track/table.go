package track

import (
	"fmt"
	"time"

	"github.com/trajkit/trajkit/common"
	"github.com/trajkit/trajkit/conceptual"
)

// Canonical column names. Anything else in a row is passthrough.
const (
	ColID       = "id"
	ColLat      = "lat"
	ColLon      = "lon"
	ColDatetime = "datetime"

	ColDt           = "dt"
	ColDistToPrev   = "dist_to_prev"
	ColSpeed        = "speed"
	ColBearing      = "bearing"
	ColSegmentLabel = "segment_label"
	ColSegmentID    = "segment_id"
	ColClusterID    = "cluster_id"
)

// ParseRow adapts one tabular row into a Point. This is the single
// ingestion boundary: the core never branches on input container type
// downstream of it. The row itself rides along as passthrough Props.
func ParseRow(row map[string]any) (Point, error) {
	p := Point{Props: row}

	switch v := row[ColID].(type) {
	case string:
		p.EntityID = conceptual.EntityID(v)
	case float64:
		p.EntityID = conceptual.EntityID(fmt.Sprintf("%.0f", v))
	default:
		return p, fmt.Errorf("missing or non-scalar column %q", ColID)
	}

	lat, ok := row[ColLat].(float64)
	if !ok {
		return p, fmt.Errorf("missing column %q: entity=%s", ColLat, p.EntityID)
	}
	lon, ok := row[ColLon].(float64)
	if !ok {
		return p, fmt.Errorf("missing column %q: entity=%s", ColLon, p.EntityID)
	}
	p.Lat, p.Lon = lat, lon

	switch v := row[ColDatetime].(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return p, fmt.Errorf("column %q: %w", ColDatetime, err)
		}
		p.Time = t
	case float64:
		p.Time = time.Unix(int64(v), 0)
	default:
		return p, fmt.Errorf("missing column %q: entity=%s", ColDatetime, p.EntityID)
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// AugmentRow returns the original row plus the derived columns.
// motion is nil for the first point of a trajectory (no predecessor).
// segOrdinal is the segment's ordinal within its trajectory.
func AugmentRow(p Point, motion *MotionRecord, seg Segment, segOrdinal int) map[string]any {
	out := make(map[string]any, len(p.Props)+7)
	for k, v := range p.Props {
		out[k] = v
	}
	if motion != nil {
		out[ColDt] = motion.Dt.Seconds()
		out[ColDistToPrev] = common.DecimalToFixed(motion.Dist, 2)
		out[ColSpeed] = common.DecimalToFixed(motion.Speed, 2)
		out[ColBearing] = common.DecimalToFixed(motion.Bearing, 2)
	}
	out[ColSegmentLabel] = string(seg.Label)
	out[ColSegmentID] = segOrdinal
	if seg.Label == Stop {
		out[ColClusterID] = seg.ClusterID
	}
	return out
}
