package track

import (
	"fmt"

	"github.com/trajkit/trajkit/conceptual"
)

// InvalidCoordinateError reports an out-of-range lat/lon.
// It aborts processing of that single point, not the trajectory.
type InvalidCoordinateError struct {
	EntityID conceptual.EntityID
	Seq      int
	Lat, Lon float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate: entity=%s seq=%d lat=%.14f lon=%.14f",
		e.EntityID, e.Seq, e.Lat, e.Lon)
}

// ClusteringParameterError reports unusable clustering thresholds.
// Fatal; raised before any computation starts.
type ClusteringParameterError struct {
	Param string
	Value any
}

func (e *ClusteringParameterError) Error() string {
	return fmt.Sprintf("clustering parameter %s unusable: %v", e.Param, e.Value)
}

// AnomalyKind classifies recoverable data-quality faults.
type AnomalyKind string

const (
	// AnomalyNonMonotonicTime marks a point dropped because its timestamp
	// did not advance past its predecessor's (earlier point wins).
	AnomalyNonMonotonicTime AnomalyKind = "non_monotonic_time"

	// AnomalyDuplicateTimestamp marks two fixes sharing one timestamp;
	// ties were broken by input order.
	AnomalyDuplicateTimestamp AnomalyKind = "duplicate_timestamp"

	// AnomalyDegenerateTrajectory marks a trajectory of fewer than 2
	// points. A single trivial segment is still produced.
	AnomalyDegenerateTrajectory AnomalyKind = "degenerate_trajectory"

	// AnomalySpeedOutlier marks an instantaneous speed above the
	// configured ceiling. Informational.
	AnomalySpeedOutlier AnomalyKind = "speed_outlier"

	// AnomalyInvalidCoordinate marks a point rejected for an
	// out-of-range lat/lon.
	AnomalyInvalidCoordinate AnomalyKind = "invalid_coordinate"

	// AnomalySkippedTrajectory marks a whole trajectory the segmenter
	// refused (still malformed after motion repair).
	AnomalySkippedTrajectory AnomalyKind = "skipped_trajectory"
)

// Anomaly is a recorded, recoverable fault with enough context to
// locate the offending record. One malformed trajectory never aborts
// the batch; anomalies accumulate instead.
type Anomaly struct {
	Kind     AnomalyKind         `json:"kind"`
	EntityID conceptual.EntityID `json:"entity"`
	Seq      int                 `json:"seq"`
	Detail   string              `json:"detail,omitempty"`
}

func (a Anomaly) String() string {
	if a.Detail == "" {
		return fmt.Sprintf("%s entity=%s seq=%d", a.Kind, a.EntityID, a.Seq)
	}
	return fmt.Sprintf("%s entity=%s seq=%d (%s)", a.Kind, a.EntityID, a.Seq, a.Detail)
}
