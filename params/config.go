package params

import (
	"time"

	"github.com/trajkit/trajkit/geo/cell"
)

// Config aggregates every knob the pipeline recognizes.
// It is threaded explicitly into each component entry point;
// nothing reads package-level state after construction.
type Config struct {
	Motion       MotionConfig
	Segmentation SegmentationConfig
	Grid         GridConfig
	Cluster      ClusterConfig
	Clean        CleanConfig
	Simplify     SimplificationConfig
}

func DefaultConfig() Config {
	return Config{
		Motion:       *DefaultMotionConfig,
		Segmentation: *DefaultSegmentationConfig,
		Grid:         *DefaultGridConfig,
		Cluster:      *DefaultClusterConfig,
		Clean:        *DefaultCleanConfig,
		Simplify:     *DefaultSimplificationConfig,
	}
}

type MotionConfig struct {
	// SpeedCeiling flags (but does not remove) implausible instantaneous
	// speeds. Informational only; segmentation decides what to do with them.
	SpeedCeiling float64

	// KalmanSmoothing enables a Kalman filter over observed positions,
	// producing a smoothed speed estimate alongside the raw calculation.
	KalmanSmoothing bool
}

var DefaultMotionConfig = &MotionConfig{
	SpeedCeiling:    SpeedCeilingDefault,
	KalmanSmoothing: false,
}

// SpeedCeilingDefault is just below the speed of sound.
// Nothing we track goes faster without leaving the dataset's domain.
const SpeedCeilingDefault = 340.0

type SegmentationConfig struct {
	// StopRadius is the spatial bound on a dwell, meters.
	// Points of one stop stay within this radius of each other.
	StopRadius float64

	// MinStopDuration is the minimum dwell time for a stop.
	// A dwell of exactly MinStopDuration counts as stopped.
	MinStopDuration time.Duration
}

var DefaultSegmentationConfig = &SegmentationConfig{
	StopRadius:      50,
	MinStopDuration: 2 * time.Minute,
}

type GridConfig struct {
	// CellLevel is the S2 cell level for the spatial index.
	// Domain-dependent: urban data wants finer cells than rural.
	CellLevel cell.Level
}

var DefaultGridConfig = &GridConfig{
	CellLevel: cell.Level16, // throwing distance
}

type ClusterConfig struct {
	// EpsMeters is the DBSCAN neighborhood radius.
	EpsMeters float64

	// MinPoints is the density threshold for a core point,
	// counting the point itself.
	MinPoints int
}

var DefaultClusterConfig = &ClusterConfig{
	EpsMeters: 100,
	MinPoints: 3,
}

type CleanConfig struct {
	// SpeedMax drops points whose calculated speed to the previous point
	// exceeds it, repeatedly until no point does.
	SpeedMax float64

	// RadiusMin drops points closer than this to their predecessor.
	RadiusMin float64

	// MinTrajectoryPoints drops whole trajectories with fewer points.
	MinTrajectoryPoints int
}

var DefaultCleanConfig = &CleanConfig{
	SpeedMax:            50,
	RadiusMin:           0,
	MinTrajectoryPoints: 2,
}

type SimplificationConfig struct {
	DouglasPeuckerThreshold float64
}

var DefaultSimplificationConfig = &SimplificationConfig{
	DouglasPeuckerThreshold: 0.00008,
}
