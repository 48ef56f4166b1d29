// Package segmenter partitions a trajectory into labeled STOP and MOVE
// segments. It is a state machine over consecutive points: an entity is
// MOVING until a trailing window of mutually-near points has dwelled
// long enough, and STOPPED until a point escapes the stop's running
// centroid. Segments partition the point indices exhaustively; no gaps,
// no overlaps, for every threshold configuration.
package segmenter

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

type State int

const (
	Moving State = iota
	Stopped
)

type Segmenter struct {
	Config *params.SegmentationConfig
}

func New(config *params.SegmentationConfig) *Segmenter {
	if config == nil {
		config = params.DefaultSegmentationConfig
	}
	return &Segmenter{Config: config}
}

// Segment labels the trajectory's points and returns its segments in
// order. The motion slice must be the one derived from this (repaired)
// trajectory; a length mismatch means the input is still malformed and
// the trajectory is skipped and reported rather than aborting the batch.
//
// Trajectories shorter than 2 points produce a single degenerate MOVE
// segment of length 1, with no speed.
func (s *Segmenter) Segment(tj track.Trajectory, motion []track.MotionRecord) ([]track.Segment, []track.Anomaly) {
	n := tj.Len()
	if n == 0 {
		return nil, []track.Anomaly{{
			Kind:     track.AnomalySkippedTrajectory,
			EntityID: tj.EntityID,
			Detail:   "no points",
		}}
	}
	if n == 1 {
		return []track.Segment{track.NewMoveSegment(tj, motion, 0, 0)},
			[]track.Anomaly{{
				Kind:     track.AnomalyDegenerateTrajectory,
				EntityID: tj.EntityID,
				Detail:   "single point",
			}}
	}
	if len(motion) != n-1 {
		slog.Warn("Segmenter skipping malformed trajectory",
			"entity", tj.EntityID, "points", n, "motion", len(motion))
		return nil, []track.Anomaly{{
			Kind:     track.AnomalySkippedTrajectory,
			EntityID: tj.EntityID,
			Detail:   "motion records do not match points",
		}}
	}

	var segments []track.Segment

	state := Moving
	moveStart := 0
	stopStart := 0

	// window holds the trailing run of point indices that are all
	// within StopRadius of each other; the dwell candidate.
	window := make([]int, 0, 16)

	// Running stop centroid, maintained as coordinate sums.
	var sumLon, sumLat float64
	var members int

	centroid := func() orb.Point {
		return orb.Point{sumLon / float64(members), sumLat / float64(members)}
	}
	absorb := func(i int) {
		pt := tj.Points[i].Point()
		sumLon += pt.Lon()
		sumLat += pt.Lat()
		members++
	}

	for i := 0; i < n; i++ {
		pt := tj.Points[i].Point()

		switch state {
		case Moving:
			// Keep the window mutually near: drop leading points until
			// every remaining member is within StopRadius of this one.
			for len(window) > 0 {
				within := true
				for _, j := range window {
					if cell.Distance(tj.Points[j].Point(), pt) > s.Config.StopRadius {
						within = false
						break
					}
				}
				if within {
					break
				}
				window = window[1:]
			}
			window = append(window, i)

			span := tj.Points[window[len(window)-1]].Time.Sub(tj.Points[window[0]].Time)
			// A dwell of exactly MinStopDuration counts as stopped.
			if span >= s.Config.MinStopDuration {
				stopStart = window[0]
				if stopStart > moveStart {
					segments = append(segments, track.NewMoveSegment(tj, motion, moveStart, stopStart-1))
				}
				state = Stopped
				sumLon, sumLat, members = 0, 0, 0
				for _, j := range window {
					absorb(j)
				}
				window = window[:0]
			}

		case Stopped:
			if cell.Distance(centroid(), pt) > s.Config.StopRadius {
				// First escape from the running centroid ends the stop.
				segments = append(segments, track.NewStopSegment(tj, stopStart, i-1))
				state = Moving
				moveStart = i
				window = append(window[:0], i)
				continue
			}
			absorb(i)
		}
	}

	// Close the final segment at the last index regardless of state.
	switch state {
	case Moving:
		segments = append(segments, track.NewMoveSegment(tj, motion, moveStart, n-1))
	case Stopped:
		segments = append(segments, track.NewStopSegment(tj, stopStart, n-1))
	}

	return segments, nil
}
