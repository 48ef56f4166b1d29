// Package query compares whole trajectories: which trajectories pass
// near this one, and which k are most similar. Distances are
// coordinate-space (degrees), matching points pairwise by index, so
// measures are cheap and scale with the shorter trajectory.
package query

import (
	"fmt"
	"math"
	"sort"

	"github.com/trajkit/trajkit/types/track"
)

// Measure selects a trajectory distance function.
type Measure string

const (
	// MEDP sums the pairwise euclidean distance between index-aligned
	// coordinates.
	MEDP Measure = "MEDP"

	// MEDT additionally separates trajectories that visit the same
	// places at different times, folding the timestamp delta (scaled
	// to seconds) into each pairwise term.
	MEDT Measure = "MEDT"
)

// medtTimeScale converts nanoseconds into the same order of magnitude
// as coordinate degrees.
const medtTimeScale = 1e9

type distanceFunc func(a, b track.Trajectory) float64

func measureFunc(m Measure) (distanceFunc, error) {
	switch m {
	case MEDP:
		return medp, nil
	case MEDT:
		return medt, nil
	}
	return nil, fmt.Errorf("unknown distance measure %q, use MEDP or MEDT", m)
}

func medp(a, b track.Trajectory) float64 {
	n := min(len(a.Points), len(b.Points))
	sum := 0.0
	for i := 0; i < n; i++ {
		dLon := a.Points[i].Lon - b.Points[i].Lon
		dLat := a.Points[i].Lat - b.Points[i].Lat
		sum += math.Sqrt(dLon*dLon + dLat*dLat)
	}
	return sum
}

func medt(a, b track.Trajectory) float64 {
	n := min(len(a.Points), len(b.Points))
	sum := 0.0
	for i := 0; i < n; i++ {
		dLon := a.Points[i].Lon - b.Points[i].Lon
		dLat := a.Points[i].Lat - b.Points[i].Lat
		dT := float64(a.Points[i].Time.UnixNano()-b.Points[i].Time.UnixNano()) / medtTimeScale
		sum += math.Sqrt(dLon*dLon + dLat*dLat + dT*dT)
	}
	return sum
}

// Range returns the trajectories in others whose distance to traj is
// strictly less than minDist, in input order. The query trajectory
// itself is not excluded; callers filter by entity if they care.
func Range(traj track.Trajectory, others []track.Trajectory, minDist float64, measure Measure) ([]track.Trajectory, error) {
	dist, err := measureFunc(measure)
	if err != nil {
		return nil, err
	}
	var out []track.Trajectory
	for _, other := range others {
		if dist(traj, other) < minDist {
			out = append(out, other)
		}
	}
	return out, nil
}

// KNNResult pairs a trajectory with its distance to the query.
type KNNResult struct {
	Trajectory track.Trajectory
	Distance   float64
}

// KNN returns the k trajectories in others most similar to traj,
// ascending by distance, ties broken by entity id. Trajectories sharing
// traj's entity id are skipped. Fewer than k candidates returns them
// all.
func KNN(traj track.Trajectory, others []track.Trajectory, k int, measure Measure) ([]KNNResult, error) {
	dist, err := measureFunc(measure)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("knn k must be positive, got %d", k)
	}
	results := make([]KNNResult, 0, len(others))
	for _, other := range others {
		if other.EntityID == traj.EntityID {
			continue
		}
		results = append(results, KNNResult{Trajectory: other, Distance: dist(traj, other)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Trajectory.EntityID < results[j].Trajectory.EntityID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
