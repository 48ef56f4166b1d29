// Package clusterer groups STOP segments into recurring places with
// density-based clustering (DBSCAN). Neighborhood lookups go through
// the grid index, so a run over n stops costs roughly O(n * ring)
// instead of O(n^2).
package clusterer

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/grid"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

type Clusterer struct {
	Config *params.ClusterConfig
	Level  cell.Level
}

func New(config *params.ClusterConfig, level cell.Level) *Clusterer {
	if config == nil {
		config = params.DefaultClusterConfig
	}
	return &Clusterer{Config: config, Level: level}
}

// Validate fails fast before any computation starts.
func (c *Clusterer) Validate() error {
	eps := c.Config.EpsMeters
	if eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return &track.ClusteringParameterError{Param: "eps_meters", Value: eps}
	}
	if c.Config.MinPoints < 1 {
		return &track.ClusteringParameterError{Param: "min_points", Value: c.Config.MinPoints}
	}
	return nil
}

// Cluster runs DBSCAN over the centroids of the given STOP segments and
// assigns each segment's ClusterID in place. MOVE segments are left
// untouched. Repeated runs over the same input produce identical
// labelings: seeds are visited in (entity, start) order and cluster ids
// count up from zero.
func (c *Clusterer) Cluster(stops []*track.Segment) ([]track.Cluster, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Only STOPs participate; anything else keeps ClusterNone.
	members := make([]*track.Segment, 0, len(stops))
	for _, seg := range stops {
		if seg.Label == track.Stop {
			members = append(members, seg)
		}
	}
	slices.SortStableFunc(members, func(a, b *track.Segment) int {
		if a.EntityID != b.EntityID {
			if a.EntityID < b.EntityID {
				return -1
			}
			return 1
		}
		return a.Start - b.Start
	})

	points := make([]grid.IndexPoint, len(members))
	byID := make(map[track.StopID]*track.Segment, len(members))
	for i, seg := range members {
		id := track.StopID{EntityID: seg.EntityID, Start: seg.Start}
		points[i] = grid.IndexPoint{ID: id, Point: seg.Centroid}
		byID[id] = seg
	}
	ix := grid.Build(points, c.Level)

	nextID := 0
	var clusters []track.Cluster
	for _, seed := range members {
		if seed.ClusterID != track.ClusterNone {
			continue
		}
		neighbors := ix.RangeQuery(seed.Centroid, c.Config.EpsMeters)
		if len(neighbors) < c.Config.MinPoints {
			seed.ClusterID = track.ClusterNoise
			continue
		}

		clusterID := nextID
		nextID++
		seed.ClusterID = clusterID

		// Expand: frontier of core-reachable stops. Border points
		// (noise so far, or unvisited but non-core) join the cluster
		// without expanding it.
		queue := neighbors
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			seg := byID[p.ID]
			if seg.ClusterID == track.ClusterNoise {
				seg.ClusterID = clusterID
				continue
			}
			if seg.ClusterID != track.ClusterNone {
				continue
			}
			seg.ClusterID = clusterID
			reach := ix.RangeQuery(seg.Centroid, c.Config.EpsMeters)
			if len(reach) >= c.Config.MinPoints {
				queue = append(queue, reach...)
			}
		}

		clusters = append(clusters, track.Cluster{ID: clusterID})
	}

	// Membership and centroids in one pass, member order matching seed
	// order.
	for _, seg := range members {
		if seg.ClusterID < 0 {
			continue
		}
		cl := &clusters[seg.ClusterID]
		cl.Members = append(cl.Members, track.StopID{EntityID: seg.EntityID, Start: seg.Start})
	}
	for i := range clusters {
		mp := make(orb.MultiPoint, 0, len(clusters[i].Members))
		for _, id := range clusters[i].Members {
			mp = append(mp, byID[id].Centroid)
		}
		clusters[i].Centroid, _ = planar.CentroidArea(mp)
	}
	return clusters, nil
}
