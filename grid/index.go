// Package grid maintains a discretized spatial index: a mapping from
// S2 cell to the points whose coordinates hash into it. The index is
// built once per clustering run, treated as read-only afterward, and
// discarded after use; it is safe for concurrent queries but not for
// concurrent construction.
package grid

import (
	"sort"

	"github.com/golang/geo/s2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/types/track"
)

const neighborCacheSize = 8192

// IndexPoint is one indexed point reference.
type IndexPoint struct {
	ID    track.StopID
	Point orb.Point
}

// Neighbor pairs an indexed point with its exact distance to a query
// center, meters.
type Neighbor struct {
	IndexPoint
	Distance float64
}

type Index struct {
	level cell.Level
	cells map[s2.CellID][]IndexPoint
	size  int

	// Ring expansions revisit the same cells constantly; memoize
	// their adjacency.
	neighbors *lru.Cache[s2.CellID, []s2.CellID]
}

// Build buckets the points by cell at the given level. O(n).
func Build(points []IndexPoint, level cell.Level) *Index {
	cache, _ := lru.New[s2.CellID, []s2.CellID](neighborCacheSize)
	ix := &Index{
		level:     level,
		cells:     make(map[s2.CellID][]IndexPoint),
		size:      len(points),
		neighbors: cache,
	}
	for _, p := range points {
		id := cell.Encode(p.Point, level)
		ix.cells[id] = append(ix.cells[id], p)
	}
	return ix
}

func (ix *Index) Len() int {
	return ix.size
}

func (ix *Index) Level() cell.Level {
	return ix.level
}

func (ix *Index) neighborsOf(id s2.CellID) []s2.CellID {
	if cached, ok := ix.neighbors.Get(id); ok {
		return cached
	}
	nbs := cell.Neighbors(id)
	ix.neighbors.Add(id, nbs)
	return nbs
}

// RangeQuery returns every indexed point within radiusMeters of center,
// exact-distance filtered. It walks outward from the center cell over
// cell adjacency, pruning cells that cannot intersect the query disk,
// so it returns no false negatives and no duplicates.
func (ix *Index) RangeQuery(center orb.Point, radiusMeters float64) []IndexPoint {
	start := cell.Encode(center, ix.level)
	visited := map[s2.CellID]struct{}{start: {}}
	queue := []s2.CellID{start}

	var out []IndexPoint
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		// A cell whose nearest edge is beyond the radius holds no
		// results and need not be expanded.
		if cell.MinDistance(center, c) > radiusMeters {
			continue
		}
		for _, p := range ix.cells[c] {
			if cell.Distance(center, p.Point) <= radiusMeters {
				out = append(out, p)
			}
		}
		for _, nb := range ix.neighborsOf(c) {
			if _, ok := visited[nb]; ok {
				continue
			}
			visited[nb] = struct{}{}
			queue = append(queue, nb)
		}
	}
	return out
}

// Nearest returns the k indexed points closest to center, ordered by
// ascending distance (ties broken by id for reproducibility). It
// expands rings of cells outward until at least k candidates are known
// and the nearest unexplored cell is farther than the k-th best.
func (ix *Index) Nearest(center orb.Point, k int) []Neighbor {
	if k < 1 || ix.size == 0 {
		return nil
	}

	start := cell.Encode(center, ix.level)
	visited := map[s2.CellID]struct{}{start: {}}
	ring := []s2.CellID{start}

	var candidates []Neighbor
	for len(ring) > 0 {
		for _, c := range ring {
			for _, p := range ix.cells[c] {
				candidates = append(candidates, Neighbor{
					IndexPoint: p,
					Distance:   cell.Distance(center, p.Point),
				})
			}
		}
		sortNeighbors(candidates)

		var next []s2.CellID
		for _, c := range ring {
			for _, nb := range ix.neighborsOf(c) {
				if _, ok := visited[nb]; ok {
					continue
				}
				visited[nb] = struct{}{}
				next = append(next, nb)
			}
		}

		// Terminate once the ring boundary cannot improve the k-th best.
		if len(candidates) >= k {
			frontier := frontierDistance(center, next)
			if len(next) == 0 || frontier > candidates[k-1].Distance {
				break
			}
		}
		ring = next
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

func frontierDistance(center orb.Point, cells []s2.CellID) float64 {
	min := -1.0
	for _, c := range cells {
		d := cell.MinDistance(center, c)
		if min < 0 || d < min {
			min = d
		}
	}
	return min
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		if ns[i].ID.EntityID != ns[j].ID.EntityID {
			return ns[i].ID.EntityID < ns[j].ID.EntityID
		}
		return ns[i].ID.Start < ns[j].ID.Start
	})
}
