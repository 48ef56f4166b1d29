package grid

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/paulmach/orb"
	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/types/track"
)

// scatterPoints spreads n points uniformly in a box spanMeters wide
// around (lat, lon).
func scatterPoints(r *rand.Rand, n int, lat, lon, spanMeters float64) []IndexPoint {
	spanDeg := spanMeters / 111_320.0
	pts := make([]IndexPoint, n)
	for i := range pts {
		pts[i] = IndexPoint{
			ID: track.StopID{
				EntityID: conceptual.EntityID(fmt.Sprintf("cat-%d", i%7)),
				Start:    i,
			},
			Point: orb.Point{
				lon + (r.Float64()-0.5)*spanDeg,
				lat + (r.Float64()-0.5)*spanDeg,
			},
		}
	}
	return pts
}

func TestBuildBuckets(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	pts := scatterPoints(r, 100, 46.8, -113.9, 2000)
	ix := Build(pts, cell.Level16)
	if ix.Len() != 100 {
		t.Errorf("Expected Len 100, got %d", ix.Len())
	}
	if ix.Level() != cell.Level16 {
		t.Errorf("Expected level 16, got %d", ix.Level())
	}
	empty := Build(nil, cell.Level16)
	if empty.Len() != 0 {
		t.Errorf("Expected empty index, got %d", empty.Len())
	}
}

// Range queries must agree exactly with a brute force scan: grid
// traversal may prune cells, never points.
func TestRangeQueryMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	pts := scatterPoints(r, 500, 46.8, -113.9, 5000)
	ix := Build(pts, cell.Level16)

	for trial := 0; trial < 25; trial++ {
		center := orb.Point{
			-113.9 + (r.Float64()-0.5)*5000/111_320.0,
			46.8 + (r.Float64()-0.5)*5000/111_320.0,
		}
		radius := 50 + r.Float64()*1500

		var want []track.StopID
		for _, p := range pts {
			if cell.Distance(center, p.Point) <= radius {
				want = append(want, p.ID)
			}
		}
		got := ix.RangeQuery(center, radius)

		if len(got) != len(want) {
			t.Fatalf("radius %.0f: Expected %d results, got %d", radius, len(want), len(got))
		}
		seen := map[track.StopID]bool{}
		for _, n := range got {
			if seen[n.ID] {
				t.Fatalf("duplicate result %v", n.ID)
			}
			seen[n.ID] = true
		}
		for _, id := range want {
			if !seen[id] {
				t.Fatalf("radius %.0f: missing %v", radius, id)
			}
		}
	}
}

func TestRangeQueryEmpty(t *testing.T) {
	ix := Build(nil, cell.Level16)
	if got := ix.RangeQuery(orb.Point{-113.9, 46.8}, 1000); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	pts := scatterPoints(r, 300, 46.8, -113.9, 5000)
	ix := Build(pts, cell.Level16)

	for trial := 0; trial < 25; trial++ {
		center := orb.Point{
			-113.9 + (r.Float64()-0.5)*5000/111_320.0,
			46.8 + (r.Float64()-0.5)*5000/111_320.0,
		}
		k := 1 + r.Intn(12)

		want := make([]Neighbor, 0, len(pts))
		for _, p := range pts {
			want = append(want, Neighbor{IndexPoint: p, Distance: cell.Distance(center, p.Point)})
		}
		sort.Slice(want, func(i, j int) bool {
			if want[i].Distance != want[j].Distance {
				return want[i].Distance < want[j].Distance
			}
			if want[i].ID.EntityID != want[j].ID.EntityID {
				return want[i].ID.EntityID < want[j].ID.EntityID
			}
			return want[i].ID.Start < want[j].ID.Start
		})
		want = want[:k]

		got := ix.Nearest(center, k)
		if len(got) != k {
			t.Fatalf("k=%d: Expected %d results, got %d", k, k, len(got))
		}
		for i := range got {
			if got[i].ID != want[i].ID {
				t.Fatalf("k=%d: rank %d Expected %v (%.2fm), got %v (%.2fm)",
					k, i, want[i].ID, want[i].Distance, got[i].ID, got[i].Distance)
			}
		}
	}
}

func TestNearestDegenerate(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	pts := scatterPoints(r, 5, 46.8, -113.9, 100)
	ix := Build(pts, cell.Level16)

	if got := ix.Nearest(orb.Point{-113.9, 46.8}, 0); got != nil {
		t.Errorf("Expected nil for k=0, got %v", got)
	}
	// k beyond the index size returns everything, sorted.
	got := ix.Nearest(orb.Point{-113.9, 46.8}, 50)
	if len(got) != 5 {
		t.Fatalf("Expected all 5, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("results out of order at %d: %v", i, got)
		}
	}
}
