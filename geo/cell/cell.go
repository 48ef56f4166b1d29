// Package cell discretizes coordinates into fixed-precision S2 cells
// and provides the geodesic measurements the rest of the pipeline
// leans on. Encoding is referentially transparent: the same point at
// the same level always yields the same cell, which the grid index
// and the tests both depend on.
package cell

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// earthRadiusMin is the polar radius, meters. Used as a conservative
// scale when converting angular cell distances to meters: a lower bound
// here can never prune a cell that actually intersects a query radius.
const earthRadiusMin = 6356752.3

// Distance returns the great-circle distance between two points, meters.
// Zero for identical coordinates.
func Distance(a, b orb.Point) float64 {
	if a == b {
		return 0
	}
	return geo.Distance(a, b)
}

// Bearing returns the initial compass bearing from a to b,
// normalized to [0, 360) degrees.
// Degenerate when a == b; returns 0.
func Bearing(a, b orb.Point) float64 {
	if a == b {
		return 0
	}
	brng := geo.Bearing(a, b)
	return math.Mod(brng+360, 360)
}

// Encode returns the S2 cell containing p at the given level.
func Encode(p orb.Point, level Level) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())).Parent(int(level))
}

// Center returns the center point of the cell.
func Center(id s2.CellID) orb.Point {
	ll := id.LatLng()
	return orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()}
}

// Neighbors returns the geometrically adjacent cells at the same level:
// normally 8, fewer near cube-face corners. Self-exclusive, deduplicated,
// stable order for a given cell.
func Neighbors(id s2.CellID) []s2.CellID {
	all := id.AllNeighbors(id.Level())
	out := make([]s2.CellID, 0, len(all))
	seen := make(map[s2.CellID]struct{}, len(all))
	for _, n := range all {
		if n == id {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// MinDistance returns a conservative lower bound, in meters, of the
// distance from p to any point of the cell. Zero when p is inside.
func MinDistance(p orb.Point, id s2.CellID) float64 {
	c := s2.CellFromCellID(id)
	pt := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon()))
	if c.ContainsPoint(pt) {
		return 0
	}
	return c.Distance(pt).Angle().Radians() * earthRadiusMin
}
