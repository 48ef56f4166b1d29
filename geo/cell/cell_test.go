package cell

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
)

var testRand = rand.New(rand.NewSource(42))

func randPointNear(lat, lon, spreadDeg float64) orb.Point {
	return orb.Point{
		lon + (testRand.Float64()-0.5)*spreadDeg,
		lat + (testRand.Float64()-0.5)*spreadDeg,
	}
}

func TestDistance(t *testing.T) {
	a := orb.Point{-113.9, 46.8}
	b := orb.Point{-113.8, 46.9}

	if d := Distance(a, a); d != 0 {
		t.Errorf("identical points: expected 0, got %v", d)
	}
	ab, ba := Distance(a, b), Distance(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("asymmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 {
		t.Errorf("expected positive distance, got %v", ab)
	}

	// One degree of latitude is about 111km.
	c := orb.Point{-113.9, 47.8}
	if d := Distance(a, c); math.Abs(d-111_000) > 1000 {
		t.Errorf("expected ~111km, got %v", d)
	}
}

func TestBearing(t *testing.T) {
	origin := orb.Point{0, 0}
	cases := []struct {
		name string
		to   orb.Point
		want float64
	}{
		{"north", orb.Point{0, 1}, 0},
		{"east", orb.Point{1, 0}, 90},
		{"south", orb.Point{0, -1}, 180},
		{"west", orb.Point{-1, 0}, 270},
	}
	for _, c := range cases {
		t.Run(c.name, func(tt *testing.T) {
			got := Bearing(origin, c.to)
			if math.Abs(got-c.want) > 0.01 {
				tt.Errorf("Expected %v, got %v", c.want, got)
			}
		})
	}

	for i := 0; i < 1000; i++ {
		a := randPointNear(46.8, -113.9, 1)
		b := randPointNear(46.8, -113.9, 1)
		if a == b {
			continue
		}
		got := Bearing(a, b)
		if got < 0 || got >= 360 {
			t.Fatalf("bearing out of [0,360): %v", got)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	p := orb.Point{-113.994, 46.8721}
	for level := Level(0); level <= Level(30); level++ {
		a, b := Encode(p, level), Encode(p, level)
		if a != b {
			t.Fatalf("level %d: %v != %v", level, a, b)
		}
		if a.Level() != int(level) {
			t.Fatalf("level %d: got cell level %d", level, a.Level())
		}
	}
}

func TestEncodeSeparates(t *testing.T) {
	a := orb.Point{-113.994, 46.8721}
	// ~1km north; distinct cells at level 16 (~150m edge).
	b := orb.Point{-113.994, 46.8811}
	if Encode(a, Level16) == Encode(b, Level16) {
		t.Error("expected distinct cells 1km apart at level 16")
	}
}

func TestNeighbors(t *testing.T) {
	for i := 0; i < 100; i++ {
		p := randPointNear(46.8, -113.9, 10)
		id := Encode(p, Level16)
		nbs := Neighbors(id)
		if len(nbs) > 8 {
			t.Fatalf("expected <= 8 neighbors, got %d", len(nbs))
		}
		seen := map[string]bool{}
		for _, n := range nbs {
			if n == id {
				t.Fatal("self in neighbors")
			}
			if seen[n.String()] {
				t.Fatalf("duplicate neighbor %v", n)
			}
			seen[n.String()] = true
		}
	}
}

// MinDistance must never exceed the true distance to any point of the
// cell, or grid pruning would drop results.
func TestMinDistanceLowerBound(t *testing.T) {
	for i := 0; i < 1000; i++ {
		q := randPointNear(46.8, -113.9, 2)
		in := randPointNear(46.8, -113.9, 2)
		id := Encode(in, Level16)
		min := MinDistance(q, id)
		if d := Distance(q, in); min > d+1e-6 {
			t.Fatalf("MinDistance %v exceeds distance %v to contained point", min, d)
		}
	}

	inside := orb.Point{-113.9, 46.8}
	if d := MinDistance(inside, Encode(inside, Level16)); d != 0 {
		t.Errorf("expected 0 inside own cell, got %v", d)
	}
}
