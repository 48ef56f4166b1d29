// Package testdata builds synthetic trajectories for tests: dwells,
// straight walks, and teleports with known geometry, so assertions can
// be exact instead of fixture-dependent.
package testdata

import (
	"time"

	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/types/track"
)

// T0 is an arbitrary fixed epoch; tests should not depend on wall time.
var T0 = time.Date(2020, 7, 1, 12, 0, 0, 0, time.UTC)

// MeterLat is roughly one meter of latitude in degrees.
const MeterLat = 1.0 / 111_320.0

// Builder accumulates points for one entity with a running clock and
// position.
type Builder struct {
	ID  conceptual.EntityID
	at  time.Time
	lat float64
	lon float64
	seq int
	pts []track.Point
}

func NewBuilder(id string, lat, lon float64) *Builder {
	return &Builder{
		ID:  conceptual.EntityID(id),
		at:  T0,
		lat: lat,
		lon: lon,
	}
}

func (b *Builder) add() {
	b.pts = append(b.pts, track.Point{
		EntityID: b.ID,
		Lat:      b.lat,
		Lon:      b.lon,
		Time:     b.at,
		Seq:      b.seq,
	})
	b.seq++
}

// Dwell emits n points at the current position, jittered by at most
// jitterMeters of latitude, step apart.
func (b *Builder) Dwell(n int, step time.Duration, jitterMeters float64) *Builder {
	for i := 0; i < n; i++ {
		if i > 0 || len(b.pts) > 0 {
			b.at = b.at.Add(step)
		}
		save := b.lat
		if i%2 == 1 {
			b.lat += jitterMeters * MeterLat
		}
		b.add()
		b.lat = save
	}
	return b
}

// Walk emits n points heading north at metersPerStep, step apart.
func (b *Builder) Walk(n int, step time.Duration, metersPerStep float64) *Builder {
	for i := 0; i < n; i++ {
		b.at = b.at.Add(step)
		b.lat += metersPerStep * MeterLat
		b.add()
	}
	return b
}

// Jump teleports meters north and emits one point, step later.
func (b *Builder) Jump(step time.Duration, meters float64) *Builder {
	b.at = b.at.Add(step)
	b.lat += meters * MeterLat
	b.add()
	return b
}

func (b *Builder) Points() []track.Point {
	out := make([]track.Point, len(b.pts))
	copy(out, b.pts)
	return out
}

func (b *Builder) Trajectory() track.Trajectory {
	tj, _ := track.NewTrajectory(b.ID, b.Points())
	return tj
}
