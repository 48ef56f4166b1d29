package track

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/trajkit/trajkit/conceptual"
)

var t0 = time.Date(2020, 7, 1, 12, 0, 0, 0, time.UTC)

func pt(id string, lat, lon float64, at time.Time) Point {
	return Point{EntityID: conceptual.EntityID(id), Lat: lat, Lon: lon, Time: at}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		ok   bool
	}{
		{"valid", pt("a", 46.8, -113.9, t0), true},
		{"lat high", pt("a", 91, 0, t0), false},
		{"lat low", pt("a", -91, 0, t0), false},
		{"lon high", pt("a", 0, 181, t0), false},
		{"lon low", pt("a", 0, -181, t0), false},
		{"edge lat", pt("a", 90, 180, t0), true},
		{"zero time", Point{EntityID: "a", Lat: 1, Lon: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(tt *testing.T) {
			err := c.p.Validate()
			if c.ok && err != nil {
				tt.Errorf("Expected valid, got %v", err)
			}
			if !c.ok && err == nil {
				tt.Errorf("Expected error, got nil")
			}
		})
	}

	var icErr *InvalidCoordinateError
	err := pt("a", 91, 0, t0).Validate()
	if !errors.As(err, &icErr) {
		t.Errorf("Expected InvalidCoordinateError, got %T", err)
	}
}

func TestNewTrajectorySortsAndSequences(t *testing.T) {
	pts := []Point{
		pt("a", 1, 1, t0.Add(2*time.Minute)),
		pt("a", 2, 2, t0),
		pt("a", 3, 3, t0.Add(time.Minute)),
	}
	tj, anoms := NewTrajectory("a", pts)
	if len(anoms) != 0 {
		t.Errorf("Expected no anomalies, got %v", anoms)
	}
	for i := 1; i < tj.Len(); i++ {
		if tj.Points[i].Time.Before(tj.Points[i-1].Time) {
			t.Fatal("unsorted")
		}
	}
	for i, p := range tj.Points {
		if p.Seq != i {
			t.Errorf("Expected seq %d, got %d", i, p.Seq)
		}
	}
	// Input untouched.
	if pts[0].Seq != 0 || !pts[0].Time.Equal(t0.Add(2*time.Minute)) {
		t.Error("input slice mutated")
	}
}

func TestNewTrajectoryDuplicateTimestamps(t *testing.T) {
	a := pt("a", 1, 1, t0)
	b := pt("a", 2, 2, t0)
	tj, anoms := NewTrajectory("a", []Point{a, b})
	if len(anoms) != 1 || anoms[0].Kind != AnomalyDuplicateTimestamp {
		t.Fatalf("Expected one duplicate-timestamp anomaly, got %v", anoms)
	}
	// Stable: ties keep input order.
	if tj.Points[0].Lat != 1 || tj.Points[1].Lat != 2 {
		t.Error("tie order not preserved")
	}
}

func TestParseRow(t *testing.T) {
	cases := []struct {
		name string
		row  map[string]any
		want Point
		ok   bool
	}{
		{
			name: "string id, RFC3339",
			row:  map[string]any{"id": "cat", "lat": 46.8, "lon": -113.9, "datetime": "2020-07-01T12:00:00Z"},
			want: pt("cat", 46.8, -113.9, t0),
			ok:   true,
		},
		{
			name: "numeric id, unix seconds",
			row:  map[string]any{"id": float64(7), "lat": 1.0, "lon": 2.0, "datetime": float64(t0.Unix())},
			want: pt("7", 1, 2, t0),
			ok:   true,
		},
		{
			name: "missing lat",
			row:  map[string]any{"id": "cat", "lon": -113.9, "datetime": "2020-07-01T12:00:00Z"},
			ok:   false,
		},
		{
			name: "bad datetime",
			row:  map[string]any{"id": "cat", "lat": 46.8, "lon": -113.9, "datetime": "yesterday"},
			ok:   false,
		},
		{
			name: "out of range",
			row:  map[string]any{"id": "cat", "lat": 91.0, "lon": 0.0, "datetime": "2020-07-01T12:00:00Z"},
			ok:   false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(tt *testing.T) {
			p, err := ParseRow(c.row)
			if c.ok != (err == nil) {
				tt.Fatalf("ok=%v, err=%v", c.ok, err)
			}
			if !c.ok {
				return
			}
			if p.EntityID != c.want.EntityID || p.Lat != c.want.Lat || p.Lon != c.want.Lon {
				tt.Errorf("Expected %v, got %v", c.want, p)
			}
			if !p.Time.Equal(c.want.Time) {
				tt.Errorf("Expected time %v, got %v", c.want.Time, p.Time)
			}
		})
	}
}

func TestAugmentRow(t *testing.T) {
	p := pt("cat", 46.8, -113.9, t0)
	p.Props = map[string]any{"id": "cat", "note": "passthrough"}
	rec := &MotionRecord{Dt: 30 * time.Second, Dist: 12.345, Speed: 0.4115, Bearing: 359.999}

	stop := Segment{EntityID: "cat", Label: Stop, Start: 0, End: 4, ClusterID: 3}
	row := AugmentRow(p, rec, stop, 0)
	if row["note"] != "passthrough" {
		t.Error("passthrough column lost")
	}
	if row[ColSegmentLabel] != "STOP" || row[ColClusterID] != 3 {
		t.Errorf("unexpected stop columns: %v", row)
	}
	if row[ColDt] != 30.0 {
		t.Errorf("Expected dt 30, got %v", row[ColDt])
	}
	if math.Abs(row[ColDistToPrev].(float64)-12.35) > 1e-9 {
		t.Errorf("Expected rounded dist 12.35, got %v", row[ColDistToPrev])
	}

	move := Segment{EntityID: "cat", Label: Move, Start: 5, End: 6, ClusterID: ClusterNone}
	row = AugmentRow(p, nil, move, 1)
	if _, ok := row[ColClusterID]; ok {
		t.Error("cluster_id on MOVE row")
	}
	if _, ok := row[ColDt]; ok {
		t.Error("motion columns on first point")
	}
	if row[ColSegmentID] != 1 {
		t.Errorf("Expected segment_id 1, got %v", row[ColSegmentID])
	}
}

func TestNewStopSegment(t *testing.T) {
	pts := []Point{
		pt("a", 10, 20, t0),
		pt("a", 10.0002, 20, t0.Add(time.Minute)),
		pt("a", 10.0004, 20, t0.Add(2*time.Minute)),
	}
	tj, _ := NewTrajectory("a", pts)
	seg := NewStopSegment(tj, 0, 2)
	if seg.Label != Stop || seg.Span() != 3 {
		t.Fatalf("unexpected segment %+v", seg)
	}
	if seg.Duration != 2*time.Minute {
		t.Errorf("Expected 2m duration, got %v", seg.Duration)
	}
	if math.Abs(seg.Centroid.Lat()-10.0002) > 1e-9 || math.Abs(seg.Centroid.Lon()-20) > 1e-9 {
		t.Errorf("Expected centroid [20 10.0002], got %v", seg.Centroid)
	}
	if seg.ClusterID != ClusterNone {
		t.Errorf("Expected ClusterNone before clustering, got %d", seg.ClusterID)
	}
}

func TestNewMoveSegment(t *testing.T) {
	pts := []Point{
		pt("a", 0, 0, t0),
		pt("a", 0.001, 0, t0.Add(time.Minute)),
		pt("a", 0.002, 0, t0.Add(2*time.Minute)),
		pt("a", 0.003, 0, t0.Add(3*time.Minute)),
	}
	tj, _ := NewTrajectory("a", pts)
	motion := []MotionRecord{
		{Speed: 1.0}, {Speed: 3.0}, {Speed: 2.0},
	}
	seg := NewMoveSegment(tj, motion, 0, 3)
	if seg.Label != Move {
		t.Fatalf("unexpected segment %+v", seg)
	}
	if seg.DominantSpeed != 2.0 {
		t.Errorf("Expected median speed 2.0, got %v", seg.DominantSpeed)
	}

	// Single point: no speeds to summarize.
	degenerate := NewMoveSegment(tj, motion, 0, 0)
	if degenerate.DominantSpeed != 0 {
		t.Errorf("Expected zero speed, got %v", degenerate.DominantSpeed)
	}
}
