package segmenter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/trajkit/trajkit/geo/motion"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/testing/testdata"
	"github.com/trajkit/trajkit/types/track"
)

var testConfig = &params.SegmentationConfig{
	StopRadius:      10,
	MinStopDuration: time.Minute,
}

func segmentize(t *testing.T, tj track.Trajectory) ([]track.Segment, []track.Anomaly) {
	t.Helper()
	repaired, records, _ := motion.Compute(tj, nil)
	return New(testConfig).Segment(repaired, records)
}

func assertPartition(t *testing.T, segments []track.Segment, n int) {
	t.Helper()
	if len(segments) == 0 {
		t.Fatal("no segments")
	}
	if segments[0].Start != 0 {
		t.Fatalf("first segment starts at %d", segments[0].Start)
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start != segments[i-1].End+1 {
			t.Fatalf("gap or overlap between segments %d and %d: %+v / %+v",
				i-1, i, segments[i-1], segments[i])
		}
	}
	if last := segments[len(segments)-1]; last.End != n-1 {
		t.Fatalf("last segment ends at %d, want %d", last.End, n-1)
	}
}

func TestDwellThenJump(t *testing.T) {
	// Five fixes jittering within 5m over two minutes, then a 500m jump.
	tj := testdata.NewBuilder("cat", 46.8, -113.9).
		Dwell(5, 30*time.Second, 5).
		Jump(30*time.Second, 500).
		Trajectory()

	segments, anoms := segmentize(t, tj)
	if len(anoms) != 0 {
		t.Fatalf("Expected no anomalies, got %v", anoms)
	}
	if len(segments) != 2 {
		t.Fatalf("Expected STOP+MOVE, got %d segments: %+v", len(segments), segments)
	}
	stop, move := segments[0], segments[1]
	if stop.Label != track.Stop || stop.Start != 0 || stop.End != 4 {
		t.Errorf("Expected STOP [0,4], got %+v", stop)
	}
	if move.Label != track.Move || move.Start != 5 || move.End != 5 {
		t.Errorf("Expected MOVE [5,5], got %+v", move)
	}
	assertPartition(t, segments, tj.Len())
}

func TestDwellExactlyAtThreshold(t *testing.T) {
	// Span of exactly MinStopDuration counts as stopped.
	tj := testdata.NewBuilder("cat", 46.8, -113.9).
		Dwell(3, 30*time.Second, 2).
		Jump(30*time.Second, 500).
		Trajectory()

	segments, _ := segmentize(t, tj)
	if segments[0].Label != track.Stop {
		t.Errorf("Expected STOP at exact threshold, got %+v", segments[0])
	}
}

func TestAllMoving(t *testing.T) {
	// 30m steps never dwell within a 10m radius.
	tj := testdata.NewBuilder("cat", 46.8, -113.9).
		Dwell(1, 0, 0).
		Walk(9, 30*time.Second, 30).
		Trajectory()

	segments, anoms := segmentize(t, tj)
	if len(anoms) != 0 {
		t.Fatalf("Expected no anomalies, got %v", anoms)
	}
	if len(segments) != 1 || segments[0].Label != track.Move {
		t.Fatalf("Expected single MOVE, got %+v", segments)
	}
	assertPartition(t, segments, tj.Len())
}

func TestMoveStopMove(t *testing.T) {
	tj := testdata.NewBuilder("cat", 46.8, -113.9).
		Dwell(1, 0, 0).
		Walk(4, 30*time.Second, 30).
		Dwell(5, 30*time.Second, 3).
		Walk(4, 30*time.Second, 30).
		Trajectory()

	segments, _ := segmentize(t, tj)
	assertPartition(t, segments, tj.Len())

	var labels []track.Label
	for _, s := range segments {
		labels = append(labels, s.Label)
	}
	want := []track.Label{track.Move, track.Stop, track.Move}
	if len(labels) != 3 || labels[0] != want[0] || labels[1] != want[1] || labels[2] != want[2] {
		t.Fatalf("Expected MOVE,STOP,MOVE got %v", labels)
	}
	if segments[1].Duration < 2*time.Minute {
		t.Errorf("stop too short: %v", segments[1].Duration)
	}
}

func TestDegenerate(t *testing.T) {
	empty := track.Trajectory{EntityID: "none"}
	segments, anoms := New(testConfig).Segment(empty, nil)
	if segments != nil {
		t.Errorf("Expected no segments, got %+v", segments)
	}
	if len(anoms) != 1 || anoms[0].Kind != track.AnomalySkippedTrajectory {
		t.Errorf("Expected skip anomaly, got %v", anoms)
	}

	solo, _ := track.NewTrajectory("solo", []track.Point{
		{EntityID: "solo", Lat: 1, Lon: 1, Time: testdata.T0},
	})
	segments, anoms = New(testConfig).Segment(solo, nil)
	if len(segments) != 1 || segments[0].Label != track.Move || segments[0].Span() != 1 {
		t.Errorf("Expected degenerate MOVE, got %+v", segments)
	}
	if len(anoms) != 1 || anoms[0].Kind != track.AnomalyDegenerateTrajectory {
		t.Errorf("Expected degenerate anomaly, got %v", anoms)
	}
}

func TestMotionMismatchSkips(t *testing.T) {
	tj := testdata.NewBuilder("cat", 46.8, -113.9).
		Dwell(1, 0, 0).
		Walk(4, 30*time.Second, 30).
		Trajectory()

	segments, anoms := New(testConfig).Segment(tj, nil)
	if segments != nil {
		t.Errorf("Expected skip, got %+v", segments)
	}
	if len(anoms) != 1 || anoms[0].Kind != track.AnomalySkippedTrajectory {
		t.Errorf("Expected skip anomaly, got %v", anoms)
	}
}

// Whatever the trajectory, segments must partition its indices.
func TestPartitionInvariantRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		b := testdata.NewBuilder("fuzz", 46.8, -113.9).Dwell(1, 0, 0)
		legs := 1 + r.Intn(5)
		for l := 0; l < legs; l++ {
			if r.Intn(2) == 0 {
				b.Walk(1+r.Intn(10), 30*time.Second, 10+float64(r.Intn(100)))
			} else {
				b.Dwell(1+r.Intn(10), 30*time.Second, float64(r.Intn(8)))
			}
		}
		tj := b.Trajectory()
		segments, _ := segmentize(t, tj)
		assertPartition(t, segments, tj.Len())
	}
}
