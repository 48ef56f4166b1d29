// Package api is the library surface: it wires motion computation,
// segmentation, and clustering into one batch pass over trajectories.
// Collaborators own file and network I/O; nothing in here touches disk.
package api

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/trajkit/trajkit/clusterer"
	"github.com/trajkit/trajkit/events"
	"github.com/trajkit/trajkit/geo/motion"
	"github.com/trajkit/trajkit/geo/segmenter"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

type Option func(*Processor)

func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

type Processor struct {
	config  params.Config
	workers int
	logger  *slog.Logger
}

func NewProcessor(config *params.Config, opts ...Option) *Processor {
	cfg := params.DefaultConfig()
	if config != nil {
		cfg = *config
	}
	p := &Processor{
		config:  cfg,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TrajectoryResult is the per-trajectory output: the repaired
// trajectory, its motion records (one per point index >= 1), and its
// segments in order.
type TrajectoryResult struct {
	Trajectory track.Trajectory
	Motion     []track.MotionRecord
	Segments   []*track.Segment
}

type Result struct {
	Trajectories []TrajectoryResult
	Clusters     []track.Cluster
	Anomalies    []track.Anomaly
}

// Process runs the full pass: motion and segmentation per trajectory in
// parallel, then a clustering run over all STOP centroids once every
// trajectory has segmented. Trajectories never share mutable state, so
// the worker pool needs no locks; results land at their input index and
// output order is independent of scheduling.
//
// An unusable clustering parameter fails before any work starts. A
// canceled context returns ctx.Err(); partial results are discarded.
func (p *Processor) Process(ctx context.Context, tjs []track.Trajectory) (*Result, error) {
	cl := clusterer.New(&p.config.Cluster, p.config.Grid.CellLevel)
	if err := cl.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	seg := segmenter.New(&p.config.Segmentation)

	results := make([]TrajectoryResult, len(tjs))
	anomalies := make([][]track.Anomaly, len(tjs))

	jobs := make(chan int)
	wg := sync.WaitGroup{}
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				repaired, records, motionAnoms := motion.Compute(tjs[i], &p.config.Motion)
				segments, segAnoms := seg.Segment(repaired, records)

				refs := make([]*track.Segment, len(segments))
				for j := range segments {
					refs[j] = &segments[j]
					events.SegmentFeed.Send(segments[j])
				}
				results[i] = TrajectoryResult{
					Trajectory: repaired,
					Motion:     records,
					Segments:   refs,
				}
				anomalies[i] = append(motionAnoms, segAnoms...)

				if n := repaired.Len(); n > 0 {
					SetLastKnown(repaired.EntityID, repaired.Points[n-1])
				}
			}
		}()
	}
	for i := range tjs {
		select {
		case <-ctx.Done():
		case jobs <- i:
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)

	// All segmentation completes before the index is built.
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stops []*track.Segment
	for i := range results {
		for _, s := range results[i].Segments {
			if s.Label == track.Stop {
				stops = append(stops, s)
			}
		}
	}
	clusters, err := cl.Cluster(stops)
	if err != nil {
		return nil, err
	}
	events.ClusterFeed.Send(clusters)

	res := &Result{
		Trajectories: results,
		Clusters:     clusters,
	}
	for _, anoms := range anomalies {
		for _, a := range anoms {
			events.AnomalyFeed.Send(a)
		}
		res.Anomalies = append(res.Anomalies, anoms...)
	}

	p.logger.Info("Processed batch",
		"trajectories", len(tjs),
		"stops", len(stops),
		"clusters", len(clusters),
		"anomalies", len(res.Anomalies),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return res, nil
}
