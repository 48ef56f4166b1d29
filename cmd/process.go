/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/trajkit/trajkit/api"
	"github.com/trajkit/trajkit/common"
	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/geo/cell"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/state"
	"github.com/trajkit/trajkit/stream"
	"github.com/trajkit/trajkit/types/track"
)

var optWorkersN int
var optKalman bool
var optStopRadius float64
var optMinStopDuration time.Duration
var optEpsMeters float64
var optMinPoints int
var optCellLevel int
var optDatadir string
var optStopsGeoJSON string
var optMovesGeoJSON string

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Derive motion features, segments, and clusters from rows on stdin",
	Long: `Read NDJSON rows (id, lat, lon, datetime, anything else passes through),
compute per-point motion features, cut each entity's track into STOP and
MOVE segments, cluster the stops across all entities, and write the
augmented rows back out as NDJSON on stdout.

Rows from mixed entities ARE supported; the scanner groups them.

Flags:

  --workers            Parse and process in parallel. Entities never share
                       state, so more workers help until you run out of
                       entities or cores. (Default is GOMAXPROCS.)
  --batch-size         Rows per entity scan batch. (Default is 100_000.)
  --stop-radius        Dwell radius in meters.
  --min-stop-duration  Minimum dwell span.
  --eps                DBSCAN epsilon in meters over stop centroids.
  --min-points         DBSCAN minimum neighborhood size, self included.
  --cell-level         S2 cell level for the spatial grid (0..30).
  --kalman             Smooth speeds with a Kalman filter (extra column
                       consumers may ignore).
  --stops-geojson      Also write stop centroids as GeoJSON points to this path.
  --moves-geojson      Also write simplified MOVE linestrings as GeoJSON to this path.

Examples:

  zcat rows.ndjson.gz | trajkit process --workers 8 > augmented.ndjson
  cat rows.ndjson | trajkit process --stops-geojson stops.json --moves-geojson moves.json > /dev/null

Anomalies (dropped points, degenerate trajectories, speed outliers) do
not stop the run; they are logged, counted in the run report, and the
report is appended to the datadir reports DB.
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		started := time.Now()

		ctx, ctxCanceler := context.WithCancel(context.Background())
		defer ctxCanceler()

		cfg := configFromFlags()

		// Parse workers feed this map; the processor pool takes over
		// after the scanner drains.
		mu := sync.Mutex{}
		pointsByEntity := map[conceptual.EntityID][]track.Point{}
		var parseAnomalies []track.Anomaly

		workersWG := new(sync.WaitGroup)
		workCh := make(chan [][]byte, optWorkersN)
		for i := 0; i < optWorkersN; i++ {
			go func() {
				for lines := range workCh {
					parsed := make([]track.Point, 0, len(lines))
					var anoms []track.Anomaly
					for _, line := range lines {
						row := map[string]any{}
						if err := json.Unmarshal(line, &row); err != nil {
							slog.Error("Failed to unmarshal row", "error", err)
							continue
						}
						p, err := track.ParseRow(row)
						if err != nil {
							anoms = append(anoms, track.Anomaly{
								Kind:     track.AnomalyInvalidCoordinate,
								EntityID: p.EntityID,
								Detail:   err.Error(),
							})
							continue
						}
						parsed = append(parsed, p)
					}
					mu.Lock()
					for _, p := range parsed {
						pointsByEntity[p.EntityID] = append(pointsByEntity[p.EntityID], p)
					}
					parseAnomalies = append(parseAnomalies, anoms...)
					mu.Unlock()
					workersWG.Done()
				}
			}()
		}

		quit := make(chan struct{})
		linesCh, errCh := stream.ScanLinesBatchingEntities(os.Stdin, quit, params.DefaultBatchSize, optWorkersN)

		go func() {
			interrupt := common.Interrupted()
			for i := 0; i < 2; i++ {
				sig := <-interrupt
				slog.Warn("Received signal", "signal", sig, "i", i)
				if i == 0 {
					quit <- struct{}{}
				} else {
					log.Fatalln("Force exit")
				}
			}
		}()

	readLoop:
		for {
			select {
			case lines, ok := <-linesCh:
				if !ok {
					break readLoop
				}
				workersWG.Add(1)
				workCh <- lines

			case err := <-errCh:
				if err == nil || errors.Is(err, io.EOF) {
					continue
				}
				if errors.Is(err, stream.ErrMissingAttribute) {
					slog.Warn("Skipped row", "error", err)
					continue
				}
				log.Fatal(err)
			}
		}

		close(workCh)
		workersWG.Wait()

		tjs, anomalies := trajectoriesFrom(pointsByEntity)
		anomalies = append(parseAnomalies, anomalies...)

		p := api.NewProcessor(&cfg, api.WithWorkers(optWorkersN))
		res, err := p.Process(ctx, tjs)
		if err != nil {
			log.Fatal(err)
		}
		res.Anomalies = append(anomalies, res.Anomalies...)

		enc := json.NewEncoder(os.Stdout)
		for _, row := range api.AugmentedRows(res) {
			if err := enc.Encode(row); err != nil {
				log.Fatal(err)
			}
		}

		if optStopsGeoJSON != "" {
			if err := writeStopsGeoJSON(optStopsGeoJSON, res); err != nil {
				slog.Error("Failed to write stops GeoJSON", "error", err)
			}
		}
		if optMovesGeoJSON != "" {
			if err := writeMovesGeoJSON(optMovesGeoJSON, &cfg, res); err != nil {
				slog.Error("Failed to write moves GeoJSON", "error", err)
			}
		}

		writeRunReport(cfg, started, res, tjs)
		slog.Info("Process done", "elapsed", time.Since(started).Round(time.Millisecond))
	},
}

func configFromFlags() params.Config {
	cfg := params.DefaultConfig()
	cfg.Motion.KalmanSmoothing = optKalman
	cfg.Segmentation.StopRadius = optStopRadius
	cfg.Segmentation.MinStopDuration = optMinStopDuration
	cfg.Cluster.EpsMeters = optEpsMeters
	cfg.Cluster.MinPoints = optMinPoints
	cfg.Grid.CellLevel = cell.Level(optCellLevel)
	return cfg
}

func trajectoriesFrom(byEntity map[conceptual.EntityID][]track.Point) ([]track.Trajectory, []track.Anomaly) {
	ids := make([]conceptual.EntityID, 0, len(byEntity))
	for id := range byEntity {
		ids = append(ids, id)
	}
	// Deterministic output regardless of scan interleaving.
	slices.Sort(ids)

	var anomalies []track.Anomaly
	tjs := make([]track.Trajectory, 0, len(ids))
	for _, id := range ids {
		tj, anoms := track.NewTrajectory(id, byEntity[id])
		anomalies = append(anomalies, anoms...)
		tjs = append(tjs, tj)
	}
	return tjs, anomalies
}

func writeRunReport(cfg params.Config, started time.Time, res *api.Result, tjs []track.Trajectory) {
	store, err := state.NewReportStore(optDatadir)
	if err != nil {
		slog.Error("Failed to open report store", "error", err)
		return
	}
	defer store.Close()

	digest, err := state.ConfigDigest(cfg)
	if err != nil {
		slog.Error("Failed to digest config", "error", err)
		return
	}

	points := 0
	for _, tj := range tjs {
		points += tj.Len()
	}
	report := &state.RunReport{
		StartedAt:    started,
		Elapsed:      time.Since(started),
		ConfigDigest: digest,
		Trajectories: len(tjs),
		Points:       points,
		Clusters:     len(res.Clusters),
		Anomalies:    res.Anomalies,
	}
	for _, tr := range res.Trajectories {
		for _, s := range tr.Segments {
			switch s.Label {
			case track.Stop:
				report.Stops++
				if s.ClusterID == track.ClusterNoise {
					report.NoiseStops++
				}
			case track.Move:
				report.Moves++
			}
		}
	}
	if err := store.WriteReport(report); err != nil {
		slog.Error("Failed to write run report", "error", err)
		return
	}
	slog.Info("Wrote run report", "digest", digest,
		"stops", report.Stops, "moves", report.Moves,
		"clusters", report.Clusters, "anomalies", len(report.Anomalies))
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.PersistentFlags().IntVar(&optWorkersN, "workers", runtime.NumCPU(), "Number of workers to run parallel")
	processCmd.PersistentFlags().IntVar(&params.DefaultBatchSize, "batch-size", 100_000, "Rows per entity scan batch")
	processCmd.PersistentFlags().BoolVar(&optKalman, "kalman", false, "Smooth speeds with a Kalman filter")
	processCmd.PersistentFlags().Float64Var(&optStopRadius, "stop-radius", params.DefaultSegmentationConfig.StopRadius, "Dwell radius, meters")
	processCmd.PersistentFlags().DurationVar(&optMinStopDuration, "min-stop-duration", params.DefaultSegmentationConfig.MinStopDuration, "Minimum dwell span")
	processCmd.PersistentFlags().Float64Var(&optEpsMeters, "eps", params.DefaultClusterConfig.EpsMeters, "DBSCAN epsilon, meters")
	processCmd.PersistentFlags().IntVar(&optMinPoints, "min-points", params.DefaultClusterConfig.MinPoints, "DBSCAN minimum neighborhood size")
	processCmd.PersistentFlags().IntVar(&optCellLevel, "cell-level", int(params.DefaultGridConfig.CellLevel), "S2 cell level for the grid index")
	processCmd.PersistentFlags().StringVar(&optDatadir, "datadir", "", "Datadir for run reports (default ~/.trajkit)")
	processCmd.PersistentFlags().StringVar(&optStopsGeoJSON, "stops-geojson", "", "Write stop centroids as GeoJSON to this path")
	processCmd.PersistentFlags().StringVar(&optMovesGeoJSON, "moves-geojson", "", "Write simplified MOVE linestrings as GeoJSON to this path")
}
