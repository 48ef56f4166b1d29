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
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/geo/cleaner"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/stream"
	"github.com/trajkit/trajkit/types/track"
)

var optSpeedMax float64
var optRadiusMin float64
var optMinTrajectoryPoints int

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Filter junk rows from stdin",
	Long: `Read NDJSON rows and write back only the ones worth analyzing.

Drops rows with invalid coordinates, rows implying impossible speeds
from the previous kept row, rows within jitter distance of the previous
kept row, and entities with too few rows to form a trajectory.

Flags:

  --speed-max    Maximum plausible speed, m/s. (Default is 50.)
  --radius-min   Minimum distance from previous kept row, meters. (Default is 0, off.)
  --min-points   Minimum rows per entity. (Default is 2.)

Examples:

  zcat rows.ndjson.gz | trajkit clean --speed-max 42 | trajkit process
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cfg := &params.CleanConfig{
			SpeedMax:            optSpeedMax,
			RadiusMin:           optRadiusMin,
			MinTrajectoryPoints: optMinTrajectoryPoints,
		}

		rows := stream.NDJSON[map[string]any](ctx, os.Stdin)
		points := stream.Transform(ctx, func(row map[string]any) *track.Point {
			p, err := track.ParseRow(row)
			if err != nil {
				slog.Warn("Dropping row", "error", err)
				return nil
			}
			return &p
		}, rows)
		valid := stream.Filter(ctx, func(p *track.Point) bool { return p != nil }, points)
		deref := stream.Transform(ctx, func(p *track.Point) track.Point { return *p }, valid)

		cleaned := cleaner.NearbyPointFilter(ctx, cfg,
			cleaner.SpeedMaxFilter(ctx, cfg, deref))

		byEntity := map[conceptual.EntityID][]track.Point{}
		stream.Sink(ctx, func(p track.Point) {
			byEntity[p.EntityID] = append(byEntity[p.EntityID], p)
		}, cleaned)

		tjs := make([]track.Trajectory, 0, len(byEntity))
		for id, pts := range byEntity {
			tjs = append(tjs, track.Trajectory{EntityID: id, Points: pts})
		}
		slices.SortFunc(tjs, func(a, b track.Trajectory) int {
			return strings.Compare(a.EntityID.String(), b.EntityID.String())
		})
		kept, anomalies := cleaner.DropShortTrajectories(cfg, tjs)
		for _, a := range anomalies {
			slog.Warn("Dropped trajectory", "entity", a.EntityID, "detail", a.Detail)
		}

		enc := json.NewEncoder(os.Stdout)
		for _, tj := range kept {
			for _, p := range tj.Points {
				if err := enc.Encode(p.Props); err != nil {
					log.Fatal(err)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.PersistentFlags().Float64Var(&optSpeedMax, "speed-max", params.DefaultCleanConfig.SpeedMax, "Maximum plausible speed, m/s")
	cleanCmd.PersistentFlags().Float64Var(&optRadiusMin, "radius-min", params.DefaultCleanConfig.RadiusMin, "Minimum distance from previous kept row, meters")
	cleanCmd.PersistentFlags().IntVar(&optMinTrajectoryPoints, "min-points", params.DefaultCleanConfig.MinTrajectoryPoints, "Minimum rows per entity")
}
