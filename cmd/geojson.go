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
	"encoding/json"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	"github.com/trajkit/trajkit/api"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

// writeStopsGeoJSON renders each STOP segment as a point feature at its
// centroid.
func writeStopsGeoJSON(path string, res *api.Result) error {
	fc := geojson.NewFeatureCollection()
	for _, tr := range res.Trajectories {
		for _, seg := range tr.Segments {
			if seg.Label != track.Stop {
				continue
			}
			f := geojson.NewFeature(seg.Centroid)
			f.Properties["Entity"] = seg.EntityID.String()
			f.Properties["Start"] = tr.Trajectory.Points[seg.Start].Time.Format(time.RFC3339)
			f.Properties["Duration"] = seg.Duration.Seconds()
			f.Properties["Cluster"] = seg.ClusterID
			fc.Append(f)
		}
	}
	return writeFeatureCollection(path, fc)
}

// writeMovesGeoJSON renders each MOVE segment as a Douglas-Peucker
// simplified linestring.
func writeMovesGeoJSON(path string, cfg *params.Config, res *api.Result) error {
	simplifier := simplify.DouglasPeucker(cfg.Simplify.DouglasPeuckerThreshold)
	fc := geojson.NewFeatureCollection()
	for _, tr := range res.Trajectories {
		for _, seg := range tr.Segments {
			if seg.Label != track.Move {
				continue
			}
			ls := orb.LineString{}
			for i := seg.Start; i <= seg.End && i < tr.Trajectory.Len(); i++ {
				ls = append(ls, tr.Trajectory.Points[i].Point())
			}
			if len(ls) < 2 {
				continue
			}
			f := geojson.NewFeature(simplifier.Simplify(ls))
			f.Properties["Entity"] = seg.EntityID.String()
			f.Properties["Start"] = tr.Trajectory.Points[seg.Start].Time.Format(time.RFC3339)
			f.Properties["Duration"] = seg.Duration.Seconds()
			f.Properties["Speed_Median"] = seg.DominantSpeed
			fc.Append(f)
		}
	}
	return writeFeatureCollection(path, fc)
}

func writeFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(fc)
}
