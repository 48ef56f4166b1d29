package api

import (
	"sort"

	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/types/track"
)

// TrajectoriesFromRows parses tabular rows into per-entity
// trajectories. Rows that fail to parse become anomalies, not errors;
// exact duplicate rows are dropped silently. Trajectories come back
// sorted by entity id so downstream runs are reproducible regardless of
// input interleaving.
func TrajectoriesFromRows(rows []map[string]any) ([]track.Trajectory, []track.Anomaly) {
	dedupe := NewDedupeLRUFunc()

	var anomalies []track.Anomaly
	byEntity := map[conceptual.EntityID][]track.Point{}
	for _, row := range rows {
		p, err := track.ParseRow(row)
		if err != nil {
			anomalies = append(anomalies, track.Anomaly{
				Kind:     track.AnomalyInvalidCoordinate,
				EntityID: p.EntityID,
				Detail:   err.Error(),
			})
			continue
		}
		if !dedupe(p) {
			continue
		}
		byEntity[p.EntityID] = append(byEntity[p.EntityID], p)
	}

	ids := make([]conceptual.EntityID, 0, len(byEntity))
	for id := range byEntity {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tjs := make([]track.Trajectory, 0, len(ids))
	for _, id := range ids {
		tj, anoms := track.NewTrajectory(id, byEntity[id])
		anomalies = append(anomalies, anoms...)
		tjs = append(tjs, tj)
	}
	return tjs, anomalies
}

// AugmentedRows renders the result back to rows: every input row plus
// the derived motion and segment columns, trajectory by trajectory in
// point order.
func AugmentedRows(res *Result) []map[string]any {
	var out []map[string]any
	for _, tr := range res.Trajectories {
		segI := 0
		for seq, p := range tr.Trajectory.Points {
			for segI < len(tr.Segments) && tr.Segments[segI].End < seq {
				segI++
			}
			if segI >= len(tr.Segments) {
				break
			}
			var rec *track.MotionRecord
			if seq > 0 && seq-1 < len(tr.Motion) {
				rec = &tr.Motion[seq-1]
			}
			out = append(out, track.AugmentRow(p, rec, *tr.Segments[segI], segI))
		}
	}
	return out
}
