package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/trajkit/trajkit/types/track"
)

// SegmentFeed is emitted for every segment the pipeline closes, STOP
// and MOVE alike, as segmentation completes per trajectory. Subscribers
// see segments before clustering, so ClusterID is not yet assigned.
var SegmentFeed = event.FeedOf[track.Segment]{}

// ClusterFeed is emitted once per clustering run with the full cluster
// set. Membership is recomputed wholesale each run; subscribers should
// replace, not merge.
var ClusterFeed = event.FeedOf[[]track.Cluster]{}

// AnomalyFeed carries data-quality faults as they are detected.
var AnomalyFeed = event.FeedOf[track.Anomaly]{}
