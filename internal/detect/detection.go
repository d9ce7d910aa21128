// Package detect holds detector outputs and the machinery to score them
// against ground-truth annotations: non-maximum suppression, matching
// (greedy and optimal assignment) and summary metrics.
package detect

import (
	"sort"

	"github.com/lantern-ml/evalbench/internal/geom"
)

// Detection is one predicted box with its class and confidence score.
type Detection struct {
	ImageID string   `json:"image_id"`
	Class   string   `json:"class"`
	Score   float64  `json:"score"`
	Box     geom.Box `json:"box"`
}

// SortByScore orders detections by descending confidence in place.
// Matching and NMS both consume detections in this order.
func SortByScore(dets []Detection) {
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Score > dets[j].Score
	})
}

// FilterScore returns the detections with score >= threshold, preserving
// order.
func FilterScore(dets []Detection, threshold float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score >= threshold {
			out = append(out, d)
		}
	}
	return out
}
