package detect

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lantern-ml/evalbench/internal/annotation"
)

// Metrics summarises one evaluation of a detection set against ground
// truth at a fixed IoU threshold.
type Metrics struct {
	IoUThreshold   float64           `json:"iou_threshold"`
	TruePositives  int               `json:"true_positives"`
	FalsePositives int               `json:"false_positives"`
	FalseNegatives int               `json:"false_negatives"`
	Precision      float64           `json:"precision"`
	Recall         float64           `json:"recall"`
	MeanIoU        float64           `json:"mean_iou"`
	MedianIoU      float64           `json:"median_iou"`
	MatchedIoUs    []float64         `json:"matched_ious,omitempty"`
	PerClass       map[string]Counts `json:"per_class,omitempty"`
}

// Counts is a per-class tally.
type Counts struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// PRPoint is one precision/recall point at a score threshold.
type PRPoint struct {
	Score     float64 `json:"score"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Evaluate matches dets against truths with the greedy protocol and
// computes summary metrics.
func Evaluate(dets []Detection, truths []annotation.Annotation, iouThreshold float64) Metrics {
	return Summarize(dets, truths, MatchGreedy(dets, truths, iouThreshold), iouThreshold)
}

// Summarize computes summary metrics from an already-computed match
// result. dets and truths must be the slices the result was built from.
func Summarize(dets []Detection, truths []annotation.Annotation, res MatchResult, iouThreshold float64) Metrics {
	m := Metrics{
		IoUThreshold:   iouThreshold,
		TruePositives:  len(res.Matches),
		FalsePositives: len(res.UnmatchedDets),
		FalseNegatives: len(res.UnmatchedTruths),
		PerClass:       make(map[string]Counts),
	}

	for _, match := range res.Matches {
		m.MatchedIoUs = append(m.MatchedIoUs, match.IoU)
		c := m.PerClass[dets[match.Detection].Class]
		c.TruePositives++
		m.PerClass[dets[match.Detection].Class] = c
	}
	for _, di := range res.UnmatchedDets {
		c := m.PerClass[dets[di].Class]
		c.FalsePositives++
		m.PerClass[dets[di].Class] = c
	}
	for _, ti := range res.UnmatchedTruths {
		c := m.PerClass[truths[ti].Class]
		c.FalseNegatives++
		m.PerClass[truths[ti].Class] = c
	}

	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if len(m.MatchedIoUs) > 0 {
		m.MeanIoU = stat.Mean(m.MatchedIoUs, nil)
		sorted := append([]float64(nil), m.MatchedIoUs...)
		sort.Float64s(sorted)
		m.MedianIoU = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return m
}

// PRCurve sweeps the score threshold over every distinct detection score
// and evaluates precision and recall at each, producing the points of a
// precision/recall curve ordered by increasing recall.
func PRCurve(dets []Detection, truths []annotation.Annotation, iouThreshold float64) []PRPoint {
	scores := make([]float64, 0, len(dets))
	seen := make(map[float64]bool, len(dets))
	for _, d := range dets {
		if !seen[d.Score] {
			seen[d.Score] = true
			scores = append(scores, d.Score)
		}
	}
	// Sweep from the strictest threshold down so recall increases.
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	points := make([]PRPoint, 0, len(scores))
	for _, s := range scores {
		m := Evaluate(FilterScore(dets, s), truths, iouThreshold)
		points = append(points, PRPoint{Score: s, Precision: m.Precision, Recall: m.Recall})
	}
	return points
}

// AveragePrecision computes the area under the precision/recall curve
// using the interpolated precision convention: each recall segment is
// weighted by the best precision achievable at that recall or beyond.
func AveragePrecision(points []PRPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	pts := append([]PRPoint(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Recall < pts[j].Recall })

	// Interpolate: precision at recall r is max precision for recall >= r.
	for i := len(pts) - 2; i >= 0; i-- {
		if pts[i].Precision < pts[i+1].Precision {
			pts[i].Precision = pts[i+1].Precision
		}
	}

	ap := pts[0].Recall * pts[0].Precision
	for i := 1; i < len(pts); i++ {
		ap += (pts[i].Recall - pts[i-1].Recall) * pts[i].Precision
	}
	return ap
}
