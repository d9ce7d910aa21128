package detect

import (
	"sort"

	"github.com/lantern-ml/evalbench/internal/annotation"
	"github.com/lantern-ml/evalbench/internal/geom"
)

// Match pairs one detection with one ground-truth annotation.
type Match struct {
	Detection int     // index into the detections slice
	Truth     int     // index into the truths slice
	IoU       float64 // overlap of the matched pair
}

// MatchResult is the outcome of matching a detection set against a
// ground-truth set at a fixed IoU threshold.
type MatchResult struct {
	Matches         []Match
	UnmatchedDets   []int // false positives
	UnmatchedTruths []int // false negatives
}

// MatchGreedy pairs detections to ground truth in descending score
// order: each detection claims the unclaimed truth box of the same image
// and class with the highest IoU, provided it reaches iouThreshold.
// This is the conventional detection-evaluation protocol.
func MatchGreedy(dets []Detection, truths []annotation.Annotation, iouThreshold float64) MatchResult {
	// Sort indices by descending score without disturbing the input.
	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dets[order[i]].Score > dets[order[j]].Score
	})

	claimed := make([]bool, len(truths))
	matchedDet := make([]bool, len(dets))
	var res MatchResult

	for _, di := range order {
		d := dets[di]
		best := -1
		bestIoU := 0.0
		for ti, truth := range truths {
			if claimed[ti] || truth.ImageID != d.ImageID || truth.Class != d.Class {
				continue
			}
			if iou := geom.IoU(d.Box, truth.Box); iou > bestIoU {
				best, bestIoU = ti, iou
			}
		}
		if best >= 0 && bestIoU >= iouThreshold {
			claimed[best] = true
			matchedDet[di] = true
			res.Matches = append(res.Matches, Match{Detection: di, Truth: best, IoU: bestIoU})
		}
	}

	for i := range dets {
		if !matchedDet[i] {
			res.UnmatchedDets = append(res.UnmatchedDets, i)
		}
	}
	for i := range truths {
		if !claimed[i] {
			res.UnmatchedTruths = append(res.UnmatchedTruths, i)
		}
	}
	return res
}

// MatchOptimal pairs detections to ground truth by solving the
// assignment problem with cost 1 − IoU, gated at iouThreshold. Unlike
// the greedy protocol this maximises total overlap across the whole set,
// which matters when several detections contend for adjacent truths.
func MatchOptimal(dets []Detection, truths []annotation.Annotation, iouThreshold float64) MatchResult {
	var res MatchResult
	if len(dets) == 0 || len(truths) == 0 {
		for i := range dets {
			res.UnmatchedDets = append(res.UnmatchedDets, i)
		}
		for i := range truths {
			res.UnmatchedTruths = append(res.UnmatchedTruths, i)
		}
		return res
	}

	cost := make([][]float64, len(dets))
	ious := make([][]float64, len(dets))
	for i, d := range dets {
		cost[i] = make([]float64, len(truths))
		ious[i] = make([]float64, len(truths))
		for j, truth := range truths {
			iou := 0.0
			if truth.ImageID == d.ImageID && truth.Class == d.Class {
				iou = geom.IoU(d.Box, truth.Box)
			}
			ious[i][j] = iou
			if iou < iouThreshold {
				cost[i][j] = forbiddenCost
			} else {
				cost[i][j] = 1 - iou
			}
		}
	}

	claimed := make([]bool, len(truths))
	for di, ti := range assign(cost) {
		if ti < 0 {
			res.UnmatchedDets = append(res.UnmatchedDets, di)
			continue
		}
		claimed[ti] = true
		res.Matches = append(res.Matches, Match{Detection: di, Truth: ti, IoU: ious[di][ti]})
	}
	for i := range truths {
		if !claimed[i] {
			res.UnmatchedTruths = append(res.UnmatchedTruths, i)
		}
	}
	return res
}
