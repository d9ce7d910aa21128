package detect

import "github.com/lantern-ml/evalbench/internal/geom"

// NMS performs non-maximum suppression per image and class: detections
// are taken in descending score order and any lower-scored detection of
// the same image and class whose IoU with a kept detection exceeds
// iouThreshold is dropped. The input slice is not modified.
func NMS(dets []Detection, iouThreshold float64) []Detection {
	ordered := append([]Detection(nil), dets...)
	SortByScore(ordered)

	kept := make([]Detection, 0, len(ordered))
	suppressed := make([]bool, len(ordered))
	for i, d := range ordered {
		if suppressed[i] {
			continue
		}
		kept = append(kept, d)
		for j := i + 1; j < len(ordered); j++ {
			if suppressed[j] || ordered[j].Class != d.Class || ordered[j].ImageID != d.ImageID {
				continue
			}
			if geom.IoU(d.Box, ordered[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
