package geom

// IntersectionArea returns the overlap area of two corner-form boxes.
// The overlap extent is clamped at zero per axis before multiplying, so
// disjoint boxes contribute nothing even when they overlap on one axis.
func IntersectionArea(a, b Box) float64 {
	w := min(a.XMax, b.XMax) - max(a.XMin, b.XMin)
	if w < 0 {
		w = 0
	}
	h := min(a.YMax, b.YMax) - max(a.YMin, b.YMin)
	if h < 0 {
		h = 0
	}
	return w * h
}

// UnionArea returns the combined area covered by two boxes.
func UnionArea(a, b Box) float64 {
	return a.Area() + b.Area() - IntersectionArea(a, b)
}

// IoU returns the intersection-over-union of two corner-form boxes in
// [0, 1]: 1 for identical boxes, 0 for disjoint ones, symmetric in its
// arguments. A non-positive union (two degenerate zero-area boxes)
// scores 0.
func IoU(a, b Box) float64 {
	inter := IntersectionArea(a, b)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
