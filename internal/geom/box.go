// Package geom provides axis-aligned bounding-box geometry for annotation
// and evaluation code. Boxes are plain float64 structs so callers never
// depend on any tensor or image-framework types.
package geom

// Size is an image extent in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Box is an axis-aligned box in corner form: top-left (XMin, YMin),
// bottom-right (XMax, YMax). A valid box is ordered on both axes:
// XMin <= XMax and YMin <= YMax.
type Box struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// CenterBox is the same box in center form: center position plus extent.
// Center form and corner form are deterministic inverses of each other.
type CenterBox struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.XMax - b.XMin }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.YMax - b.YMin }

// Area returns the box area. Zero for degenerate boxes.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Valid reports whether the corners are ordered on both axes.
func (b Box) Valid() bool {
	return b.XMin <= b.XMax && b.YMin <= b.YMax
}

// Canonical returns b with corners swapped where needed so that the
// ordering invariant holds. Arithmetic on boxes (negative scale factors,
// hand-entered annotations) can flip an axis; Canonical restores order.
func (b Box) Canonical() Box {
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	return b
}

// Center converts the box to center form.
func (b Box) Center() CenterBox {
	return CenterBox{
		CX: (b.XMin + b.XMax) / 2,
		CY: (b.YMin + b.YMax) / 2,
		W:  b.Width(),
		H:  b.Height(),
	}
}

// Corner converts the box back to corner form.
func (c CenterBox) Corner() Box {
	return Box{
		XMin: c.CX - c.W/2,
		YMin: c.CY - c.H/2,
		XMax: c.CX + c.W/2,
		YMax: c.CY + c.H/2,
	}
}

// Scale multiplies x-coordinates by sx and y-coordinates by sy. The
// factors are independent per axis because source images are generally
// not square.
func (b Box) Scale(sx, sy float64) Box {
	return Box{
		XMin: b.XMin * sx,
		YMin: b.YMin * sy,
		XMax: b.XMax * sx,
		YMax: b.YMax * sy,
	}
}

// Resize maps a box annotated on an image of size from onto the same
// image resized to size to. Width and height factors are applied
// separately so aspect-ratio changes are handled correctly.
func (b Box) Resize(from, to Size) Box {
	return b.Scale(to.W/from.W, to.H/from.H)
}

// Clip restricts the box to the image bounds [0, s.W] x [0, s.H].
func (b Box) Clip(s Size) Box {
	return Box{
		XMin: clamp(b.XMin, 0, s.W),
		YMin: clamp(b.YMin, 0, s.H),
		XMax: clamp(b.XMax, 0, s.W),
		YMax: clamp(b.YMax, 0, s.H),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
