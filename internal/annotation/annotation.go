package annotation

import (
	"fmt"

	"github.com/lantern-ml/evalbench/internal/geom"
)

// Annotation is one labelled bounding box on one image. Box coordinates
// are pixels relative to ImageSize; when the image is resized for model
// input the box must be resized with it.
type Annotation struct {
	ImageID   string    `json:"image_id"`
	Class     string    `json:"class"`
	ImageSize geom.Size `json:"image_size"`
	Box       geom.Box  `json:"box"`
}

// Validate checks the record against a label set and the box ordering
// invariant.
func (a Annotation) Validate(labels *LabelSet) error {
	if a.ImageID == "" {
		return fmt.Errorf("missing image id")
	}
	if !labels.Valid(a.Class) {
		return fmt.Errorf("unknown class %q (valid: %s)", a.Class, labels)
	}
	if !a.Box.Valid() {
		return fmt.Errorf("box corners out of order: %+v", a.Box)
	}
	if a.ImageSize.W <= 0 || a.ImageSize.H <= 0 {
		return fmt.Errorf("non-positive image size %+v", a.ImageSize)
	}
	if a.Box.XMax > a.ImageSize.W || a.Box.YMax > a.ImageSize.H || a.Box.XMin < 0 || a.Box.YMin < 0 {
		return fmt.Errorf("box %+v outside image bounds %+v", a.Box, a.ImageSize)
	}
	return nil
}

// Resize returns a copy of the annotation rescaled to the target image
// size, e.g. the fixed resolution a detector is trained at.
func (a Annotation) Resize(target geom.Size) Annotation {
	a.Box = a.Box.Resize(a.ImageSize, target)
	a.ImageSize = target
	return a
}
