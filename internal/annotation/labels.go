// Package annotation defines the ground-truth annotation record used by
// the evaluation layer: one labelled bounding box on one image, together
// with the label set and CSV load/save support.
package annotation

import "strings"

// LabelSet is the fixed set of class labels a dataset may use. Lookups
// are case-sensitive; datasets that need different casing should
// normalise at load time.
type LabelSet struct {
	names []string
	index map[string]int
}

// NewLabelSet builds a label set from an ordered list of class names.
// The order defines the class index used by stores and metrics.
func NewLabelSet(names ...string) *LabelSet {
	s := &LabelSet{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		s.index[n] = i
	}
	return s
}

// Valid reports whether name is a member of the set.
func (s *LabelSet) Valid(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the class index for name.
func (s *LabelSet) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the class names in index order.
func (s *LabelSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of classes.
func (s *LabelSet) Len() int { return len(s.names) }

// String returns a comma-separated list of the class names, for error
// messages.
func (s *LabelSet) String() string {
	return strings.Join(s.names, ", ")
}

// DefaultLabels is the label set for the bundled road-scene annotation
// files. Custom datasets pass their own set to ReadCSV.
var DefaultLabels = NewLabelSet(
	"person",
	"bicycle",
	"car",
	"motorcycle",
	"bus",
	"truck",
)
