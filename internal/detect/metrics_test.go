package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/evalbench/internal/annotation"
	"github.com/lantern-ml/evalbench/internal/geom"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	boxA := geom.Box{XMin: 47, YMin: 35, XMax: 147, YMax: 101}
	boxB := geom.Box{XMin: 300, YMin: 200, XMax: 400, YMax: 300}

	truths := []annotation.Annotation{
		truth("a", "car", boxA),
		truth("a", "person", boxB),
	}

	t.Run("perfect detections", func(t *testing.T) {
		t.Parallel()
		dets := []Detection{
			{ImageID: "a", Class: "car", Score: 0.9, Box: boxA},
			{ImageID: "a", Class: "person", Score: 0.8, Box: boxB},
		}
		m := Evaluate(dets, truths, 0.5)
		assert.Equal(t, 2, m.TruePositives)
		assert.Equal(t, 0, m.FalsePositives)
		assert.Equal(t, 0, m.FalseNegatives)
		assert.Equal(t, 1.0, m.Precision)
		assert.Equal(t, 1.0, m.Recall)
		assert.Equal(t, 1.0, m.MeanIoU)
	})

	t.Run("one miss one spurious", func(t *testing.T) {
		t.Parallel()
		dets := []Detection{
			{ImageID: "a", Class: "car", Score: 0.9, Box: boxA},
			{ImageID: "a", Class: "car", Score: 0.7, Box: geom.Box{XMin: 500, YMin: 10, XMax: 560, YMax: 60}},
		}
		m := Evaluate(dets, truths, 0.5)
		assert.Equal(t, 1, m.TruePositives)
		assert.Equal(t, 1, m.FalsePositives)
		assert.Equal(t, 1, m.FalseNegatives)
		assert.Equal(t, 0.5, m.Precision)
		assert.Equal(t, 0.5, m.Recall)

		require.Contains(t, m.PerClass, "car")
		require.Contains(t, m.PerClass, "person")
		assert.Equal(t, Counts{TruePositives: 1, FalsePositives: 1}, m.PerClass["car"])
		assert.Equal(t, Counts{FalseNegatives: 1}, m.PerClass["person"])
	})

	t.Run("no detections", func(t *testing.T) {
		t.Parallel()
		m := Evaluate(nil, truths, 0.5)
		assert.Equal(t, 0, m.TruePositives)
		assert.Equal(t, 2, m.FalseNegatives)
		assert.Equal(t, 0.0, m.Precision)
		assert.Equal(t, 0.0, m.Recall)
	})
}

func TestPRCurve(t *testing.T) {
	t.Parallel()

	box := geom.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	far := geom.Box{XMin: 100, YMin: 100, XMax: 110, YMax: 110}
	truths := []annotation.Annotation{truth("a", "car", box)}
	dets := []Detection{
		{ImageID: "a", Class: "car", Score: 0.9, Box: box},
		{ImageID: "a", Class: "car", Score: 0.3, Box: far},
	}

	points := PRCurve(dets, truths, 0.5)
	require.Len(t, points, 2)
	// Strictest threshold first: only the true positive survives.
	assert.Equal(t, PRPoint{Score: 0.9, Precision: 1, Recall: 1}, points[0])
	// Loosest threshold admits the false positive.
	assert.Equal(t, PRPoint{Score: 0.3, Precision: 0.5, Recall: 1}, points[1])
}

func TestAveragePrecision(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0.0, AveragePrecision(nil))
	})

	t.Run("perfect curve", func(t *testing.T) {
		t.Parallel()
		points := []PRPoint{
			{Score: 0.9, Precision: 1, Recall: 0.5},
			{Score: 0.5, Precision: 1, Recall: 1},
		}
		assert.InDelta(t, 1.0, AveragePrecision(points), 1e-12)
	})

	t.Run("interpolates precision", func(t *testing.T) {
		t.Parallel()
		points := []PRPoint{
			{Score: 0.9, Precision: 1.0, Recall: 0.5},
			{Score: 0.5, Precision: 0.5, Recall: 1.0},
		}
		// First half at interpolated precision 1, second half at 0.5.
		assert.InDelta(t, 0.75, AveragePrecision(points), 1e-12)
	})
}

func TestNMS(t *testing.T) {
	t.Parallel()

	t.Run("suppresses heavy overlap", func(t *testing.T) {
		t.Parallel()
		dets := []Detection{
			{ImageID: "a", Class: "car", Score: 0.9, Box: geom.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}},
			{ImageID: "a", Class: "car", Score: 0.8, Box: geom.Box{XMin: 1, YMin: 1, XMax: 11, YMax: 11}},
			{ImageID: "a", Class: "car", Score: 0.7, Box: geom.Box{XMin: 50, YMin: 50, XMax: 60, YMax: 60}},
		}
		kept := NMS(dets, 0.5)
		require.Len(t, kept, 2)
		assert.Equal(t, 0.9, kept[0].Score)
		assert.Equal(t, 0.7, kept[1].Score)
	})

	t.Run("different classes are not suppressed", func(t *testing.T) {
		t.Parallel()
		box := geom.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
		dets := []Detection{
			{ImageID: "a", Class: "car", Score: 0.9, Box: box},
			{ImageID: "a", Class: "person", Score: 0.8, Box: box},
		}
		assert.Len(t, NMS(dets, 0.5), 2)
	})

	t.Run("different images are not suppressed", func(t *testing.T) {
		t.Parallel()
		box := geom.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
		dets := []Detection{
			{ImageID: "a", Class: "car", Score: 0.9, Box: box},
			{ImageID: "b", Class: "car", Score: 0.8, Box: box},
		}
		assert.Len(t, NMS(dets, 0.5), 2)
	})

	t.Run("input order is preserved", func(t *testing.T) {
		t.Parallel()
		dets := []Detection{
			{ImageID: "a", Class: "car", Score: 0.5, Box: geom.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}},
			{ImageID: "a", Class: "car", Score: 0.9, Box: geom.Box{XMin: 50, YMin: 50, XMax: 60, YMax: 60}},
		}
		NMS(dets, 0.5)
		assert.Equal(t, 0.5, dets[0].Score)
	})
}
