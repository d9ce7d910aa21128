package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/evalbench/internal/annotation"
	"github.com/lantern-ml/evalbench/internal/geom"
)

func testAnnotation(imageID, class string, box geom.Box) annotation.Annotation {
	return annotation.Annotation{
		ImageID:   imageID,
		Class:     class,
		ImageSize: geom.Size{W: 640, H: 480},
		Box:       box,
	}
}

func TestAnnotationStoreInsertGet(t *testing.T) {
	t.Parallel()

	store := NewAnnotationStore(openTestDB(t))

	stored := &StoredAnnotation{
		Dataset:    "val",
		Annotation: testAnnotation("img_001.jpg", "car", geom.Box{XMin: 10, YMin: 20, XMax: 110, YMax: 90}),
	}
	require.NoError(t, store.Insert(stored))
	require.NotEmpty(t, stored.AnnotationID, "Insert should assign an id")
	require.NotZero(t, stored.CreatedAtNs)

	got, err := store.Get(stored.AnnotationID)
	require.NoError(t, err)
	assert.Equal(t, "val", got.Dataset)
	assert.Equal(t, "img_001.jpg", got.ImageID)
	assert.Equal(t, "car", got.Class)
	assert.Equal(t, stored.Box, got.Box)
	assert.Equal(t, stored.ImageSize, got.ImageSize)
}

func TestAnnotationStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := NewAnnotationStore(openTestDB(t))

	_, err := store.Get("no-such-id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAnnotationStoreInsertBatchAndList(t *testing.T) {
	t.Parallel()

	store := NewAnnotationStore(openTestDB(t))

	anns := []annotation.Annotation{
		testAnnotation("img_001.jpg", "car", geom.Box{XMin: 10, YMin: 20, XMax: 110, YMax: 90}),
		testAnnotation("img_001.jpg", "person", geom.Box{XMin: 200, YMin: 50, XMax: 240, YMax: 170}),
		testAnnotation("img_002.jpg", "bus", geom.Box{XMin: 0, YMin: 0, XMax: 320, YMax: 240}),
	}
	require.NoError(t, store.InsertBatch("val", anns))

	all, err := store.ListByDataset("val")
	require.NoError(t, err)
	require.Len(t, all, 3)

	byImage, err := store.ListByImage("val", "img_001.jpg")
	require.NoError(t, err)
	require.Len(t, byImage, 2)
	for _, a := range byImage {
		assert.Equal(t, "img_001.jpg", a.ImageID)
	}

	other, err := store.ListByDataset("train")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAnnotationStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewAnnotationStore(openTestDB(t))

	stored := &StoredAnnotation{
		Dataset:    "val",
		Annotation: testAnnotation("img_001.jpg", "car", geom.Box{XMin: 10, YMin: 20, XMax: 110, YMax: 90}),
	}
	require.NoError(t, store.Insert(stored))

	removed, err := store.Delete(stored.AnnotationID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.Get(stored.AnnotationID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	removed, err = store.Delete(stored.AnnotationID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete should be a no-op")
}

func TestAnnotationStoreDatasets(t *testing.T) {
	t.Parallel()

	store := NewAnnotationStore(openTestDB(t))

	require.NoError(t, store.InsertBatch("val", []annotation.Annotation{
		testAnnotation("img_001.jpg", "car", geom.Box{XMin: 10, YMin: 20, XMax: 110, YMax: 90}),
	}))
	require.NoError(t, store.InsertBatch("train", []annotation.Annotation{
		testAnnotation("img_050.jpg", "bus", geom.Box{XMin: 5, YMin: 5, XMax: 50, YMax: 50}),
	}))

	datasets, err := store.Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"train", "val"}, datasets)
}

func TestTruths(t *testing.T) {
	t.Parallel()

	stored := []*StoredAnnotation{
		{AnnotationID: "a", Dataset: "val", Annotation: testAnnotation("img_001.jpg", "car", geom.Box{XMin: 1, YMin: 2, XMax: 3, YMax: 4})},
		{AnnotationID: "b", Dataset: "val", Annotation: testAnnotation("img_002.jpg", "bus", geom.Box{XMin: 5, YMin: 6, XMax: 7, YMax: 8})},
	}

	truths := Truths(stored)
	require.Len(t, truths, 2)
	assert.Equal(t, "img_001.jpg", truths[0].ImageID)
	assert.Equal(t, geom.Box{XMin: 5, YMin: 6, XMax: 7, YMax: 8}, truths[1].Box)
}
