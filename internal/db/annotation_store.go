package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lantern-ml/evalbench/internal/annotation"
)

// StoredAnnotation is an annotation row: the annotation record plus its
// row identity and dataset grouping.
type StoredAnnotation struct {
	AnnotationID string `json:"annotation_id"`
	Dataset      string `json:"dataset"`
	annotation.Annotation
	CreatedAtNs int64 `json:"created_at_ns"`
}

// AnnotationStore provides persistence for ground-truth annotations.
type AnnotationStore struct {
	db *DB
}

// NewAnnotationStore creates an AnnotationStore backed by db.
func NewAnnotationStore(db *DB) *AnnotationStore {
	return &AnnotationStore{db: db}
}

// Insert persists an annotation under a dataset tag. If AnnotationID is
// empty a UUID is generated.
func (s *AnnotationStore) Insert(a *StoredAnnotation) error {
	if a.AnnotationID == "" {
		a.AnnotationID = uuid.New().String()
	}
	if a.CreatedAtNs == 0 {
		a.CreatedAtNs = time.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO annotations (
				annotation_id, dataset, image_id, class,
				image_w, image_h, x_min, y_min, x_max, y_max, created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.AnnotationID, a.Dataset, a.ImageID, a.Class,
			a.ImageSize.W, a.ImageSize.H,
			a.Box.XMin, a.Box.YMin, a.Box.XMax, a.Box.YMax,
			a.CreatedAtNs,
		)
		return err
	})
}

// InsertBatch persists a set of annotations in one transaction.
func (s *AnnotationStore) InsertBatch(dataset string, anns []annotation.Annotation) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO annotations (
				annotation_id, dataset, image_id, class,
				image_w, image_h, x_min, y_min, x_max, y_max, created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UnixNano()
		for _, a := range anns {
			if _, err := stmt.Exec(
				uuid.New().String(), dataset, a.ImageID, a.Class,
				a.ImageSize.W, a.ImageSize.H,
				a.Box.XMin, a.Box.YMin, a.Box.XMax, a.Box.YMax, now,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// ListByDataset returns all annotations for a dataset tag, oldest
// first.
func (s *AnnotationStore) ListByDataset(dataset string) ([]*StoredAnnotation, error) {
	rows, err := s.db.Query(`
		SELECT annotation_id, dataset, image_id, class,
			image_w, image_h, x_min, y_min, x_max, y_max, created_at_ns
		FROM annotations WHERE dataset = ?
		ORDER BY created_at_ns ASC, annotation_id ASC`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()
	return scanAnnotations(rows)
}

// ListByImage returns all annotations for one image in a dataset.
func (s *AnnotationStore) ListByImage(dataset, imageID string) ([]*StoredAnnotation, error) {
	rows, err := s.db.Query(`
		SELECT annotation_id, dataset, image_id, class,
			image_w, image_h, x_min, y_min, x_max, y_max, created_at_ns
		FROM annotations WHERE dataset = ? AND image_id = ?
		ORDER BY created_at_ns ASC, annotation_id ASC`, dataset, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()
	return scanAnnotations(rows)
}

// Get returns one annotation by id, or sql.ErrNoRows.
func (s *AnnotationStore) Get(annotationID string) (*StoredAnnotation, error) {
	row := s.db.QueryRow(`
		SELECT annotation_id, dataset, image_id, class,
			image_w, image_h, x_min, y_min, x_max, y_max, created_at_ns
		FROM annotations WHERE annotation_id = ?`, annotationID)
	return scanAnnotation(row)
}

// Delete removes one annotation by id. Deleting a missing row is not an
// error; the bool reports whether a row was removed.
func (s *AnnotationStore) Delete(annotationID string) (bool, error) {
	var affected int64
	err := retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM annotations WHERE annotation_id = ?`, annotationID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}

// Datasets returns the distinct dataset tags present in the store.
func (s *AnnotationStore) Datasets() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT dataset FROM annotations ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var datasets []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnnotation(row rowScanner) (*StoredAnnotation, error) {
	var a StoredAnnotation
	if err := row.Scan(
		&a.AnnotationID, &a.Dataset, &a.ImageID, &a.Class,
		&a.ImageSize.W, &a.ImageSize.H,
		&a.Box.XMin, &a.Box.YMin, &a.Box.XMax, &a.Box.YMax,
		&a.CreatedAtNs,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAnnotations(rows *sql.Rows) ([]*StoredAnnotation, error) {
	var out []*StoredAnnotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Truths converts stored rows back to plain annotation records for the
// evaluation layer.
func Truths(stored []*StoredAnnotation) []annotation.Annotation {
	out := make([]annotation.Annotation, len(stored))
	for i, s := range stored {
		out[i] = s.Annotation
	}
	return out
}
