package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lantern-ml/evalbench/internal/detect"
)

// Evaluation is a persisted evaluation run: one detection set scored
// against one ground-truth dataset at a fixed IoU threshold.
type Evaluation struct {
	EvaluationID     string          `json:"evaluation_id"`
	Dataset          string          `json:"dataset"`
	IoUThreshold     float64         `json:"iou_threshold"`
	TruePositives    int             `json:"true_positives"`
	FalsePositives   int             `json:"false_positives"`
	FalseNegatives   int             `json:"false_negatives"`
	Precision        float64         `json:"precision"`
	Recall           float64         `json:"recall"`
	MeanIoU          float64         `json:"mean_iou"`
	MedianIoU        float64         `json:"median_iou"`
	AveragePrecision float64         `json:"average_precision"`
	MatchedIoUs      []float64       `json:"matched_ious,omitempty"`
	ParamsJSON       json.RawMessage `json:"params_json,omitempty"`
	CreatedAtNs      int64           `json:"created_at_ns"`
}

// FromMetrics builds an Evaluation row from computed metrics.
func FromMetrics(dataset string, m detect.Metrics, ap float64) *Evaluation {
	return &Evaluation{
		Dataset:          dataset,
		IoUThreshold:     m.IoUThreshold,
		TruePositives:    m.TruePositives,
		FalsePositives:   m.FalsePositives,
		FalseNegatives:   m.FalseNegatives,
		Precision:        m.Precision,
		Recall:           m.Recall,
		MeanIoU:          m.MeanIoU,
		MedianIoU:        m.MedianIoU,
		AveragePrecision: ap,
		MatchedIoUs:      m.MatchedIoUs,
	}
}

// EvaluationStore provides persistence for evaluation runs.
type EvaluationStore struct {
	db *DB
}

// NewEvaluationStore creates an EvaluationStore backed by db.
func NewEvaluationStore(db *DB) *EvaluationStore {
	return &EvaluationStore{db: db}
}

// Insert persists an evaluation run. If EvaluationID is empty a UUID is
// generated.
func (s *EvaluationStore) Insert(eval *Evaluation) error {
	if eval.EvaluationID == "" {
		eval.EvaluationID = uuid.New().String()
	}
	if eval.CreatedAtNs == 0 {
		eval.CreatedAtNs = time.Now().UnixNano()
	}

	iousJSON, err := json.Marshal(eval.MatchedIoUs)
	if err != nil {
		return fmt.Errorf("failed to encode matched ious: %w", err)
	}
	var paramsStr interface{}
	if len(eval.ParamsJSON) > 0 {
		paramsStr = string(eval.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO evaluations (
				evaluation_id, dataset, iou_threshold,
				true_positives, false_positives, false_negatives,
				precision, recall, mean_iou, median_iou, average_precision,
				matched_ious, params_json, created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			eval.EvaluationID, eval.Dataset, eval.IoUThreshold,
			eval.TruePositives, eval.FalsePositives, eval.FalseNegatives,
			eval.Precision, eval.Recall, eval.MeanIoU, eval.MedianIoU, eval.AveragePrecision,
			string(iousJSON), paramsStr, eval.CreatedAtNs,
		)
		return err
	})
}

// ListByDataset returns all evaluations for a dataset, newest first.
func (s *EvaluationStore) ListByDataset(dataset string) ([]*Evaluation, error) {
	rows, err := s.db.Query(`
		SELECT evaluation_id, dataset, iou_threshold,
			true_positives, false_positives, false_negatives,
			precision, recall, mean_iou, median_iou, average_precision,
			matched_ious, params_json, created_at_ns
		FROM evaluations WHERE dataset = ?
		ORDER BY created_at_ns DESC`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

// Latest returns the most recent evaluation for a dataset, or
// sql.ErrNoRows.
func (s *EvaluationStore) Latest(dataset string) (*Evaluation, error) {
	row := s.db.QueryRow(`
		SELECT evaluation_id, dataset, iou_threshold,
			true_positives, false_positives, false_negatives,
			precision, recall, mean_iou, median_iou, average_precision,
			matched_ious, params_json, created_at_ns
		FROM evaluations WHERE dataset = ?
		ORDER BY created_at_ns DESC LIMIT 1`, dataset)
	return scanEvaluation(row)
}

// Get returns one evaluation by id, or sql.ErrNoRows.
func (s *EvaluationStore) Get(evaluationID string) (*Evaluation, error) {
	row := s.db.QueryRow(`
		SELECT evaluation_id, dataset, iou_threshold,
			true_positives, false_positives, false_negatives,
			precision, recall, mean_iou, median_iou, average_precision,
			matched_ious, params_json, created_at_ns
		FROM evaluations WHERE evaluation_id = ?`, evaluationID)
	return scanEvaluation(row)
}

func scanEvaluation(row rowScanner) (*Evaluation, error) {
	var e Evaluation
	var iousJSON string
	var paramsJSON sql.NullString
	if err := row.Scan(
		&e.EvaluationID, &e.Dataset, &e.IoUThreshold,
		&e.TruePositives, &e.FalsePositives, &e.FalseNegatives,
		&e.Precision, &e.Recall, &e.MeanIoU, &e.MedianIoU, &e.AveragePrecision,
		&iousJSON, &paramsJSON, &e.CreatedAtNs,
	); err != nil {
		return nil, err
	}
	if iousJSON != "" {
		if err := json.Unmarshal([]byte(iousJSON), &e.MatchedIoUs); err != nil {
			return nil, fmt.Errorf("failed to decode matched ious: %w", err)
		}
	}
	if paramsJSON.Valid && paramsJSON.String != "" {
		e.ParamsJSON = json.RawMessage(paramsJSON.String)
	}
	return &e, nil
}

func scanEvaluations(rows *sql.Rows) ([]*Evaluation, error) {
	var out []*Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
