package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/detect"
	"github.com/lantern-ml/evalbench/internal/httputil"
)

type evaluateRequest struct {
	Dataset    string             `json:"dataset"`
	Detections []detect.Detection `json:"detections"`

	// Optional overrides; tuning config defaults apply when omitted.
	IoUThreshold   *float64 `json:"iou_threshold,omitempty"`
	NMSThreshold   *float64 `json:"nms_threshold,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`

	// Persist stores the run so it shows up under /api/evaluations.
	Persist bool `json:"persist,omitempty"`
}

// evaluationParams records the thresholds an evaluation ran with, kept
// alongside the persisted run.
type evaluationParams struct {
	IoUThreshold   float64 `json:"iou_threshold"`
	NMSThreshold   float64 `json:"nms_threshold"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type evaluateResponse struct {
	EvaluationID     string           `json:"evaluation_id,omitempty"`
	Dataset          string           `json:"dataset"`
	Metrics          detect.Metrics   `json:"metrics"`
	AveragePrecision float64          `json:"average_precision"`
	PRCurve          []detect.PRPoint `json:"pr_curve"`
	Kept             int              `json:"kept_detections"`
}

// handleEvaluate scores a set of detections against the stored ground
// truth for a dataset: score filter, then NMS, then greedy matching at
// the IoU threshold.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Dataset == "" {
		httputil.BadRequest(w, "dataset is required")
		return
	}

	overlay := evaluationParams{
		IoUThreshold:   s.cfg.GetIoUThreshold(),
		NMSThreshold:   s.cfg.GetNMSThreshold(),
		ScoreThreshold: s.cfg.GetScoreThreshold(),
	}
	if req.IoUThreshold != nil {
		overlay.IoUThreshold = *req.IoUThreshold
	}
	if req.NMSThreshold != nil {
		overlay.NMSThreshold = *req.NMSThreshold
	}
	if req.ScoreThreshold != nil {
		overlay.ScoreThreshold = *req.ScoreThreshold
	}
	if overlay.IoUThreshold < 0 || overlay.IoUThreshold > 1 {
		httputil.BadRequest(w, fmt.Sprintf("iou_threshold must be between 0 and 1, got %f", overlay.IoUThreshold))
		return
	}

	stored, err := s.annotations.ListByDataset(req.Dataset)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load ground truth: %v", err))
		return
	}
	if len(stored) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no annotations for dataset %q", req.Dataset))
		return
	}
	truths := db.Truths(stored)

	dets := detect.FilterScore(req.Detections, overlay.ScoreThreshold)
	dets = detect.NMS(dets, overlay.NMSThreshold)

	metrics := detect.Evaluate(dets, truths, overlay.IoUThreshold)
	curve := detect.PRCurve(dets, truths, overlay.IoUThreshold)
	ap := detect.AveragePrecision(curve)

	resp := evaluateResponse{
		Dataset:          req.Dataset,
		Metrics:          metrics,
		AveragePrecision: ap,
		PRCurve:          curve,
		Kept:             len(dets),
	}

	if req.Persist {
		eval := db.FromMetrics(req.Dataset, metrics, ap)
		paramsJSON, err := json.Marshal(overlay)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to encode params: %v", err))
			return
		}
		eval.ParamsJSON = paramsJSON
		if err := s.evaluations.Insert(eval); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to store evaluation: %v", err))
			return
		}
		resp.EvaluationID = eval.EvaluationID
	}

	httputil.WriteJSONOK(w, resp)
}

// handleListEvaluations lists stored evaluation runs for a dataset,
// newest first. With latest=true only the most recent run is returned.
func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	dataset := query.Get("dataset")
	if dataset == "" {
		httputil.BadRequest(w, "dataset is required")
		return
	}

	if query.Get("latest") == "true" {
		eval, err := s.evaluations.Latest(dataset)
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, fmt.Sprintf("no evaluations for dataset %q", dataset))
			return
		}
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to load evaluation: %v", err))
			return
		}
		httputil.WriteJSONOK(w, eval)
		return
	}

	evals, err := s.evaluations.ListByDataset(dataset)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list evaluations: %v", err))
		return
	}
	if evals == nil {
		evals = []*db.Evaluation{}
	}
	httputil.WriteJSONOK(w, evals)
}

// handleParams reports the effective tuning parameters.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"iou_threshold":   s.cfg.GetIoUThreshold(),
		"nms_threshold":   s.cfg.GetNMSThreshold(),
		"score_threshold": s.cfg.GetScoreThreshold(),
		"max_tokens":      s.cfg.GetMaxTokens(),
		"temperature":     s.cfg.GetTemperature(),
		"top_k":           s.cfg.GetTopK(),
		"top_p":           s.cfg.GetTopP(),
		"beam_width":      s.cfg.GetBeamWidth(),
		"no_repeat_ngram": s.cfg.GetNoRepeatNGram(),
		"model_url":       s.cfg.GetModelURL(),
	})
}
