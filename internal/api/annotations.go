package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lantern-ml/evalbench/internal/annotation"
	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/httputil"
)

// handleAnnotations handles list and create operations on
// /api/annotations.
func (s *Server) handleAnnotations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListAnnotations(w, r)
	case http.MethodPost:
		s.handleCreateAnnotations(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleListAnnotations lists annotations for a dataset, optionally
// filtered to one image.
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dataset := query.Get("dataset")
	if dataset == "" {
		datasets, err := s.annotations.Datasets()
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to list datasets: %v", err))
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{"datasets": datasets})
		return
	}

	var (
		rows []*db.StoredAnnotation
		err  error
	)
	if imageID := query.Get("image_id"); imageID != "" {
		rows, err = s.annotations.ListByImage(dataset, imageID)
	} else {
		rows, err = s.annotations.ListByDataset(dataset)
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list annotations: %v", err))
		return
	}
	if rows == nil {
		rows = []*db.StoredAnnotation{}
	}
	httputil.WriteJSONOK(w, rows)
}

type createAnnotationsRequest struct {
	Dataset     string                  `json:"dataset"`
	Annotations []annotation.Annotation `json:"annotations"`
}

// handleCreateAnnotations stores a batch of annotations under a dataset
// tag. Every record is validated against the configured label set
// before anything is written.
func (s *Server) handleCreateAnnotations(w http.ResponseWriter, r *http.Request) {
	var req createAnnotationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Dataset == "" {
		httputil.BadRequest(w, "dataset is required")
		return
	}
	if len(req.Annotations) == 0 {
		httputil.BadRequest(w, "annotations are required")
		return
	}

	labels := annotation.DefaultLabels
	for i, a := range req.Annotations {
		if err := a.Validate(labels); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("annotation %d: %v", i, err))
			return
		}
	}

	if err := s.annotations.InsertBatch(req.Dataset, req.Annotations); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store annotations: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"dataset":  req.Dataset,
		"inserted": len(req.Annotations),
	})
}

// handleAnnotationByID handles get and delete on /api/annotations/{id}.
func (s *Server) handleAnnotationByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/annotations/")
	if id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "annotation not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		stored, err := s.annotations.Get(id)
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "annotation not found")
			return
		}
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to load annotation: %v", err))
			return
		}
		httputil.WriteJSONOK(w, stored)
	case http.MethodDelete:
		removed, err := s.annotations.Delete(id)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to delete annotation: %v", err))
			return
		}
		if !removed {
			httputil.NotFound(w, "annotation not found")
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"deleted": id})
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleExportAnnotations streams a dataset as CSV in the annotation
// interchange format.
func (s *Server) handleExportAnnotations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		httputil.BadRequest(w, "dataset is required")
		return
	}

	rows, err := s.annotations.ListByDataset(dataset)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list annotations: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset+".csv"))
	if err := annotation.WriteCSV(w, db.Truths(rows)); err != nil {
		// Headers are already sent; all we can do is log via the
		// middleware status.
		return
	}
}
