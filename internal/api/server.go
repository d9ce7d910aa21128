// Package api provides the HTTP API for the evaluation service:
// annotation management, detection evaluation runs, and text decoding.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lantern-ml/evalbench/internal/config"
	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/decode"
)

// ANSI escape codes for request log colouring
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	annotations *db.AnnotationStore
	evaluations *db.EvaluationStore
	model       decode.Model
	cfg         *config.EvalConfig
}

// NewServer creates the API server. model supplies logits for the
// decode endpoint and may be nil when no model backend is configured.
func NewServer(database *db.DB, model decode.Model, cfg *config.EvalConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	return &Server{
		annotations: db.NewAnnotationStore(database),
		evaluations: db.NewEvaluationStore(database),
		model:       model,
		cfg:         cfg,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/annotations", s.handleAnnotations)
	mux.HandleFunc("/api/annotations/export", s.handleExportAnnotations)
	mux.HandleFunc("/api/annotations/", s.handleAnnotationByID)
	mux.HandleFunc("/api/evaluate", s.handleEvaluate)
	mux.HandleFunc("/api/evaluations", s.handleListEvaluations)
	mux.HandleFunc("/api/decode", s.handleDecode)
	mux.HandleFunc("/api/params", s.handleParams)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
