// Package charts renders debug visualisations of stored evaluation
// runs: an IoU histogram for the latest run and a precision/recall
// history across runs, plus a PNG renderer for PR curves.
package charts

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/httputil"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// histogramBins is the number of equal-width IoU buckets on [0, 1].
const histogramBins = 20

// Handlers serves the chart endpoints from stored evaluations.
type Handlers struct {
	evals *db.EvaluationStore
}

// NewHandlers creates chart handlers backed by database.
func NewHandlers(database *db.DB) *Handlers {
	return &Handlers{evals: db.NewEvaluationStore(database)}
}

// RegisterRoutes registers the chart routes on the provided mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/charts/iou", h.handleIoUHistogram)
	mux.HandleFunc("/debug/charts/history", h.handleHistory)
}

// binIoUs buckets matched IoU values into histogramBins equal-width
// buckets on [0, 1]. An IoU of exactly 1 lands in the last bucket.
func binIoUs(ious []float64) []int {
	counts := make([]int, histogramBins)
	for _, v := range ious {
		idx := int(v * histogramBins)
		if idx < 0 {
			idx = 0
		}
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		counts[idx]++
	}
	return counts
}

// handleIoUHistogram renders the matched-IoU distribution of the latest
// evaluation for a dataset as a bar chart (HTML). Debugging-only
// endpoint, no auth.
func (h *Handlers) handleIoUHistogram(w http.ResponseWriter, r *http.Request) {
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		httputil.BadRequest(w, "dataset is required")
		return
	}

	eval, err := h.evals.Latest(dataset)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("no evaluations for dataset %q", dataset))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load evaluation: %v", err))
		return
	}

	counts := binIoUs(eval.MatchedIoUs)
	labels := make([]string, histogramBins)
	data := make([]opts.BarData, histogramBins)
	for i := range counts {
		labels[i] = fmt.Sprintf("%.2f", float64(i)/histogramBins)
		data[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Matched IoU Histogram", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Matched IoU Distribution", Subtitle: fmt.Sprintf("dataset=%s run=%s matches=%d", dataset, eval.EvaluationID, len(eval.MatchedIoUs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "IoU bucket"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Matches"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("matches", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleHistory renders precision, recall and average precision across
// all stored runs for a dataset as a line chart (HTML), oldest first.
func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		httputil.BadRequest(w, "dataset is required")
		return
	}

	evals, err := h.evals.ListByDataset(dataset)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list evaluations: %v", err))
		return
	}
	if len(evals) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no evaluations for dataset %q", dataset))
		return
	}

	// Store order is newest first; plot oldest first.
	labels := make([]string, len(evals))
	precision := make([]opts.LineData, len(evals))
	recall := make([]opts.LineData, len(evals))
	ap := make([]opts.LineData, len(evals))
	for i, eval := range evals {
		j := len(evals) - 1 - i
		labels[j] = fmt.Sprintf("run %d", j+1)
		precision[j] = opts.LineData{Value: eval.Precision}
		recall[j] = opts.LineData{Value: eval.Recall}
		ap[j] = opts.LineData{Value: eval.AveragePrecision}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Evaluation History", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Evaluation History", Subtitle: fmt.Sprintf("dataset=%s runs=%d", dataset, len(evals))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	line.SetXAxis(labels)
	line.AddSeries("precision", precision)
	line.AddSeries("recall", recall)
	line.AddSeries("average precision", ap)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
