package charts

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/detect"
	"github.com/lantern-ml/evalbench/internal/testutil"
)

func TestBinIoUs(t *testing.T) {
	t.Parallel()

	counts := binIoUs([]float64{0.0, 0.04, 0.51, 0.52, 0.99, 1.0})

	assert.Equal(t, 2, counts[0], "0.0 and 0.04 share the first bucket")
	assert.Equal(t, 2, counts[10], "0.51 and 0.52 share the 0.50 bucket")
	assert.Equal(t, 2, counts[19], "0.99 and exactly 1.0 land in the last bucket")

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 6, total)

	assert.Equal(t, make([]int, histogramBins), binIoUs(nil))
}

func TestIoUHistogramHandler(t *testing.T) {
	t.Parallel()

	database := testutil.OpenTestDB(t)
	store := db.NewEvaluationStore(database)
	eval := db.FromMetrics("val", detect.Metrics{
		IoUThreshold: 0.5,
		MatchedIoUs:  []float64{0.6, 0.7, 0.95},
	}, 0.8)
	require.NoError(t, store.Insert(eval))

	mux := http.NewServeMux()
	NewHandlers(database).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/charts/iou?dataset=val", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Matched IoU Distribution")

	// Unknown dataset and missing param.
	req = httptest.NewRequest(http.MethodGet, "/debug/charts/iou?dataset=nope", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/charts/iou", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandler(t *testing.T) {
	t.Parallel()

	database := testutil.OpenTestDB(t)
	store := db.NewEvaluationStore(database)
	for i, ns := range []int64{1000, 2000} {
		eval := db.FromMetrics("val", detect.Metrics{
			IoUThreshold: 0.5,
			Precision:    0.5 + float64(i)*0.2,
			Recall:       0.4 + float64(i)*0.2,
		}, 0.6)
		eval.CreatedAtNs = ns
		require.NoError(t, store.Insert(eval))
	}

	mux := http.NewServeMux()
	NewHandlers(database).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/charts/history?dataset=val", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Evaluation History")

	req = httptest.NewRequest(http.MethodGet, "/debug/charts/history?dataset=nope", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderPRCurve(t *testing.T) {
	t.Parallel()

	points := []detect.PRPoint{
		{Score: 0.9, Precision: 1.0, Recall: 0.2},
		{Score: 0.7, Precision: 0.8, Recall: 0.5},
		{Score: 0.5, Precision: 0.6, Recall: 0.7},
	}

	outputDir := t.TempDir()
	path, err := RenderPRCurve(points, "val @ IoU 0.5", outputDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "pr_curve.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = RenderPRCurve(nil, "empty", outputDir)
	assert.Error(t, err)
}
