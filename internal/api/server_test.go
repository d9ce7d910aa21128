package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/evalbench/internal/config"
	"github.com/lantern-ml/evalbench/internal/db"
	"github.com/lantern-ml/evalbench/internal/testutil"
)

// chainModel is a deterministic logits backend for handler tests: from
// token i the next token i+1 (mod vocab) gets all the probability mass.
type chainModel struct {
	vocab int
}

func (m chainModel) Logits(_ context.Context, prefix []int) ([]float64, error) {
	logits := make([]float64, m.vocab)
	next := (prefix[len(prefix)-1] + 1) % m.vocab
	for i := range logits {
		logits[i] = -10
	}
	logits[next] = 10
	return logits, nil
}

func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()
	database := testutil.OpenTestDB(t)
	return NewServer(database, chainModel{vocab: 5}, config.EmptyConfig()), database
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	mux := srv.ServeMux()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodDelete, "/api/annotations"},
		{http.MethodPost, "/api/annotations/export"},
		{http.MethodGet, "/api/evaluate"},
		{http.MethodPost, "/api/evaluations"},
		{http.MethodGet, "/api/decode"},
		{http.MethodPost, "/api/params"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestParamsReportsDefaults(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/params", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"iou_threshold":0.5`)
	require.Contains(t, rec.Body.String(), `"nms_threshold":0.45`)
}
