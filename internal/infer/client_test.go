package infer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ml/evalbench/internal/httputil"
)

func TestClientLogits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("decodes logits", func(t *testing.T) {
		t.Parallel()
		mock := httputil.NewMockDoer().AddResponse(200, `{"logits":[0.1,0.2,0.7]}`)
		c := NewClient("http://model.local", mock)

		logits, err := c.Logits(ctx, []int{1, 2})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.2, 0.7}, logits)

		require.Len(t, mock.Requests, 1)
		req := mock.Requests[0]
		assert.Equal(t, "http://model.local/v1/logits", req.URL.String())
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		var sent struct {
			Prefix []int `json:"prefix"`
		}
		require.NoError(t, json.Unmarshal(body, &sent))
		assert.Equal(t, []int{1, 2}, sent.Prefix)
	})

	t.Run("rejects empty logits", func(t *testing.T) {
		t.Parallel()
		mock := httputil.NewMockDoer().AddResponse(200, `{"logits":[]}`)
		c := NewClient("http://model.local", mock)
		_, err := c.Logits(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("surfaces transport errors", func(t *testing.T) {
		t.Parallel()
		mock := httputil.NewMockDoer().AddError(errors.New("connection refused"))
		c := NewClient("http://model.local", mock)
		_, err := c.Logits(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("surfaces server errors", func(t *testing.T) {
		t.Parallel()
		mock := httputil.NewMockDoer().AddResponse(503, "overloaded")
		c := NewClient("http://model.local", mock)
		_, err := c.Logits(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

func TestClientClassify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("one probability vector per image", func(t *testing.T) {
		t.Parallel()
		mock := httputil.NewMockDoer().AddResponse(200, `{"probabilities":[[0.9,0.1],[0.2,0.8]]}`)
		c := NewClient("http://model.local", mock)

		probs, err := c.Classify(ctx, [][]byte{{1}, {2}})
		require.NoError(t, err)
		require.Len(t, probs, 2)
		assert.Equal(t, []float64{0.9, 0.1}, probs[0])
	})

	t.Run("rejects mismatched batch size", func(t *testing.T) {
		t.Parallel()
		mock := httputil.NewMockDoer().AddResponse(200, `{"probabilities":[[0.9,0.1]]}`)
		c := NewClient("http://model.local", mock)
		_, err := c.Classify(ctx, [][]byte{{1}, {2}})
		assert.Error(t, err)
	})
}
