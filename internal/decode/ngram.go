package decode

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CountModel is an order-n count language model with add-one smoothing.
// It exists so decoding policies can run against something real without
// a neural model behind them: build it from a token stream, then use it
// anywhere a Model is expected. Logits are log-probabilities, so the
// softmax downstream recovers the smoothed distribution exactly.
type CountModel struct {
	order     int
	vocabSize int
	counts    map[string][]float64
	totals    map[string]float64
}

// NewCountModel creates an order-n model (n >= 1; n-1 tokens of context)
// over a vocabulary of vocabSize tokens.
func NewCountModel(order, vocabSize int) (*CountModel, error) {
	if order < 1 {
		return nil, fmt.Errorf("order must be at least 1, got %d", order)
	}
	if vocabSize < 1 {
		return nil, fmt.Errorf("vocab size must be positive, got %d", vocabSize)
	}
	return &CountModel{
		order:     order,
		vocabSize: vocabSize,
		counts:    make(map[string][]float64),
		totals:    make(map[string]float64),
	}, nil
}

// Observe counts every order-n window in seq. Call it once per training
// sequence; observations accumulate.
func (m *CountModel) Observe(seq []int) {
	ctxLen := m.order - 1
	for i := ctxLen; i < len(seq); i++ {
		key := contextKey(seq[i-ctxLen : i])
		row := m.counts[key]
		if row == nil {
			row = make([]float64, m.vocabSize)
			m.counts[key] = row
		}
		row[seq[i]]++
		m.totals[key]++
	}
}

// Logits returns add-one smoothed log-probabilities for the next token
// given the last order-1 tokens of prefix. An unseen context yields the
// uniform distribution.
func (m *CountModel) Logits(_ context.Context, prefix []int) ([]float64, error) {
	ctxLen := m.order - 1
	var key string
	if len(prefix) >= ctxLen {
		key = contextKey(prefix[len(prefix)-ctxLen:])
	} else {
		key = contextKey(prefix)
	}

	row := m.counts[key]
	total := m.totals[key]
	denom := total + float64(m.vocabSize)

	logits := make([]float64, m.vocabSize)
	for i := range logits {
		var c float64
		if row != nil {
			c = row[i]
		}
		logits[i] = math.Log((c + 1) / denom)
	}
	return logits, nil
}

func contextKey(ctx []int) string {
	if len(ctx) == 0 {
		return ""
	}
	parts := make([]string, len(ctx))
	for i, t := range ctx {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ",")
}
