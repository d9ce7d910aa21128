package decode

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax converts logits to a probability distribution. Stable for
// large-magnitude logits via log-sum-exp.
func Softmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	probs := make([]float64, len(logits))
	for i, l := range logits {
		probs[i] = math.Exp(l - lse)
	}
	return probs
}

// LogSoftmax converts logits to log-probabilities.
func LogSoftmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = l - lse
	}
	return out
}

// ArgMax returns the index of the largest value. Ties break to the
// lowest index so greedy decoding is deterministic.
func ArgMax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}
