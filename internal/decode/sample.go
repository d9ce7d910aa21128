package decode

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
)

// SampleConfig controls stochastic decoding. Temperature applies first
// (logits are divided by it before the softmax); TopK and TopP then
// restrict the distribution before the draw. TopK and TopP may be
// combined; either alone is the usual configuration.
type SampleConfig struct {
	Config
	// Temperature rescales logits before the softmax. Values below 1
	// sharpen the distribution, above 1 flatten it. Zero means 1.
	Temperature float64
	// TopK restricts sampling to the k highest-probability tokens.
	// Zero disables the filter. k=1 is equivalent to greedy decoding.
	TopK int
	// TopP restricts sampling to the smallest set of tokens, taken in
	// descending probability order, whose cumulative probability
	// exceeds p. Zero disables the filter; p >= 1 admits the whole
	// vocabulary.
	TopP float64
	// Seed seeds the sampler's random source so runs are reproducible.
	Seed int64
}

func (c SampleConfig) validate() error {
	if err := c.Config.validate(); err != nil {
		return err
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %g", c.Temperature)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top-k must be non-negative, got %d", c.TopK)
	}
	if c.TopP < 0 {
		return fmt.Errorf("top-p must be non-negative, got %g", c.TopP)
	}
	return nil
}

// Sample extends prefix by drawing from the model's next-token
// distribution under cfg until cfg.MaxTokens tokens have been appended
// or cfg.EOS is emitted. It returns the full sequence including the
// prefix.
func Sample(ctx context.Context, m Model, prefix []int, cfg SampleConfig) ([]int, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	seq := append([]int(nil), prefix...)
	for i := 0; i < cfg.MaxTokens; i++ {
		logits, err := m.Logits(ctx, seq)
		if err != nil {
			return nil, err
		}
		probs := distribution(logits, cfg)
		next := draw(rng, probs)
		seq = append(seq, next)
		if next == cfg.EOS {
			break
		}
	}
	return seq, nil
}

// distribution turns logits into the filtered, renormalised sampling
// distribution described by cfg.
func distribution(logits []float64, cfg SampleConfig) []float64 {
	scaled := logits
	if cfg.Temperature > 0 && cfg.Temperature != 1 {
		scaled = make([]float64, len(logits))
		for i, l := range logits {
			scaled[i] = l / cfg.Temperature
		}
	}
	probs := Softmax(scaled)
	if cfg.TopK > 0 {
		probs = topK(probs, cfg.TopK)
	}
	if cfg.TopP > 0 {
		probs = topP(probs, cfg.TopP)
	}
	return probs
}

// topK zeroes all but the k highest probabilities and renormalises.
func topK(probs []float64, k int) []float64 {
	if k >= len(probs) {
		return probs
	}
	idx := descendingIndices(probs)

	out := make([]float64, len(probs))
	var mass float64
	for _, i := range idx[:k] {
		out[i] = probs[i]
		mass += probs[i]
	}
	renormalise(out, mass)
	return out
}

// topP keeps the smallest descending-probability prefix whose
// cumulative mass exceeds p, then renormalises. At least one token is
// always kept, so a tiny p degenerates to greedy selection.
func topP(probs []float64, p float64) []float64 {
	if p >= 1 {
		return probs
	}
	idx := descendingIndices(probs)

	out := make([]float64, len(probs))
	var mass float64
	for _, i := range idx {
		out[i] = probs[i]
		mass += probs[i]
		if mass > p {
			break
		}
	}
	renormalise(out, mass)
	return out
}

func descendingIndices(probs []float64) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	return idx
}

func renormalise(probs []float64, mass float64) {
	if mass <= 0 {
		return
	}
	for i := range probs {
		probs[i] /= mass
	}
}

// draw samples an index from a probability distribution by inverse
// transform. Rounding can leave a sliver of unassigned mass at the end
// of the scan; the last positive-probability index absorbs it.
func draw(rng *rand.Rand, probs []float64) int {
	u := rng.Float64()
	var cum float64
	last := 0
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		last = i
		cum += p
		if u < cum {
			return i
		}
	}
	return last
}
