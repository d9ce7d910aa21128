package decode

import "context"

// Greedy extends prefix one argmax token at a time until cfg.MaxTokens
// tokens have been appended or the model emits cfg.EOS. It returns the
// full sequence including the prefix; an emitted EOS token is included.
func Greedy(ctx context.Context, m Model, prefix []int, cfg Config) ([]int, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	seq := append([]int(nil), prefix...)
	for i := 0; i < cfg.MaxTokens; i++ {
		logits, err := m.Logits(ctx, seq)
		if err != nil {
			return nil, err
		}
		next := ArgMax(logits)
		seq = append(seq, next)
		if next == cfg.EOS {
			break
		}
	}
	return seq, nil
}
