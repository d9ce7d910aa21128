package decode

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// BeamConfig controls beam search.
type BeamConfig struct {
	Config
	// Width is the number of partial sequences retained per step.
	Width int
	// NoRepeatNGram, when positive, forbids any continuation that
	// would recreate an n-gram already present in the candidate
	// sequence by zeroing its probability before ranking.
	NoRepeatNGram int
}

func (c BeamConfig) validate() error {
	if err := c.Config.validate(); err != nil {
		return err
	}
	if c.Width <= 0 {
		return fmt.Errorf("beam width must be positive, got %d", c.Width)
	}
	if c.NoRepeatNGram < 0 {
		return fmt.Errorf("no-repeat n-gram size must be non-negative, got %d", c.NoRepeatNGram)
	}
	return nil
}

type beam struct {
	seq      []int
	logProb  float64
	finished bool
}

// BeamSearch keeps the cfg.Width partial sequences with the highest
// cumulative log-probability, expanding each by every vocabulary token
// per step. A beam retires when it emits cfg.EOS; search stops when all
// beams have retired or cfg.MaxTokens tokens have been appended. The
// highest-probability finished sequence (including the prefix) wins.
func BeamSearch(ctx context.Context, m Model, prefix []int, cfg BeamConfig) ([]int, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	beams := []beam{{seq: append([]int(nil), prefix...)}}
	for step := 0; step < cfg.MaxTokens; step++ {
		var candidates []beam
		active := false
		for _, b := range beams {
			if b.finished {
				candidates = append(candidates, b)
				continue
			}
			active = true

			logits, err := m.Logits(ctx, b.seq)
			if err != nil {
				return nil, err
			}
			logProbs := LogSoftmax(logits)
			banned := bannedTokens(b.seq, cfg.NoRepeatNGram)

			for tok, lp := range logProbs {
				if banned[tok] || math.IsInf(lp, -1) {
					continue
				}
				seq := make([]int, len(b.seq), len(b.seq)+1)
				copy(seq, b.seq)
				candidates = append(candidates, beam{
					seq:      append(seq, tok),
					logProb:  b.logProb + lp,
					finished: tok == cfg.EOS,
				})
			}
		}
		if !active {
			break
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].logProb > candidates[j].logProb
		})
		if len(candidates) > cfg.Width {
			candidates = candidates[:cfg.Width]
		}
		if len(candidates) == 0 {
			// Every continuation was banned; fall back to what we have.
			break
		}
		beams = candidates
	}

	best := beams[0]
	for _, b := range beams[1:] {
		if b.logProb > best.logProb {
			best = b
		}
	}
	return best.seq, nil
}

// bannedTokens returns the set of next tokens that would recreate an
// n-gram already present in seq: for n-gram size n, any token t such
// that the last n-1 tokens of seq followed by t appears in seq.
func bannedTokens(seq []int, n int) map[int]bool {
	if n <= 0 || len(seq) < n-1 {
		return nil
	}
	banned := make(map[int]bool)
	tail := seq[len(seq)-(n-1):]
	for i := 0; i+n <= len(seq); i++ {
		if equalInts(seq[i:i+n-1], tail) {
			banned[seq[i+n-1]] = true
		}
	}
	return banned
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
