// Package decode implements autoregressive decoding policies over a
// black-box next-token model: greedy argmax, beam search with an
// optional no-repeat-n-gram rule, and temperature / top-k / top-p
// sampling. All policies work on plain float64 logits so any model
// behind the Model interface can drive them.
package decode

import (
	"context"
	"fmt"
)

// Model produces unnormalised next-token scores over a fixed vocabulary.
// The returned slice has one logit per vocabulary entry. Implementations
// may be slow (remote inference), so every call takes a context.
type Model interface {
	Logits(ctx context.Context, prefix []int) ([]float64, error)
}

// Config holds the stop conditions shared by all decoding policies.
type Config struct {
	// MaxTokens is the maximum number of tokens to append to the prefix.
	MaxTokens int
	// EOS is the end-of-sequence token id. Generation stops once it is
	// emitted. Set to -1 if the vocabulary has no end marker.
	EOS int
}

func (c Config) validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// Vocab maps between token strings and ids. Ids are dense indices into
// the model's logit vector.
type Vocab struct {
	tokens []string
	ids    map[string]int
}

// NewVocab builds a vocabulary from an ordered token list.
func NewVocab(tokens []string) *Vocab {
	v := &Vocab{
		tokens: append([]string(nil), tokens...),
		ids:    make(map[string]int, len(tokens)),
	}
	for i, tok := range tokens {
		v.ids[tok] = i
	}
	return v
}

// Len returns the vocabulary size.
func (v *Vocab) Len() int { return len(v.tokens) }

// ID returns the id for a token.
func (v *Vocab) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Token returns the token string for an id, or "" if out of range.
func (v *Vocab) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return ""
	}
	return v.tokens[id]
}

// Encode maps token strings to ids, failing on unknown tokens.
func (v *Vocab) Encode(tokens []string) ([]int, error) {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		id, ok := v.ids[tok]
		if !ok {
			return nil, fmt.Errorf("unknown token %q", tok)
		}
		ids[i] = id
	}
	return ids, nil
}

// Decode maps ids back to token strings.
func (v *Vocab) Decode(ids []int) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = v.Token(id)
	}
	return tokens
}
