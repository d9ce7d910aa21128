// Command generate trains an n-gram count model on a whitespace-
// tokenised corpus and generates text from a prompt with a chosen
// decoding strategy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lantern-ml/evalbench/internal/decode"
)

func main() {
	var corpusPath string
	var prompt string
	var strategy string
	var order int
	var maxTokens int
	var temperature float64
	var topK int
	var topP float64
	var seed int64
	var beamWidth int
	var noRepeat int

	flag.StringVar(&corpusPath, "corpus", "", "path to the training corpus (plain text)")
	flag.StringVar(&prompt, "prompt", "", "prompt tokens, whitespace separated")
	flag.StringVar(&strategy, "strategy", "greedy", "decoding strategy: greedy, sample or beam")
	flag.IntVar(&order, "order", 2, "n-gram order of the count model")
	flag.IntVar(&maxTokens, "n", 32, "maximum number of tokens to generate")
	flag.Float64Var(&temperature, "temperature", 1.0, "sampling temperature")
	flag.IntVar(&topK, "topk", 0, "top-k filter, 0 disables")
	flag.Float64Var(&topP, "topp", 1.0, "top-p (nucleus) filter, 1 disables")
	flag.Int64Var(&seed, "seed", 0, "random seed for sampling")
	flag.IntVar(&beamWidth, "beam-width", 3, "beam width for beam search")
	flag.IntVar(&noRepeat, "no-repeat", 0, "forbid repeating n-grams of this size, 0 disables")
	flag.Parse()

	if corpusPath == "" {
		log.Fatal("-corpus is required")
	}
	if prompt == "" {
		log.Fatal("-prompt is required")
	}

	data, err := os.ReadFile(corpusPath)
	if err != nil {
		log.Fatalf("read corpus: %v", err)
	}

	vocab, model, err := trainFromCorpus(string(data), order)
	if err != nil {
		log.Fatalf("train model: %v", err)
	}

	prefix, err := vocab.Encode(strings.Fields(prompt))
	if err != nil {
		log.Fatalf("encode prompt: %v", err)
	}

	tokens, err := generate(context.Background(), model, prefix, policy{
		Strategy:    strategy,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopK:        topK,
		TopP:        topP,
		Seed:        seed,
		BeamWidth:   beamWidth,
		NoRepeat:    noRepeat,
	})
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	fmt.Println(strings.Join(vocab.Decode(tokens), " "))
}

type policy struct {
	Strategy    string
	MaxTokens   int
	Temperature float64
	TopK        int
	TopP        float64
	Seed        int64
	BeamWidth   int
	NoRepeat    int
}

// trainFromCorpus builds the vocabulary from the corpus tokens in first-
// seen order and trains an add-one smoothed count model on it.
func trainFromCorpus(corpus string, order int) (*decode.Vocab, *decode.CountModel, error) {
	words := strings.Fields(corpus)
	if len(words) == 0 {
		return nil, nil, fmt.Errorf("corpus is empty")
	}

	seen := make(map[string]bool, len(words))
	uniq := make([]string, 0, len(words))
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			uniq = append(uniq, w)
		}
	}
	vocab := decode.NewVocab(uniq)

	model, err := decode.NewCountModel(order, vocab.Len())
	if err != nil {
		return nil, nil, err
	}
	ids, err := vocab.Encode(words)
	if err != nil {
		return nil, nil, err
	}
	model.Observe(ids)
	return vocab, model, nil
}

func generate(ctx context.Context, model decode.Model, prefix []int, p policy) ([]int, error) {
	base := decode.Config{MaxTokens: p.MaxTokens, EOS: -1}

	switch p.Strategy {
	case "greedy":
		return decode.Greedy(ctx, model, prefix, base)
	case "sample":
		return decode.Sample(ctx, model, prefix, decode.SampleConfig{
			Config:      base,
			Temperature: p.Temperature,
			TopK:        p.TopK,
			TopP:        p.TopP,
			Seed:        p.Seed,
		})
	case "beam":
		return decode.BeamSearch(ctx, model, prefix, decode.BeamConfig{
			Config:        base,
			Width:         p.BeamWidth,
			NoRepeatNGram: p.NoRepeat,
		})
	default:
		return nil, fmt.Errorf("unknown strategy %q", p.Strategy)
	}
}
