package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lantern-ml/evalbench/internal/decode"
	"github.com/lantern-ml/evalbench/internal/httputil"
)

type decodeRequest struct {
	Prefix   []int  `json:"prefix"`
	Strategy string `json:"strategy"`

	// Optional overrides; tuning config defaults apply when omitted.
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	EOS           *int     `json:"eos,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
	BeamWidth     *int     `json:"beam_width,omitempty"`
	NoRepeatNGram *int     `json:"no_repeat_ngram,omitempty"`
}

type decodeResponse struct {
	Strategy string `json:"strategy"`
	Tokens   []int  `json:"tokens"`
}

// handleDecode generates a token sequence from the configured model
// backend using the requested decoding strategy.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.model == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no model backend configured")
		return
	}

	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Prefix) == 0 {
		httputil.BadRequest(w, "prefix is required")
		return
	}

	base := decode.Config{
		MaxTokens: s.cfg.GetMaxTokens(),
		EOS:       -1,
	}
	if req.MaxTokens != nil {
		base.MaxTokens = *req.MaxTokens
	}
	if req.EOS != nil {
		base.EOS = *req.EOS
	}

	var (
		tokens []int
		err    error
	)
	switch req.Strategy {
	case "", "greedy":
		req.Strategy = "greedy"
		tokens, err = decode.Greedy(r.Context(), s.model, req.Prefix, base)
	case "sample":
		cfg := decode.SampleConfig{
			Config:      base,
			Temperature: s.cfg.GetTemperature(),
			TopK:        s.cfg.GetTopK(),
			TopP:        s.cfg.GetTopP(),
		}
		if req.Temperature != nil {
			cfg.Temperature = *req.Temperature
		}
		if req.TopK != nil {
			cfg.TopK = *req.TopK
		}
		if req.TopP != nil {
			cfg.TopP = *req.TopP
		}
		if req.Seed != nil {
			cfg.Seed = *req.Seed
		}
		tokens, err = decode.Sample(r.Context(), s.model, req.Prefix, cfg)
	case "beam":
		cfg := decode.BeamConfig{
			Config:        base,
			Width:         s.cfg.GetBeamWidth(),
			NoRepeatNGram: s.cfg.GetNoRepeatNGram(),
		}
		if req.BeamWidth != nil {
			cfg.Width = *req.BeamWidth
		}
		if req.NoRepeatNGram != nil {
			cfg.NoRepeatNGram = *req.NoRepeatNGram
		}
		tokens, err = decode.BeamSearch(r.Context(), s.model, req.Prefix, cfg)
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown strategy %q", req.Strategy))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("decoding failed: %v", err))
		return
	}

	httputil.WriteJSONOK(w, decodeResponse{Strategy: req.Strategy, Tokens: tokens})
}
