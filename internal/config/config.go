// Package config loads the evaluation tuning file. All fields are
// pointer-optional so a partial JSON overlay leaves the rest at their
// defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/evalbench.defaults.json"

// EvalConfig is the root tuning configuration. The schema matches the
// /api/params endpoint so the same JSON works for startup configuration
// and runtime updates.
type EvalConfig struct {
	// Detection evaluation params
	IoUThreshold   *float64 `json:"iou_threshold,omitempty"`
	NMSThreshold   *float64 `json:"nms_threshold,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`

	// Decoding defaults
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	BeamWidth     *int     `json:"beam_width,omitempty"`
	NoRepeatNGram *int     `json:"no_repeat_ngram,omitempty"`

	// Model inference params
	ModelURL *string `json:"model_url,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyConfig returns an EvalConfig with all fields set to nil.
func EmptyConfig() *EvalConfig {
	return &EvalConfig{}
}

// Load reads an EvalConfig from a JSON file. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func Load(path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Merge returns a copy of c with every non-nil field of overlay applied
// on top. Neither input is modified.
func (c *EvalConfig) Merge(overlay *EvalConfig) *EvalConfig {
	out := *c
	if overlay == nil {
		return &out
	}
	if overlay.IoUThreshold != nil {
		out.IoUThreshold = overlay.IoUThreshold
	}
	if overlay.NMSThreshold != nil {
		out.NMSThreshold = overlay.NMSThreshold
	}
	if overlay.ScoreThreshold != nil {
		out.ScoreThreshold = overlay.ScoreThreshold
	}
	if overlay.MaxTokens != nil {
		out.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != nil {
		out.Temperature = overlay.Temperature
	}
	if overlay.TopK != nil {
		out.TopK = overlay.TopK
	}
	if overlay.TopP != nil {
		out.TopP = overlay.TopP
	}
	if overlay.BeamWidth != nil {
		out.BeamWidth = overlay.BeamWidth
	}
	if overlay.NoRepeatNGram != nil {
		out.NoRepeatNGram = overlay.NoRepeatNGram
	}
	if overlay.ModelURL != nil {
		out.ModelURL = overlay.ModelURL
	}
	return &out
}

// Validate checks that the configuration values are valid.
func (c *EvalConfig) Validate() error {
	if c.IoUThreshold != nil {
		if *c.IoUThreshold < 0 || *c.IoUThreshold > 1 {
			return fmt.Errorf("iou_threshold must be between 0 and 1, got %f", *c.IoUThreshold)
		}
	}
	if c.NMSThreshold != nil {
		if *c.NMSThreshold < 0 || *c.NMSThreshold > 1 {
			return fmt.Errorf("nms_threshold must be between 0 and 1, got %f", *c.NMSThreshold)
		}
	}
	if c.ScoreThreshold != nil {
		if *c.ScoreThreshold < 0 || *c.ScoreThreshold > 1 {
			return fmt.Errorf("score_threshold must be between 0 and 1, got %f", *c.ScoreThreshold)
		}
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", *c.MaxTokens)
	}
	if c.Temperature != nil && *c.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive, got %f", *c.Temperature)
	}
	if c.TopK != nil && *c.TopK < 0 {
		return fmt.Errorf("top_k must be non-negative, got %d", *c.TopK)
	}
	if c.TopP != nil {
		if *c.TopP <= 0 || *c.TopP > 1 {
			return fmt.Errorf("top_p must be in (0, 1], got %f", *c.TopP)
		}
	}
	if c.BeamWidth != nil && *c.BeamWidth <= 0 {
		return fmt.Errorf("beam_width must be positive, got %d", *c.BeamWidth)
	}
	if c.NoRepeatNGram != nil && *c.NoRepeatNGram < 0 {
		return fmt.Errorf("no_repeat_ngram must be non-negative, got %d", *c.NoRepeatNGram)
	}
	return nil
}

// GetIoUThreshold returns the iou_threshold value or the default.
func (c *EvalConfig) GetIoUThreshold() float64 {
	if c.IoUThreshold == nil {
		return 0.5
	}
	return *c.IoUThreshold
}

// GetNMSThreshold returns the nms_threshold value or the default.
func (c *EvalConfig) GetNMSThreshold() float64 {
	if c.NMSThreshold == nil {
		return 0.45
	}
	return *c.NMSThreshold
}

// GetScoreThreshold returns the score_threshold value or the default.
func (c *EvalConfig) GetScoreThreshold() float64 {
	if c.ScoreThreshold == nil {
		return 0
	}
	return *c.ScoreThreshold
}

// GetMaxTokens returns the max_tokens value or the default.
func (c *EvalConfig) GetMaxTokens() int {
	if c.MaxTokens == nil {
		return 64
	}
	return *c.MaxTokens
}

// GetTemperature returns the temperature value or the default.
func (c *EvalConfig) GetTemperature() float64 {
	if c.Temperature == nil {
		return 1.0
	}
	return *c.Temperature
}

// GetTopK returns the top_k value or the default. Zero disables top-k
// filtering.
func (c *EvalConfig) GetTopK() int {
	if c.TopK == nil {
		return 0
	}
	return *c.TopK
}

// GetTopP returns the top_p value or the default. One disables top-p
// filtering.
func (c *EvalConfig) GetTopP() float64 {
	if c.TopP == nil {
		return 1.0
	}
	return *c.TopP
}

// GetBeamWidth returns the beam_width value or the default.
func (c *EvalConfig) GetBeamWidth() int {
	if c.BeamWidth == nil {
		return 3
	}
	return *c.BeamWidth
}

// GetNoRepeatNGram returns the no_repeat_ngram value or the default.
// Zero disables the constraint.
func (c *EvalConfig) GetNoRepeatNGram() int {
	if c.NoRepeatNGram == nil {
		return 0
	}
	return *c.NoRepeatNGram
}

// GetModelURL returns the model_url value or the default.
func (c *EvalConfig) GetModelURL() string {
	if c.ModelURL == nil {
		return "http://localhost:9000"
	}
	return *c.ModelURL
}
