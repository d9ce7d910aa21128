package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGettersUseDefaultsWhenUnset(t *testing.T) {
	cfg := EmptyConfig()

	if cfg.GetIoUThreshold() != 0.5 {
		t.Errorf("GetIoUThreshold() = %f, want 0.5", cfg.GetIoUThreshold())
	}
	if cfg.GetNMSThreshold() != 0.45 {
		t.Errorf("GetNMSThreshold() = %f, want 0.45", cfg.GetNMSThreshold())
	}
	if cfg.GetScoreThreshold() != 0 {
		t.Errorf("GetScoreThreshold() = %f, want 0", cfg.GetScoreThreshold())
	}
	if cfg.GetMaxTokens() != 64 {
		t.Errorf("GetMaxTokens() = %d, want 64", cfg.GetMaxTokens())
	}
	if cfg.GetTemperature() != 1.0 {
		t.Errorf("GetTemperature() = %f, want 1.0", cfg.GetTemperature())
	}
	if cfg.GetTopK() != 0 {
		t.Errorf("GetTopK() = %d, want 0", cfg.GetTopK())
	}
	if cfg.GetTopP() != 1.0 {
		t.Errorf("GetTopP() = %f, want 1.0", cfg.GetTopP())
	}
	if cfg.GetBeamWidth() != 3 {
		t.Errorf("GetBeamWidth() = %d, want 3", cfg.GetBeamWidth())
	}
	if cfg.GetNoRepeatNGram() != 0 {
		t.Errorf("GetNoRepeatNGram() = %d, want 0", cfg.GetNoRepeatNGram())
	}
	if cfg.GetModelURL() != "http://localhost:9000" {
		t.Errorf("GetModelURL() = %q, want http://localhost:9000", cfg.GetModelURL())
	}
}

func TestLoadPartialConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test_config.json")
	testJSON := `{
  "iou_threshold": 0.75,
  "beam_width": 5
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GetIoUThreshold() != 0.75 {
		t.Errorf("GetIoUThreshold() = %f, want 0.75", cfg.GetIoUThreshold())
	}
	if cfg.GetBeamWidth() != 5 {
		t.Errorf("GetBeamWidth() = %d, want 5", cfg.GetBeamWidth())
	}
	// Omitted fields keep defaults.
	if cfg.GetNMSThreshold() != 0.45 {
		t.Errorf("GetNMSThreshold() = %f, want default 0.45", cfg.GetNMSThreshold())
	}
	if cfg.Temperature != nil {
		t.Errorf("Temperature = %v, want nil for omitted field", *cfg.Temperature)
	}
}

func TestLoadDefaultsFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", DefaultConfigPath, err)
	}
	if cfg.IoUThreshold == nil || *cfg.IoUThreshold != 0.5 {
		t.Errorf("defaults file iou_threshold = %v, want 0.5", cfg.IoUThreshold)
	}
	if cfg.ModelURL == nil || *cfg.ModelURL != "http://localhost:9000" {
		t.Errorf("defaults file model_url = %v, want http://localhost:9000", cfg.ModelURL)
	}
}

func TestLoadRejectsNonJSON(t *testing.T) {
	if _, err := Load("config.yaml"); err == nil {
		t.Error("expected error for non-json extension")
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *EvalConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     EmptyConfig(),
			wantErr: false,
		},
		{
			name:    "valid thresholds",
			cfg:     &EvalConfig{IoUThreshold: ptrFloat64(0.5), NMSThreshold: ptrFloat64(0.45)},
			wantErr: false,
		},
		{
			name:    "iou_threshold above one",
			cfg:     &EvalConfig{IoUThreshold: ptrFloat64(1.5)},
			wantErr: true,
		},
		{
			name:    "negative nms_threshold",
			cfg:     &EvalConfig{NMSThreshold: ptrFloat64(-0.1)},
			wantErr: true,
		},
		{
			name:    "zero temperature",
			cfg:     &EvalConfig{Temperature: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "zero top_p",
			cfg:     &EvalConfig{TopP: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "top_p of one is valid",
			cfg:     &EvalConfig{TopP: ptrFloat64(1)},
			wantErr: false,
		},
		{
			name:    "zero beam_width",
			cfg:     &EvalConfig{BeamWidth: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative max_tokens",
			cfg:     &EvalConfig{MaxTokens: ptrInt(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &EvalConfig{
		IoUThreshold: ptrFloat64(0.5),
		BeamWidth:    ptrInt(3),
		ModelURL:     ptrString("http://localhost:9000"),
	}
	overlay := &EvalConfig{
		IoUThreshold: ptrFloat64(0.75),
		TopK:         ptrInt(40),
	}

	merged := base.Merge(overlay)

	if merged.GetIoUThreshold() != 0.75 {
		t.Errorf("merged iou_threshold = %f, want overlay value 0.75", merged.GetIoUThreshold())
	}
	if merged.GetTopK() != 40 {
		t.Errorf("merged top_k = %d, want overlay value 40", merged.GetTopK())
	}
	if merged.GetBeamWidth() != 3 {
		t.Errorf("merged beam_width = %d, want base value 3", merged.GetBeamWidth())
	}
	if merged.GetModelURL() != "http://localhost:9000" {
		t.Errorf("merged model_url = %q, want base value", merged.GetModelURL())
	}

	// Base is untouched.
	if *base.IoUThreshold != 0.5 {
		t.Errorf("base iou_threshold mutated to %f", *base.IoUThreshold)
	}

	if got := base.Merge(nil); got.GetIoUThreshold() != 0.5 {
		t.Errorf("Merge(nil) iou_threshold = %f, want 0.5", got.GetIoUThreshold())
	}
}
