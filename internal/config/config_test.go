package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelfmark/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_roots = ["` + dir + `"]

[verification]
confidence_threshold = 60
enabled_layers = ["lookup"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verification.ConfidenceThreshold != 60 {
		t.Fatalf("expected override threshold 60, got %d", cfg.Verification.ConfidenceThreshold)
	}
	if cfg.Workflow.BatchSize != 5 {
		t.Fatalf("expected default batch size, got %d", cfg.Workflow.BatchSize)
	}
	if cfg.LayerEnabled("oracle") {
		t.Fatal("oracle layer should be disabled by override")
	}
	if !cfg.LayerEnabled("lookup") {
		t.Fatal("lookup layer should be enabled")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Naming.Format = "flat"
	cfg.Verification.ConfidenceThreshold = 150
	cfg.Workflow.BatchSize = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"naming.format", "confidence_threshold", "batch_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestValidateRequiresOracleKeyWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing oracle key to fail validation")
	}
	cfg.Oracle.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresTranscriberForAudioLayer(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.APIKey = "sk-test"
	cfg.Verification.EnabledLayers = []string{"lookup", "oracle", "audio"}
	cfg.Transcription.Command = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "transcription.command") {
		t.Fatalf("expected missing transcriber to fail validation, got %v", err)
	}

	cfg.Transcription.Command = "whisperx"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Verification.EnabledLayers = []string{"lookup"}
	cfg.Transcription.Command = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("transcriber is optional without the audio layer, got %v", err)
	}
}
