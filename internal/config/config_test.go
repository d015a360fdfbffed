package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_FALLBACK_MODEL", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("POLL_MAX_WAIT_SECONDS", "")
	t.Setenv("CAPTION_ANALYSIS", "")
	t.Setenv("NATS_URL", "")

	cfg := Load()

	if cfg.APIPort != "8000" {
		t.Fatalf("expected default port 8000, got %s", cfg.APIPort)
	}
	if cfg.GeminiModel != "gemini-2.0-flash-exp" {
		t.Fatalf("unexpected default model %s", cfg.GeminiModel)
	}
	if cfg.GeminiFallbackModel != "gemini-1.5-pro" {
		t.Fatalf("unexpected default fallback model %s", cfg.GeminiFallbackModel)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("expected 2s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.PollMaxWait != 120*time.Second {
		t.Fatalf("expected 120s poll budget, got %s", cfg.PollMaxWait)
	}
	if cfg.CaptionAnalysis {
		t.Fatalf("caption analysis must default to off")
	}
	if cfg.NATSURL != "" {
		t.Fatalf("event publishing must default to disabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("POLL_INTERVAL_SECONDS", "5")
	t.Setenv("CAPTION_ANALYSIS", "true")

	cfg := Load()
	if cfg.APIPort != "9000" {
		t.Fatalf("expected port override, got %s", cfg.APIPort)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("expected 5s poll interval, got %s", cfg.PollInterval)
	}
	if !cfg.CaptionAnalysis {
		t.Fatalf("expected caption analysis enabled")
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	cfg.GeminiAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
