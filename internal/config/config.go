package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	GeminiAPIKey        string
	GeminiBaseURL       string
	GeminiModel         string
	GeminiFallbackModel string

	UploadDir      string
	MaxUploadBytes int64
	FrontendDir    string

	PollInterval time.Duration
	PollMaxWait  time.Duration

	CaptionAnalysis bool

	NATSURL     string
	NATSSubject string
}

// ErrMissingAPIKey prevents the service from starting without the
// provider credential.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable not set")

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8000"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:        mustEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:       mustEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:         mustEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		GeminiFallbackModel: mustEnv("GEMINI_FALLBACK_MODEL", "gemini-1.5-pro"),

		UploadDir:      mustEnv("UPLOAD_DIR", ""),
		MaxUploadBytes: int64(mustEnvInt("MAX_UPLOAD_BYTES", 100*1024*1024)),
		FrontendDir:    mustEnv("FRONTEND_DIR", "./web"),

		PollInterval: time.Duration(mustEnvInt("POLL_INTERVAL_SECONDS", 2)) * time.Second,
		PollMaxWait:  time.Duration(mustEnvInt("POLL_MAX_WAIT_SECONDS", 120)) * time.Second,

		CaptionAnalysis: mustEnvBool("CAPTION_ANALYSIS", false),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "classifications.completed"),
	}
}

// Validate rejects configurations the service must not serve with.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
