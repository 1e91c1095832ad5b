package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Google credentials file; empty means application default credentials.
	CredentialsFile string

	// Synthesis voice
	LanguageCode string
	VoiceGender  string

	// Sentence reconstruction
	SentenceDelimiter string

	// Chunking
	ChunkMaxChars int

	// Task runner
	Concurrency int
	MaxAttempts int

	// Merge
	MaxCombine int

	// OCR
	OCRBatchSize int
}

func Load() Config {
	// A local .env is optional; ignore when absent.
	_ = godotenv.Load()

	cfg := Config{
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		LanguageCode: envOr("LANGUAGE_CODE", "ja-JP"),
		VoiceGender:  envOr("VOICE_GENDER", "female"),

		SentenceDelimiter: envOr("SENTENCE_DELIMITER", "。"),

		ChunkMaxChars: envInt("CHUNK_MAX_CHARS", 4500),

		Concurrency: envInt("CONCURRENCY", 5),
		MaxAttempts: envInt("MAX_ATTEMPTS", 3),

		MaxCombine: envInt("MAX_COMBINE", 32),

		OCRBatchSize: envInt("OCR_BATCH_SIZE", 20),
	}

	if cfg.ChunkMaxChars <= 0 {
		cfg.ChunkMaxChars = 4500
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxCombine <= 1 {
		cfg.MaxCombine = 32
	}
	if cfg.OCRBatchSize <= 0 {
		cfg.OCRBatchSize = 20
	}

	return cfg
}

func (c Config) Validate() error {
	if c.SentenceDelimiter == "" {
		return fmt.Errorf("SENTENCE_DELIMITER must not be empty")
	}
	if c.LanguageCode == "" {
		return fmt.Errorf("LANGUAGE_CODE must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
