package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, shared by the exam client and
// the local stub backend.
type Config struct {
	// Client settings.
	BackendURL     string
	Username       string
	Password       string
	RequestTimeout time.Duration
	// ExamID is the default exam opened by the client when no argument is
	// given on the command line.
	ExamID string

	LogLevel  string
	LogFormat string

	// Stub backend settings.
	ServerPort string
	GinMode    string
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
	// AllowedOrigins controls HTTP CORS for the stub backend.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
	// FixturePath points to a JSON exam fixture loaded at stub startup.
	// Empty means the built-in sample exams are seeded.
	FixturePath string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8080"),
		Username:       getEnv("EXAM_USERNAME", "student"),
		Password:       getEnv("EXAM_PASSWORD", "student_secret"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		ExamID:         getEnv("EXAM_ID", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		JWTSecret:      getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:      time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		BcryptCost:     getEnvInt("BCRYPT_COST", 6),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		FixturePath:    getEnv("EXAM_FIXTURE", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
