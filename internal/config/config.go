package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBDSN    string
	RedisDSN string
	HTTPAddr string
	LogLevel string

	// GitHub API access
	GitHubBaseURL string
	GitHubToken   string // raw secret kept in-memory only; never log this

	// HTTP client timeouts for the GitHub API
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	CORSOrigins []string

	// S3-compatible archive target (optional)
	ArchiveEndpoint  string
	ArchiveBucket    string
	ArchiveRegion    string
	ArchivePublicURL string
}

func Load() (Config, error) {
	cfg := Config{
		DBDSN:            os.Getenv("DB_DSN"),
		RedisDSN:         getenvDefault("REDIS_DSN", "redis://localhost:6379/0"),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		GitHubBaseURL:    getenvDefault("GITHUB_API_BASE_URL", "https://api.github.com"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		ArchiveEndpoint:  os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveBucket:    os.Getenv("ARCHIVE_BUCKET"),
		ArchiveRegion:    getenvDefault("ARCHIVE_REGION", "auto"),
		ArchivePublicURL: os.Getenv("ARCHIVE_PUBLIC_URL"),
	}

	var err error
	if cfg.ConnectTimeout, err = getenvDuration("CONNECT_TIMEOUT_MS", 5*time.Second); err != nil {
		return Config{}, errors.New("CONNECT_TIMEOUT_MS must be an integer (milliseconds)")
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT_MS", 10*time.Second); err != nil {
		return Config{}, errors.New("REQUEST_TIMEOUT_MS must be an integer (milliseconds)")
	}

	if strings.TrimSpace(cfg.GitHubBaseURL) == "" {
		return Config{}, errors.New("GITHUB_API_BASE_URL must not be empty")
	}

	// parse CORS origins
	corsOrigins := getenvDefault("CORS_ORIGINS", "")
	if corsOrigins != "" {
		cfg.CORSOrigins = strings.Split(corsOrigins, ",")
		for i := range cfg.CORSOrigins {
			cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"} // default
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0, errors.New("invalid duration")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
