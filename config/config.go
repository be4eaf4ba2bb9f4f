// Package config reads process-level configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the Lambda entrypoints need to wire their
// dependencies.
type Config struct {
	TableName  string
	BucketName string
	Region     string
	CDNDomain  string
	LogLevel   slog.Level
}

// Load reads configuration from the environment. A .env file is loaded
// first when present, for local runs; in Lambda there is none.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TableName:  os.Getenv("TABLE_NAME"),
		BucketName: os.Getenv("BUCKET_NAME"),
		Region:     os.Getenv("REGION"),
		CDNDomain:  os.Getenv("CDN_DOMAIN"),
		LogLevel:   parseLogLevel(os.Getenv("LOG_LEVEL")),
	}

	if cfg.TableName == "" {
		return Config{}, fmt.Errorf("config: TABLE_NAME is required")
	}
	if cfg.Region == "" {
		cfg.Region = "eu-west-1"
	}
	if cfg.CDNDomain == "" {
		cfg.CDNDomain = "d2c2kb9p4hnpz.cloudfront.net"
	}
	return cfg, nil
}

// NewLogger builds the process logger. Lambda forwards stdout lines to
// CloudWatch, so records are emitted as JSON.
func (c Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.LogLevel}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
