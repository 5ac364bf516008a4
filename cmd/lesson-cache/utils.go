package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-lesson-cache/internal/interfaces"
)

// GetRedisURL returns the redis URL with the following priority:
// 1. REDIS_URL environment variable
// 2. LESSON_CACHE_REDIS_URL_FILE file content
// 3. The configured value
func GetRedisURL(configured string, logger *zap.Logger) string {
	// Priority 1: Environment variable
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		logger.Debug("Using redis URL from environment variable")
		return redisURL
	}

	// Priority 2: Configurable connection file path
	connectionFile := os.Getenv("LESSON_CACHE_REDIS_URL_FILE")
	if connectionFile != "" {
		if content, err := os.ReadFile(connectionFile); err == nil {
			redisURL := strings.TrimSpace(string(content))
			if len(redisURL) > 0 {
				logger.Debug("Using redis URL from connection file", zap.String("file", connectionFile))
				return redisURL
			}
		} else {
			logger.Debug("Redis connection file not found or empty", zap.String("file", connectionFile))
		}
	}

	// Priority 3: Configured value
	return configured
}

// newUpstreamFetcher builds the HTTP client the agent fetches through.
func newUpstreamFetcher(timeout time.Duration) interfaces.Fetcher {
	return &http.Client{Timeout: timeout}
}
