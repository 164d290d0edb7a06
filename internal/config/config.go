package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/hoodly/hoodly-go/pkg/logger"
)

type Config struct {
	// ServerURL is the base URL of the Hoodly server API.
	ServerURL string
	// SocketPath is the Socket.IO endpoint path on the server.
	SocketPath string

	// HoodlyHome is the directory where the client stores local state.
	HoodlyHome string
	// TokenFile is the path to the persisted credential token.
	TokenFile string

	// RequestTimeout bounds every REST call.
	RequestTimeout time.Duration
	// ConnectTimeout is the absolute deadline for one socket connect attempt.
	ConnectTimeout time.Duration
	// ReconnectAttempts caps automatic reconnection before giving up.
	ReconnectAttempts int
	// ReconnectBaseDelay is the first reconnection delay; it doubles per
	// attempt up to ReconnectMaxDelay.
	ReconnectBaseDelay time.Duration
	// ReconnectMaxDelay caps the reconnection backoff.
	ReconnectMaxDelay time.Duration

	// Debug enables verbose logging.
	Debug bool
}

// Load loads configuration from .env (if present), environment, and defaults.
func Load() (*Config, error) {
	// .env is optional; environment variables win over file values.
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	hoodlyHome := os.Getenv("HOODLY_HOME_DIR")
	if hoodlyHome == "" {
		hoodlyHome = filepath.Join(homeDir, ".hoodly")
	}
	if err := os.MkdirAll(hoodlyHome, 0700); err != nil {
		return nil, fmt.Errorf("failed to create hoodly home: %w", err)
	}

	serverURL := os.Getenv("HOODLY_SERVER_URL")
	if serverURL == "" {
		serverURL = "https://api.hoodly.app"
	}

	debug := envBool("HOODLY_DEBUG") || envBool("DEBUG")
	if raw := os.Getenv("HOODLY_LOG_LEVEL"); raw != "" {
		level, err := logger.ParseLevel(raw)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	} else if debug {
		logger.SetLevel(logger.LevelDebug)
	}

	return &Config{
		ServerURL:          serverURL,
		SocketPath:         "/socket.io",
		HoodlyHome:         hoodlyHome,
		TokenFile:          filepath.Join(hoodlyHome, "credentials"),
		RequestTimeout:     10 * time.Second,
		ConnectTimeout:     20 * time.Second,
		ReconnectAttempts:  10,
		ReconnectBaseDelay: time.Second,
		ReconnectMaxDelay:  10 * time.Second,
		Debug:              debug,
	}, nil
}

func envBool(key string) bool {
	val := os.Getenv(key)
	return val == "true" || val == "1"
}
