package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WARROOM_"

type Config struct {
	// Remote backend. Empty RemoteURL selects the device-only backend.
	RemoteURL    string `toml:"remote_url" env:"REMOTE_URL"`       // WARROOM_REMOTE_URL (nats://, tls://, postgres://)
	RemoteToken  string `toml:"remote_token" env:"REMOTE_TOKEN"`   // WARROOM_REMOTE_TOKEN (optional NATS token)
	RemoteBucket string `toml:"remote_bucket" env:"REMOTE_BUCKET"` // WARROOM_REMOTE_BUCKET (default "warroom")

	DevicePath string `toml:"device_path" env:"DEVICE_PATH"` // WARROOM_DEVICE_PATH (default $XDG_STATE_HOME/warroom/device.db)
	HTTPAddr   string `toml:"http_addr" env:"HTTP_ADDR"`     // WARROOM_HTTP_ADDR (default ":8080")
	GRPCAddr   string `toml:"grpc_addr" env:"GRPC_ADDR"`     // WARROOM_GRPC_ADDR (default ":9090")
	LogLevel   string `toml:"log_level" env:"LOG_LEVEL"`     // WARROOM_LOG_LEVEL (default "info")
	APIToken   string `toml:"api_token" env:"API_TOKEN"`     // WARROOM_API_TOKEN (bearer token for serve; empty = open)
	EventsURL  string `toml:"events_url" env:"EVENTS_URL"`   // WARROOM_EVENTS_URL (NATS URL for record events; empty = off)

	// Sync settings
	SyncInterval   time.Duration `toml:"sync_interval" env:"SYNC_INTERVAL"`       // WARROOM_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        `toml:"sync_s3_bucket" env:"SYNC_S3_BUCKET"`     // WARROOM_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        `toml:"sync_s3_endpoint" env:"SYNC_S3_ENDPOINT"` // WARROOM_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        `toml:"sync_s3_region" env:"SYNC_S3_REGION"`     // WARROOM_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        `toml:"sync_s3_key" env:"SYNC_S3_KEY"`           // WARROOM_SYNC_S3_KEY (default "warroom/backup.jsonl")
	SyncGitRepo    string        `toml:"sync_git_repo" env:"SYNC_GIT_REPO"`       // WARROOM_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        `toml:"sync_git_file" env:"SYNC_GIT_FILE"`       // WARROOM_SYNC_GIT_FILE (default "warroom.jsonl")
	SyncGitBranch  string        `toml:"sync_git_branch" env:"SYNC_GIT_BRANCH"`   // WARROOM_SYNC_GIT_BRANCH (default "main")
}

// RemoteEnabled reports whether the shared backend is configured. It is
// read once at startup to pick the record store backend.
func (c *Config) RemoteEnabled() bool {
	return strings.TrimSpace(c.RemoteURL) != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RemoteBucket:  "warroom",
		DevicePath:    defaultDevicePath(),
		HTTPAddr:      ":8080",
		GRPCAddr:      ":9090",
		LogLevel:      "info",
		SyncInterval:  3 * time.Minute,
		SyncS3Region:  "us-east-1",
		SyncS3Key:     "warroom/backup.jsonl",
		SyncGitFile:   "warroom.jsonl",
		SyncGitBranch: "main",
	}
}

// Load layers defaults, the config file and WARROOM_* environment variables,
// later layers winning.
func Load() (*Config, error) {
	c := Default()

	path, explicit := FilePath()
	if path != "" {
		_, err := toml.DecodeFile(path, c)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if c.SyncInterval < 0 {
		return nil, fmt.Errorf("%sSYNC_INTERVAL: must not be negative", EnvPrefix)
	}
	return c, nil
}

// FilePath returns the config file location and whether it was set
// explicitly through WARROOM_CONFIG.
func FilePath() (string, bool) {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "warroom", "config.toml"), false
}

func defaultDevicePath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "warroom", "device.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "warroom-device.db"
	}
	return filepath.Join(home, ".local", "state", "warroom", "device.db")
}
