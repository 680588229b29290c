package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; each test clears them first.
var allEnvVars = []string{
	"WARROOM_REMOTE_URL", "WARROOM_REMOTE_TOKEN", "WARROOM_REMOTE_BUCKET",
	"WARROOM_DEVICE_PATH", "WARROOM_HTTP_ADDR", "WARROOM_GRPC_ADDR", "WARROOM_LOG_LEVEL",
	"WARROOM_SYNC_INTERVAL", "WARROOM_SYNC_S3_BUCKET", "WARROOM_SYNC_S3_ENDPOINT",
	"WARROOM_SYNC_S3_REGION", "WARROOM_SYNC_S3_KEY", "WARROOM_SYNC_GIT_REPO",
	"WARROOM_SYNC_GIT_FILE", "WARROOM_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
	// Point the config file somewhere empty so a developer's file is never read.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WARROOM_CONFIG", "")
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantRemote   bool
		wantGRPCAddr string
		wantHTTPAddr string
	}{
		{
			name:         "DefaultsAreLocal",
			env:          map[string]string{},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
		},
		{
			name: "RemoteNATS",
			env: map[string]string{
				"WARROOM_REMOTE_URL": "nats://localhost:4222",
				"WARROOM_GRPC_ADDR":  ":5050",
				"WARROOM_HTTP_ADDR":  ":3000",
			},
			wantRemote:   true,
			wantGRPCAddr: ":5050",
			wantHTTPAddr: ":3000",
		},
		{
			name:         "BlankRemoteStaysLocal",
			env:          map[string]string{"WARROOM_REMOTE_URL": "   "},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.RemoteEnabled() != tc.wantRemote {
				t.Errorf("RemoteEnabled() = %v, want %v", cfg.RemoteEnabled(), tc.wantRemote)
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr {
				t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, tc.wantGRPCAddr)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
		})
	}
}

func TestLoadSyncDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 3*time.Minute {
		t.Errorf("SyncInterval = %v, want 3m", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region = %q, want %q", cfg.SyncS3Region, "us-east-1")
	}
	if cfg.SyncS3Key != "warroom/backup.jsonl" {
		t.Errorf("SyncS3Key = %q, want %q", cfg.SyncS3Key, "warroom/backup.jsonl")
	}
	if cfg.SyncGitFile != "warroom.jsonl" {
		t.Errorf("SyncGitFile = %q, want %q", cfg.SyncGitFile, "warroom.jsonl")
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q, want %q", cfg.SyncGitBranch, "main")
	}
	if cfg.RemoteBucket != "warroom" {
		t.Errorf("RemoteBucket = %q, want warroom", cfg.RemoteBucket)
	}
}

func TestLoadSyncCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARROOM_SYNC_INTERVAL", "10m")
	t.Setenv("WARROOM_SYNC_S3_BUCKET", "my-bucket")
	t.Setenv("WARROOM_SYNC_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("WARROOM_SYNC_GIT_REPO", "/tmp/repo")
	t.Setenv("WARROOM_SYNC_GIT_BRANCH", "backup")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v, want 10m", cfg.SyncInterval)
	}
	if cfg.SyncS3Bucket != "my-bucket" {
		t.Errorf("SyncS3Bucket = %q", cfg.SyncS3Bucket)
	}
	if cfg.SyncS3Endpoint != "http://minio:9000" {
		t.Errorf("SyncS3Endpoint = %q", cfg.SyncS3Endpoint)
	}
	if cfg.SyncGitRepo != "/tmp/repo" {
		t.Errorf("SyncGitRepo = %q", cfg.SyncGitRepo)
	}
	if cfg.SyncGitBranch != "backup" {
		t.Errorf("SyncGitBranch = %q", cfg.SyncGitBranch)
	}
}

func TestLoadSyncInvalidInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARROOM_SYNC_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid interval")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
remote_url = "postgres://db:5432/warroom"
http_addr = ":7000"
sync_interval = "1m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WARROOM_CONFIG", path)
	t.Setenv("WARROOM_HTTP_ADDR", ":7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RemoteURL != "postgres://db:5432/warroom" {
		t.Errorf("RemoteURL = %q", cfg.RemoteURL)
	}
	if cfg.HTTPAddr != ":7001" {
		t.Errorf("HTTPAddr = %q, want env to win", cfg.HTTPAddr)
	}
	if cfg.SyncInterval != time.Minute {
		t.Errorf("SyncInterval = %v, want 1m", cfg.SyncInterval)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want default", cfg.GRPCAddr)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARROOM_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestDevicePathFollowsStateHome(t *testing.T) {
	clearAllEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "warroom", "device.db"); cfg.DevicePath != want {
		t.Errorf("DevicePath = %q, want %q", cfg.DevicePath, want)
	}
}
