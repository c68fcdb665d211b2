package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeBootstrap(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, BootstrapFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvPort, "")
	tempDir := t.TempDir()

	writeBootstrap(t, tempDir, `
logging:
  level: "debug"
  log_path: "/var/log/follower"
receiver:
  address: "127.0.0.1:7000"
  chunk_size: 512
  framing: "raw"
  reconnect_interval_ms: 250
  max_reconnect_interval_ms: 4000
  max_attempts: 3
applier:
  frame_rate_hz: 30
server:
  http_port: 9090
zeromq:
  publish_bind_address: "tcp://*:7777"
`)

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.LogPath != "/var/log/follower" {
		t.Errorf("Expected log path '/var/log/follower', got '%s'", cfg.Logging.LogPath)
	}
	if cfg.Receiver.Address != "127.0.0.1:7000" {
		t.Errorf("Expected receiver address '127.0.0.1:7000', got '%s'", cfg.Receiver.Address)
	}
	if cfg.Receiver.ChunkSize != 512 {
		t.Errorf("Expected chunk_size 512, got %d", cfg.Receiver.ChunkSize)
	}
	if cfg.Receiver.Framing != FramingRaw {
		t.Errorf("Expected framing raw, got %s", cfg.Receiver.Framing)
	}
	if cfg.Receiver.ReconnectInterval() != 250*time.Millisecond {
		t.Errorf("Expected reconnect interval 250ms, got %v", cfg.Receiver.ReconnectInterval())
	}
	if cfg.Receiver.MaxAttempts != 3 {
		t.Errorf("Expected max_attempts 3, got %d", cfg.Receiver.MaxAttempts)
	}
	if cfg.Applier.FrameRateHz != 30 {
		t.Errorf("Expected frame_rate_hz 30, got %d", cfg.Applier.FrameRateHz)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected http_port 9090, got %d", cfg.Server.HTTPPort)
	}
	if cfg.ZeroMQ.PublishBindAddress != "tcp://*:7777" {
		t.Errorf("Expected publish_bind_address 'tcp://*:7777', got '%s'", cfg.ZeroMQ.PublishBindAddress)
	}

	// Fields absent from the file keep their defaults
	if cfg.Receiver.Delimiter != "#" {
		t.Errorf("Expected default delimiter '#', got '%s'", cfg.Receiver.Delimiter)
	}
	if cfg.ZeroMQ.Topic != "follower.orientation" {
		t.Errorf("Expected default topic, got '%s'", cfg.ZeroMQ.Topic)
	}
}

func TestLoadBootstrapConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvPort, "")

	cfg, err := LoadBootstrapConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.Receiver.Address != "localhost:65432" {
		t.Errorf("Expected default address localhost:65432, got %s", cfg.Receiver.Address)
	}
	if cfg.Receiver.ChunkSize != 1024 {
		t.Errorf("Expected default chunk size 1024, got %d", cfg.Receiver.ChunkSize)
	}
	if cfg.Applier.FrameInterval() != time.Second/60 {
		t.Errorf("Expected 60Hz frame interval, got %v", cfg.Applier.FrameInterval())
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvAddress, "10.0.0.5:65432")
	t.Setenv(EnvPort, "8181")

	cfg, err := LoadBootstrapConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if cfg.Receiver.Address != "10.0.0.5:65432" {
		t.Errorf("Expected overridden address, got %s", cfg.Receiver.Address)
	}
	if cfg.Server.HTTPPort != 8181 {
		t.Errorf("Expected overridden port 8181, got %d", cfg.Server.HTTPPort)
	}

	t.Setenv(EnvPort, "eighty")
	if _, err := LoadBootstrapConfig(t.TempDir()); err == nil {
		t.Errorf("Expected error for non-numeric PORT")
	}
}

func TestLoadBootstrapConfigValidation(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvPort, "")

	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty address",
			content: "receiver:\n  address: \"\"\n",
			wantErr: "missing required field in config: receiver.address",
		},
		{
			name:    "unknown framing",
			content: "receiver:\n  framing: \"lines\"\n",
			wantErr: "receiver.framing",
		},
		{
			name:    "zero frame rate",
			content: "applier:\n  frame_rate_hz: 0\n",
			wantErr: "applier.frame_rate_hz",
		},
		{
			name:    "backoff ceiling below floor",
			content: "receiver:\n  reconnect_interval_ms: 1000\n  max_reconnect_interval_ms: 10\n",
			wantErr: "max_reconnect_interval_ms",
		},
		{
			name:    "broken yaml",
			content: "receiver: [unterminated\n",
			wantErr: "error parsing config file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeBootstrap(t, dir, tc.content)

			_, err := LoadBootstrapConfig(dir)
			if err == nil {
				t.Fatalf("Expected error containing '%s', got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error message to contain '%s', but got: %v", tc.wantErr, err)
			}
		})
	}
}
