package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg != Default() {
		t.Fatalf("fresh load must yield defaults, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := []byte("server_url: http://example.test:9000\nsend_mode: publish\necho_window: 3s\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://example.test:9000" {
		t.Errorf("server_url not applied: %q", cfg.ServerURL)
	}
	if cfg.SendMode != SendModePublish {
		t.Errorf("send_mode not applied: %q", cfg.SendMode)
	}
	if cfg.EchoWindow != 3*time.Second {
		t.Errorf("echo_window not applied: %v", cfg.EchoWindow)
	}
	// Untouched keys keep their defaults.
	if cfg.ArchivePath != Default().ArchivePath {
		t.Errorf("archive_path should stay default, got %q", cfg.ArchivePath)
	}
}

func TestLoadRejectsBadSendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte("send_mode: carrier-pigeon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := Load(nil, path); err == nil {
		t.Fatalf("expected invalid send_mode to be rejected")
	}
}

func TestUpdateFromOverridesNonZero(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{SendMode: SendModePublish, LogLevel: "debug"})

	if cfg.SendMode != SendModePublish || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ServerURL != Default().ServerURL {
		t.Fatalf("zero-value fields must not override: %+v", cfg)
	}
}
