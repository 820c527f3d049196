package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "x")
	t.Setenv("TEST_BOOL", " false ")
	t.Setenv("TEST_DUR", "750ms")
	t.Setenv("TEST_SECS", "15")

	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Error("Expected false")
	}
	if got := getEnvDuration("TEST_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("Expected 750ms, got %v", got)
	}
	if got := getEnvDuration("TEST_SECS", time.Second); got != 15*time.Second {
		t.Errorf("Expected bare seconds, got %v", got)
	}
	if got := getEnv("TEST_MISSING_KEY", "dflt"); got != "dflt" {
		t.Errorf("Expected default, got %q", got)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "https://player.example/")
	cfg := fromEnv()
	if cfg.PublicBaseURL != "https://player.example" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.PublicBaseURL)
	}
	if cfg.PollInterval <= 0 || cfg.SessionIdleTTL <= 0 {
		t.Errorf("Expected positive engine defaults, got %+v", cfg)
	}
}

func TestReloadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	t.Setenv("DEFAULT_VOLUME", "80")
	if err := os.WriteFile(path, []byte("DEFAULT_VOLUME=35\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Reload(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cfg.DefaultVolume != 35 {
		t.Errorf("Expected file to override environment, got %d", cfg.DefaultVolume)
	}
	if _, err := Reload(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	t.Setenv("LOG_LEVEL", "info")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { got <- c }, nil)
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.LogLevel != "debug" {
			t.Errorf("Expected debug, got %q", c.LogLevel)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not report the change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Watch did not stop on cancel")
	}
}
