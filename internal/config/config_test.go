package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if !cfg.Swarm.DemoMode {
		t.Error("Swarm.DemoMode = false, want true by default")
	}
	if cfg.Swarm.BatchDelay != 500*time.Millisecond {
		t.Errorf("Swarm.BatchDelay = %v, want 500ms", cfg.Swarm.BatchDelay)
	}
	if cfg.Swarm.EvalDelay != 200*time.Millisecond {
		t.Errorf("Swarm.EvalDelay = %v, want 200ms", cfg.Swarm.EvalDelay)
	}
	if cfg.Swarm.ContractAddress == "" {
		t.Error("Swarm.ContractAddress is empty")
	}
	if cfg.State.DBPath == "" {
		t.Error("State.DBPath is empty")
	}
	if cfg.Anthropic.APIKey != "" {
		t.Errorf("Anthropic.APIKey = %q, want empty default", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
anthropic:
  api_key: test-key
server:
  addr: ":9999"
swarm:
  demo_mode: false
  batch_delay: 50ms
state:
  db_path: /tmp/test-runs.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want test-key", cfg.Anthropic.APIKey)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Server.Addr)
	}
	if cfg.Swarm.DemoMode {
		t.Error("DemoMode = true, want false from file")
	}
	if cfg.Swarm.BatchDelay != 50*time.Millisecond {
		t.Errorf("BatchDelay = %v, want 50ms", cfg.Swarm.BatchDelay)
	}
	if cfg.State.DBPath != "/tmp/test-runs.db" {
		t.Errorf("DBPath = %q, want /tmp/test-runs.db", cfg.State.DBPath)
	}
	// Values absent from the file keep their defaults.
	if cfg.Swarm.EvalDelay != 200*time.Millisecond {
		t.Errorf("EvalDelay = %v, want default 200ms", cfg.Swarm.EvalDelay)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromPath succeeded on a missing file")
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	t.Setenv("TEST_TENDERSWARM_KEY", "expanded-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "anthropic:\n  api_key: ${TEST_TENDERSWARM_KEY}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Anthropic.APIKey != "expanded-key" {
		t.Errorf("APIKey = %q, want expanded-key", cfg.Anthropic.APIKey)
	}
}
