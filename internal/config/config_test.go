package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"
  rateLimitRPS: 5

pipeline:
  workerCount: 4
  queueSize: 32
  ladder: [720, 480]
  probeTimeout: 10s

storage:
  backend: "s3"
  bucketName: "test-bucket"

upload:
  maxSizeBytes: 1048576
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Server.RateLimitRPS != 5 {
		t.Errorf("Expected rate limit 5, got %d", cfg.Server.RateLimitRPS)
	}

	if cfg.Pipeline.WorkerCount != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Pipeline.WorkerCount)
	}

	if cfg.Pipeline.QueueSize != 32 {
		t.Errorf("Expected queue size 32, got %d", cfg.Pipeline.QueueSize)
	}

	if len(cfg.Pipeline.Ladder) != 2 || cfg.Pipeline.Ladder[0] != 720 || cfg.Pipeline.Ladder[1] != 480 {
		t.Errorf("Expected ladder [720 480], got %v", cfg.Pipeline.Ladder)
	}

	if cfg.Pipeline.ProbeTimeout != 10*time.Second {
		t.Errorf("Expected probe timeout 10s, got %s", cfg.Pipeline.ProbeTimeout)
	}

	if cfg.Storage.Backend != "s3" {
		t.Errorf("Expected storage backend s3, got %s", cfg.Storage.Backend)
	}

	if cfg.Upload.MaxSizeBytes != 1048576 {
		t.Errorf("Expected upload cap 1048576, got %d", cfg.Upload.MaxSizeBytes)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte("server:\n  port: 8081\n")); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	if cfg.Pipeline.WorkerCount != 2 {
		t.Errorf("Expected default 2 workers, got %d", cfg.Pipeline.WorkerCount)
	}

	if cfg.Pipeline.QueueSize != 16 {
		t.Errorf("Expected default queue size 16, got %d", cfg.Pipeline.QueueSize)
	}

	want := []int{1080, 720, 480, 360}
	if len(cfg.Pipeline.Ladder) != len(want) {
		t.Fatalf("Expected default ladder %v, got %v", want, cfg.Pipeline.Ladder)
	}
	for i, h := range want {
		if cfg.Pipeline.Ladder[i] != h {
			t.Errorf("Expected ladder[%d]=%d, got %d", i, h, cfg.Pipeline.Ladder[i])
		}
	}

	if cfg.Pipeline.EncodeTimeout != 30*time.Minute {
		t.Errorf("Expected default encode timeout 30m, got %s", cfg.Pipeline.EncodeTimeout)
	}

	if cfg.Storage.Backend != "local" {
		t.Errorf("Expected default storage backend local, got %s", cfg.Storage.Backend)
	}

	if cfg.Database.Enabled {
		t.Error("Expected database disabled by default")
	}

	if cfg.Upload.MaxSizeBytes != 500*1024*1024 {
		t.Errorf("Expected default upload cap 500MB, got %d", cfg.Upload.MaxSizeBytes)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
