package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// testConfigYAML renders a minimal valid config pointing at the given
// database path and API port. MQTT, metrics, and reddit stay disabled so
// the tests need no external services.
func testConfigYAML(dbPath string, port int) string {
	return `
database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

api:
  host: "127.0.0.1"
  port: ` + strconv.Itoa(port) + `
  timeouts:
    read: 30
    write: 60
    idle: 120

engine:
  check_timeout: 10
  execute_timeout: 30

mqtt:
  enabled: false

metrics:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

security:
  jwt:
    secret: "test-secret-at-least-thirty-two-characters-long"
    access_token_ttl: 15
`
}

// writeTestConfig writes a config file and points AREA_CONFIG at it.
func writeTestConfig(t *testing.T, content string) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("AREA_CONFIG", configPath)
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("AREA_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	writeTestConfig(t, testConfigYAML("", 18081))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("AREA_CONFIG", "")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("AREA_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_SuccessfulStartupAndShutdown boots the full application against
// a fresh database and shuts it down via context cancellation. MQTT and
// metrics are disabled so no external services are required.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	writeTestConfig(t, testConfigYAML(dbPath, 18642))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v, want clean shutdown", err)
	}

	// The database file should exist and hold the seeded admin
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// TestRun_SecondBootReusesDatabase verifies a restart against an existing
// database comes up cleanly (migrations idempotent, admin seed skipped).
func TestRun_SecondBootReusesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	writeTestConfig(t, testConfigYAML(dbPath, 18643))

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := run(ctx); err != nil {
			cancel()
			t.Fatalf("run() boot %d error = %v", i+1, err)
		}
		cancel()
	}
}
