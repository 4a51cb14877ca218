package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
engine:
  check_timeout: 10
  execute_timeout: 20
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Engine.CheckTimeout != 10 {
		t.Errorf("Engine.CheckTimeout = %d, want 10", cfg.Engine.CheckTimeout)
	}

	// Defaults survive a partial file
	if cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %d, want default 1883", cfg.MQTT.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: ""
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	// validJWTSecret is a secret that meets the 32-character minimum requirement
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Path: "/data/areacore.db"},
			API:      APIConfig{Port: 8080},
			Engine:   EngineConfig{CheckTimeout: 15, ExecuteTimeout: 30},
			MQTT:     MQTTConfig{QoS: 1},
			Security: SecurityConfig{JWT: JWTConfig{Secret: validJWTSecret}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero check timeout",
			mutate:  func(c *Config) { c.Engine.CheckTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero execute timeout",
			mutate:  func(c *Config) { c.Engine.ExecuteTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "invalid QoS when mqtt enabled",
			mutate:  func(c *Config) { c.MQTT.Enabled = true; c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid QoS tolerated when mqtt disabled",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: false,
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Engine: EngineConfig{
			CheckTimeout:   10,
			ExecuteTimeout: 25,
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetCheckTimeout().Seconds(); got != 10 {
		t.Errorf("GetCheckTimeout() = %v, want 10", got)
	}

	if got := cfg.GetExecuteTimeout().Seconds(); got != 25 {
		t.Errorf("GetExecuteTimeout() = %v, want 25", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("AREA_DATABASE_PATH", "/custom/path.db")
	t.Setenv("AREA_API_HOST", "192.168.1.1")
	t.Setenv("AREA_API_PORT", "9090")
	t.Setenv("AREA_MQTT_HOST", "mqtt.example.com")
	t.Setenv("AREA_MQTT_USERNAME", "testuser")
	t.Setenv("AREA_MQTT_PASSWORD", "testpass")
	t.Setenv("AREA_METRICS_TOKEN", "secret-token")
	t.Setenv("AREA_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.MQTT.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Host = %q, want %q", cfg.MQTT.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Username != "testuser" {
		t.Errorf("MQTT.Username = %q, want %q", cfg.MQTT.Username, "testuser")
	}

	if cfg.MQTT.Password != "testpass" {
		t.Errorf("MQTT.Password = %q, want %q", cfg.MQTT.Password, "testpass")
	}

	if cfg.Metrics.Token != "secret-token" {
		t.Errorf("Metrics.Token = %q, want %q", cfg.Metrics.Token, "secret-token")
	}

	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("AREA_API_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080 for unparsable override", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Port = %d, want 1883", cfg.MQTT.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if cfg.Engine.CheckTimeout < 1 {
		t.Error("defaultConfig should have a positive Engine.CheckTimeout")
	}
}
