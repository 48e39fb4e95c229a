package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
bridge:
  id: "test-bridge"
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "test-client"
  qos: 1
prefixes:
  - zigbee2mqtt
  - zigbee2mqtt-garage
database:
  path: "/tmp/test.db"
api:
  port: 8091
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.ID != "test-bridge" {
		t.Errorf("Bridge.ID = %q, want %q", cfg.Bridge.ID, "test-bridge")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if len(cfg.Prefixes) != 2 || cfg.Prefixes[0] != "zigbee2mqtt" || cfg.Prefixes[1] != "zigbee2mqtt-garage" {
		t.Errorf("Prefixes = %v, want [zigbee2mqtt zigbee2mqtt-garage]", cfg.Prefixes)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "bridge:\n  id: b1\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Prefixes) != 1 || cfg.Prefixes[0] != "zigbee2mqtt" {
		t.Errorf("Prefixes = %v, want [zigbee2mqtt]", cfg.Prefixes)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Security.JWT.Secret != "" {
		t.Error("JWT secret should default to empty (unauthenticated API)")
	}
	if cfg.GetHealthInterval().Seconds() != 30 {
		t.Errorf("GetHealthInterval() = %v, want 30s", cfg.GetHealthInterval())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
bridge:
  id: ""
prefixes: []
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "bridge.id is required") {
		t.Errorf("error = %v, want mention of bridge.id", err)
	}
	if !strings.Contains(err.Error(), "prefixes must contain") {
		t.Errorf("error = %v, want mention of prefixes", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing bridge ID", mutate: func(c *Config) { c.Bridge.ID = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "no prefixes", mutate: func(c *Config) { c.Prefixes = nil }, wantErr: true},
		{name: "empty prefix", mutate: func(c *Config) { c.Prefixes = []string{""} }, wantErr: true},
		{name: "wildcard prefix", mutate: func(c *Config) { c.Prefixes = []string{"zigbee/#"} }, wantErr: true},
		{name: "trailing slash", mutate: func(c *Config) { c.Prefixes = []string{"zigbee2mqtt/"} }, wantErr: true},
		{name: "duplicate prefix", mutate: func(c *Config) { c.Prefixes = []string{"a", "a"} }, wantErr: true},
		{name: "nested prefix allowed", mutate: func(c *Config) { c.Prefixes = []string{"site/zigbee2mqtt"} }},
		{name: "invalid port", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "short JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{
			name:   "long JWT secret",
			mutate: func(c *Config) { c.Security.JWT.Secret = "test-secret-key-at-least-32-chars!" },
		},
		{
			name: "history without database",
			mutate: func(c *Config) {
				c.Database.Enabled = false
				c.History.Enabled = true
			},
			wantErr: true,
		},
		{name: "influx without URL", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Addr = ""
			},
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

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GRAYLOGIC_ZIGBEE_MQTT_HOST", "env-broker")
	t.Setenv("GRAYLOGIC_ZIGBEE_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_ZIGBEE_PREFIXES", "zigbee2mqtt, zb-annex ,")
	t.Setenv("GRAYLOGIC_ZIGBEE_JWT_SECRET", "env-secret")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "env-broker")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if len(cfg.Prefixes) != 2 || cfg.Prefixes[1] != "zb-annex" {
		t.Errorf("Prefixes = %v, want [zigbee2mqtt zb-annex]", cfg.Prefixes)
	}
	if cfg.Security.JWT.Secret != "env-secret" {
		t.Errorf("JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "env-secret")
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := &Config{API: APIConfig{Timeouts: APITimeoutConfig{Read: 10, Write: 20, Idle: 30}}}

	if got := cfg.GetReadTimeout().Seconds(); got != 10 {
		t.Errorf("GetReadTimeout() = %v, want 10", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 20 {
		t.Errorf("GetWriteTimeout() = %v, want 20", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 30 {
		t.Errorf("GetIdleTimeout() = %v, want 30", got)
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	t.Setenv("GRAYLOGIC_ZIGBEE_PREFIXES", "")
	t.Setenv("GRAYLOGIC_ZIGBEE_API_HOST", "")
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if len(cfg.Prefixes) != 1 || cfg.Prefixes[0] != "zigbee2mqtt" {
		t.Errorf("Prefixes = %v, want [zigbee2mqtt]", cfg.Prefixes)
	}
	if cfg.API.Port != 8091 {
		t.Errorf("API.Port = %d, want 8091", cfg.API.Port)
	}
}
