package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "test-client"
  qos: 2
api:
  host: "0.0.0.0"
  port: 3000
feedback:
  thresholds: [50, 100, 150]
  colors: [85, 50, 0]
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker.Port = %d, want %d", cfg.MQTT.Broker.Port, 1884)
	}
	if len(cfg.Feedback.Thresholds) != 3 {
		t.Errorf("Feedback.Thresholds length = %d, want 3", len(cfg.Feedback.Thresholds))
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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("default MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.API.Port != 3000 {
		t.Errorf("default API.Port = %d, want 3000", cfg.API.Port)
	}
	if len(cfg.Feedback.Thresholds) != len(cfg.Feedback.Colors) {
		t.Error("default feedback thresholds/colors cardinality mismatch")
	}
}

func TestValidate_FeedbackBands(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float64
		colors     []int
		wantErr    bool
	}{
		{"matched ascending", []float64{50, 100, 150}, []int{85, 50, 0}, false},
		{"cardinality mismatch", []float64{50, 100, 150}, []int{85, 50}, true},
		{"not ascending", []float64{100, 50, 150}, []int{85, 50, 0}, true},
		{"duplicate threshold", []float64{50, 50, 150}, []int{85, 50, 0}, true},
		{"empty thresholds", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Feedback.Thresholds = tt.thresholds
			cfg.Feedback.Colors = tt.colors

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CUBECORE_MQTT_HOST", "env-broker")
	t.Setenv("CUBECORE_MQTT_PORT", "2883")
	t.Setenv("CUBECORE_FEEDBACK_THRESHOLDS", "10 20 30")
	t.Setenv("CUBECORE_FEEDBACK_COLORS", "90 45 0")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "env-broker")
	}
	if cfg.MQTT.Broker.Port != 2883 {
		t.Errorf("MQTT.Broker.Port = %d, want 2883", cfg.MQTT.Broker.Port)
	}
	if len(cfg.Feedback.Thresholds) != 3 || cfg.Feedback.Thresholds[2] != 30 {
		t.Errorf("Feedback.Thresholds = %v, want [10 20 30]", cfg.Feedback.Thresholds)
	}
	if len(cfg.Feedback.Colors) != 3 || cfg.Feedback.Colors[0] != 90 {
		t.Errorf("Feedback.Colors = %v, want [90 45 0]", cfg.Feedback.Colors)
	}
}
