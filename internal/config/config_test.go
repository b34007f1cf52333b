package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"db_url": "postgres://localhost/test",
		"working_dirpath": "/var/lib/bemserver",
		"logging": {"level": "INFO", "format": "CONSOLE", "enabled": true}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBURL != "postgres://localhost/test" {
		t.Errorf("DBURL = %q", cfg.DBURL)
	}
	if cfg.MQTTClientID != defaultMQTTClientID {
		t.Errorf("MQTTClientID = %q, want %q", cfg.MQTTClientID, defaultMQTTClientID)
	}
	if cfg.DisconnectGrace.Duration() != defaultDisconnectGrace {
		t.Errorf("DisconnectGrace = %v, want %v", cfg.DisconnectGrace.Duration(), defaultDisconnectGrace)
	}
	if cfg.WriterBatchSize != defaultWriterBatchSize {
		t.Errorf("WriterBatchSize = %d, want %d", cfg.WriterBatchSize, defaultWriterBatchSize)
	}
	if cfg.WriterInterval.Duration() != defaultWriterInterval {
		t.Errorf("WriterInterval = %v, want %v", cfg.WriterInterval.Duration(), defaultWriterInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfigFile(t, `{
		"db_url": "postgres://localhost/test",
		"working_dirpath": "/var/lib/bemserver",
		"logging": {"level": "DEBUG", "format": "JSON", "enabled": true, "dirpath": "/var/log/bemserver", "history": 7},
		"mqtt_client_id": "acq-1",
		"disconnect_grace_period": "30s",
		"writer_batch_size": 100,
		"writer_batch_interval": "500ms"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTClientID != "acq-1" {
		t.Errorf("MQTTClientID = %q, want acq-1", cfg.MQTTClientID)
	}
	if cfg.DisconnectGrace.Duration() != 30*time.Second {
		t.Errorf("DisconnectGrace = %v, want 30s", cfg.DisconnectGrace.Duration())
	}
	if cfg.WriterBatchSize != 100 {
		t.Errorf("WriterBatchSize = %d, want 100", cfg.WriterBatchSize)
	}
	if cfg.WriterInterval.Duration() != 500*time.Millisecond {
		t.Errorf("WriterInterval = %v, want 500ms", cfg.WriterInterval.Duration())
	}
	if cfg.Logging.History != 7 {
		t.Errorf("Logging.History = %d, want 7", cfg.Logging.History)
	}
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeConfigFile(t, `{
		"working_dirpath": "/var/lib/bemserver",
		"logging": {"level": "INFO", "format": "CONSOLE", "enabled": true}
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for missing db_url, got nil")
	}
}

func TestLoadInvalidLoggingLevel(t *testing.T) {
	path := writeConfigFile(t, `{
		"db_url": "postgres://localhost/test",
		"working_dirpath": "/var/lib/bemserver",
		"logging": {"level": "TRACE", "format": "CONSOLE", "enabled": true}
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for invalid logging level, got nil")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfigFile(t, `{
		"db_url": "postgres://localhost/test",
		"working_dirpath": "/var/lib/bemserver",
		"logging": {"level": "INFO", "format": "CONSOLE", "enabled": true},
		"unknown_field": true
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for unknown top-level field, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.json")); err == nil {
		t.Fatal("Load: want error for missing file, got nil")
	}
}

func TestApplyVerbose(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "INFO"}}
	cfg.ApplyVerbose(false)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want unchanged INFO", cfg.Logging.Level)
	}
	cfg.ApplyVerbose(true)
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG", cfg.Logging.Level)
	}
}

func TestJSONDurationEmptyString(t *testing.T) {
	var d jsonDuration
	if err := d.UnmarshalJSON([]byte(`""`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if d.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", d.Duration())
	}
}

func TestJSONDurationInvalid(t *testing.T) {
	var d jsonDuration
	if err := d.UnmarshalJSON([]byte(`"not-a-duration"`)); err == nil {
		t.Fatal("UnmarshalJSON: want error for invalid duration string, got nil")
	}
}
