// Package config loads and validates the JSON configuration file that
// drives the acquisition engine: the database URL, working directory,
// logging, and acquisition-specific tuning knobs.
package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/config.schema.json
var schemaFS embed.FS

// LoggingConfig controls zerolog's level, sink, and rotation.
type LoggingConfig struct {
	Level   string `json:"level"`
	Format  string `json:"format"`
	Dirpath string `json:"dirpath"`
	History int    `json:"history"`
	Enabled bool   `json:"enabled"`
}

// Config is the parsed, validated, defaulted configuration file.
type Config struct {
	DBURL           string        `json:"db_url"`
	WorkingDirpath  string        `json:"working_dirpath"`
	Logging         LoggingConfig `json:"logging"`
	MQTTClientID    string        `json:"mqtt_client_id"`
	DisconnectGrace jsonDuration  `json:"disconnect_grace_period"`
	WriterBatchSize int           `json:"writer_batch_size"`
	WriterInterval  jsonDuration  `json:"writer_batch_interval"`
}

// jsonDuration unmarshals a Go duration string ("10s", "2m") from JSON,
// since time.Duration has no JSON representation of its own.
type jsonDuration time.Duration

func (d *jsonDuration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*d = jsonDuration(parsed)
	return nil
}

func (d jsonDuration) Duration() time.Duration { return time.Duration(d) }

// Defaults applied when the corresponding key is absent from the file;
// the schema marks these optional.
const (
	defaultMQTTClientID    = "bemserver-acquisition"
	defaultDisconnectGrace = 10 * time.Second
	defaultWriterBatchSize = 500
	defaultWriterInterval  = 2 * time.Second
)

// Load reads, schema-validates, and JSON-decodes the configuration file
// at path, then applies defaults for any omitted optional key.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = defaultMQTTClientID
	}
	if cfg.DisconnectGrace.Duration() == 0 {
		cfg.DisconnectGrace = jsonDuration(defaultDisconnectGrace)
	}
	if cfg.WriterBatchSize == 0 {
		cfg.WriterBatchSize = defaultWriterBatchSize
	}
	if cfg.WriterInterval.Duration() == 0 {
		cfg.WriterInterval = jsonDuration(defaultWriterInterval)
	}

	return &cfg, nil
}

// ApplyVerbose overrides Logging.Level to debug, matching the --verbose
// CLI flag contract.
func (c *Config) ApplyVerbose(verbose bool) {
	if verbose {
		c.Logging.Level = "DEBUG"
	}
}

func validate(raw []byte) error {
	schemaBytes, err := schemaFS.ReadFile("schema/config.schema.json")
	if err != nil {
		return fmt.Errorf("load embedded schema: %w", err)
	}
	schema, err := jsonschema.CompileString("config.schema.json", string(schemaBytes))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode as JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return err
	}
	return nil
}
