package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file and overlays it on the defaults.
// The file is validated against the generated JSON Schema before decoding,
// so unknown keys and wrongly typed values are rejected with their path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the --config flag
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML data on the defaults. Keys absent from data keep
// their default value; lists such as viewports replace the default wholesale.
func Parse(data []byte) (Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := Default()
	if raw == nil {
		return cfg, nil
	}

	// Round-trip through JSON so the validator sees the JSON data model.
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("convert config to JSON: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return Config{}, fmt.Errorf("convert config to JSON: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
