// Package config loads and validates the application configuration.
package config

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Falcon0711/zStock/internal/chart"
	"github.com/Falcon0711/zStock/internal/datasource"
	"github.com/Falcon0711/zStock/pkg/errors"
)

// Format selects the history export format the data directory holds.
type Format string

const (
	// FormatJSON reads per-instrument JSON payloads.
	FormatJSON Format = "json"
	// FormatCSV reads per-instrument CSV exports through DuckDB.
	FormatCSV Format = "csv"
)

// Config is the application configuration.
type Config struct {
	// Theme holds the chart colors; absent fields fall back to the default
	// theme wholesale.
	Theme chart.Theme `yaml:"theme" json:"theme" jsonschema:"title=Chart Theme,description=Colors used by the chart renderer"`

	// DefaultWindow is the initial number of visible bars.
	DefaultWindow int `yaml:"default_window" json:"default_window" jsonschema:"title=Default Window,description=Initial number of visible bars" validate:"gte=0"`

	// DataDir holds the per-instrument history exports.
	DataDir string `yaml:"data_dir" json:"data_dir" jsonschema:"title=Data Directory,description=Directory of per-instrument history exports" validate:"required"`

	// Format is the history export format, json or csv.
	Format Format `yaml:"format" json:"format" jsonschema:"title=Data Format,description=History export format" validate:"required,oneof=json csv"`

	// StorePath is the SQLite file backing the key-value store; empty runs
	// on the in-memory store.
	StorePath string `yaml:"store_path" json:"store_path" jsonschema:"title=Store Path,description=SQLite file for persisted chart preferences"`

	// Instruments optionally names the selectable instruments; empty means
	// the data directory listing defines them.
	Instruments []datasource.Instrument `yaml:"instruments" json:"instruments" jsonschema:"title=Instruments,description=Selectable instruments with display names" validate:"dive"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Theme:         chart.DefaultTheme(),
		DefaultWindow: chart.DefaultWindow,
		DataDir:       "data",
		Format:        FormatJSON,
	}
}

// Load reads a YAML configuration file, fills defaults and validates.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "cannot read config file", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "cannot parse config file", err)
	}

	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.Theme.Background == "" {
		c.Theme = chart.DefaultTheme()
	}

	if c.DefaultWindow == 0 {
		c.DefaultWindow = chart.DefaultWindow
	}

	if c.Format == "" {
		c.Format = FormatJSON
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// ToJSONSchema returns the JSON schema of the configuration file.
func ToJSONSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(&Config{})

	raw, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}
