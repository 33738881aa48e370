// Package config loads the batch configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML strings like "20s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Paths struct {
	// Records is the input CSV of outreach targets.
	Records string `yaml:"records"`
	// SenderProfile is the sender business description text file.
	SenderProfile string `yaml:"sender_profile"`
	// Results is the append-only outcomes CSV.
	Results string `yaml:"results"`
	// AssetsDir holds candidate inline images.
	AssetsDir string `yaml:"assets_dir"`
	// OutboxDir receives filed artifacts.
	OutboxDir string `yaml:"outbox_dir"`
	// Brochure is an optional attachment added to every letter.
	Brochure string `yaml:"brochure"`
}

type Sender struct {
	Address string `yaml:"address"`
}

type Letter struct {
	DefaultLocale string `yaml:"default_locale"`
	AssetCount    int    `yaml:"asset_count"`
}

type Fetch struct {
	MaxContentLength int      `yaml:"max_content_length"`
	Timeout          Duration `yaml:"timeout"`
}

type Calls struct {
	MaxRetries     int      `yaml:"max_retries"`
	BackoffInitial Duration `yaml:"backoff_initial"`
	BackoffMax     Duration `yaml:"backoff_max"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Config struct {
	Paths            Paths    `yaml:"paths"`
	Sender           Sender   `yaml:"sender"`
	Letter           Letter   `yaml:"letter"`
	Fetch            Fetch    `yaml:"fetch"`
	Calls            Calls    `yaml:"calls"`
	InterRecordDelay Duration `yaml:"inter_record_delay"`
	Logging          Logging  `yaml:"logging"`
}

// Load reads configuration from a YAML file, expanding ${ENV} values
// and applying defaults. Missing mandatory paths are reported here,
// before any record is touched.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Letter.DefaultLocale == "" {
		c.Letter.DefaultLocale = "English"
	}
	if c.Letter.AssetCount <= 0 {
		c.Letter.AssetCount = 3
	}
	if c.Fetch.MaxContentLength <= 0 {
		c.Fetch.MaxContentLength = 3000
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = Duration(20 * time.Second)
	}
	if c.Calls.MaxRetries <= 0 {
		c.Calls.MaxRetries = 3
	}
	if c.Calls.BackoffInitial <= 0 {
		c.Calls.BackoffInitial = Duration(time.Second)
	}
	if c.Paths.Results == "" {
		c.Paths.Results = "data/processed_records.csv"
	}
	if c.Paths.OutboxDir == "" {
		c.Paths.OutboxDir = "outbox"
	}
}

func (c *Config) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"paths.records", c.Paths.Records},
		{"paths.sender_profile", c.Paths.SenderProfile},
		{"paths.assets_dir", c.Paths.AssetsDir},
		{"sender.address", c.Sender.Address},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("config field %s is required", r.field)
		}
	}
	return nil
}
