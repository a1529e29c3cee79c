package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	// PortalConfig describes connection to the platform hosting classic
	// series items and referenced web maps.
	PortalConfig struct {
		URL        string       `yaml:"url" validate:"required,url"`
		Token      SecretString `yaml:"token,omitempty"`
		TimeoutSec int          `yaml:"timeout_sec" validate:"min=1"`
	}

	// ExportConfig describes the map rendering (print) service used for
	// webmap thumbnails.
	ExportConfig struct {
		URL         string `yaml:"url" validate:"required,url"`
		MaxAttempts int    `yaml:"max_attempts" validate:"min=1,max=20"`
		TimeoutSec  int    `yaml:"timeout_sec" validate:"min=1"`
		Width       int    `yaml:"width" validate:"min=100"`
		Height      int    `yaml:"height" validate:"min=100"`
		DPI         int    `yaml:"dpi" validate:"min=72"`
	}

	ThumbnailsConfig struct {
		Dir                 string  `yaml:"dir,omitempty" sanitize:"path_clean"`
		DefaultImagePath    string  `yaml:"default_image_path,omitempty" sanitize:"assure_file_access"`
		MaxWidth            int     `yaml:"max_width" validate:"min=100"`
		MaxHeight           int     `yaml:"max_height" validate:"min=100"`
		BlankStdDev         float64 `yaml:"blank_stddev_threshold" validate:"gte=0"`
		KeepAfterConversion bool    `yaml:"keep_after_conversion"`
	}

	DocumentConfig struct {
		OutputNameTemplate    string `yaml:"output_name_template"`
		FileNameTransliterate bool   `yaml:"file_name_transliterate"`
		Theme                 string `yaml:"theme,omitempty" validate:"omitempty,oneof=obsidian summit"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Portal     PortalConfig     `yaml:"portal"`
		Export     ExportConfig     `yaml:"export"`
		Thumbnails ThumbnailsConfig `yaml:"thumbnails"`
		Document   DocumentConfig   `yaml:"document"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

// Timeout returns portal request timeout as a duration.
func (c *PortalConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Timeout returns export service request timeout as a duration.
func (c *ExportConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// TemplateFieldName identifies a configuration field holding a text template.
type TemplateFieldName string

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of embedded defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(defaultConfig, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration defaults: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration defaults: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from embedded defaults and returns it
// as a byte slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(defaultConfig, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
