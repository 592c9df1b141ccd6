// Package config loads the application configuration from YAML with
// PREDICTFORM_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PREDICTFORM_"

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Client  ClientConfig  `yaml:"client" json:"client"`
	Model   ModelConfig   `yaml:"model" json:"model"`
	Render  RenderConfig  `yaml:"render" json:"render"`
	Dataset DatasetConfig `yaml:"dataset" json:"dataset"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig contains web server configuration.
type ServerConfig struct {
	Addr          string        `yaml:"addr" json:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" json:"shutdown_grace"`
	EnableCORS    bool          `yaml:"enable_cors" json:"enable_cors"`
	CORSOrigins   []string      `yaml:"cors_origins" json:"cors_origins"`
}

// ClientConfig controls how form submissions reach the prediction endpoint.
type ClientConfig struct {
	// BaseURL is the origin "/predict" is resolved against. Empty resolves
	// to the address the server is listening on.
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Policy   string        `yaml:"policy" json:"policy"`

	// InProcess answers page submissions by calling the model directly,
	// skipping the HTTP round trip. BaseURL is ignored when set.
	InProcess bool `yaml:"in_process" json:"in_process"`
}

// ModelConfig locates the trained model.
type ModelConfig struct {
	Path string `yaml:"path" json:"path"`
	K    int    `yaml:"k" json:"k"`
}

// RenderConfig contains page presentation settings.
type RenderConfig struct {
	Locale  string `yaml:"locale" json:"locale"`
	Theme   string `yaml:"theme" json:"theme"`
	Variant string `yaml:"variant" json:"variant"`
	Intro   string `yaml:"intro" json:"intro"`
}

// DatasetConfig describes the training input.
type DatasetConfig struct {
	Path     string `yaml:"path" json:"path"`
	Encoding string `yaml:"encoding" json:"encoding"`
	Comma    string `yaml:"comma" json:"comma"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // "json", "console"
}

// DefaultConfig returns a configuration with working defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":5000",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  30 * time.Second,
			ShutdownGrace: 5 * time.Second,
			EnableCORS:    true,
			CORSOrigins:   []string{"*"},
		},
		Client: ClientConfig{
			Endpoint: "/predict",
			Timeout:  30 * time.Second,
			Policy:   "latest-wins",
		},
		Model: ModelConfig{
			Path: "model/knn_model.json",
			K:    7,
		},
		Render: RenderConfig{
			Locale:  "pt-BR",
			Theme:   "predictform",
			Variant: "light",
		},
		Dataset: DatasetConfig{
			Path:     "data/microdados_enem2023.csv",
			Encoding: "auto",
			Comma:    ";",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := cfg.Decode(raw); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges a YAML document into c. Unknown keys are rejected.
func (c *Config) Decode(raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from PREDICTFORM_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}

	strs := map[string]*string{
		"ADDR":             &c.Server.Addr,
		"BASE_URL":         &c.Client.BaseURL,
		"ENDPOINT":         &c.Client.Endpoint,
		"POLICY":           &c.Client.Policy,
		"MODEL_PATH":       &c.Model.Path,
		"LOCALE":           &c.Render.Locale,
		"THEME":            &c.Render.Theme,
		"THEME_VARIANT":    &c.Render.Variant,
		"DATASET_PATH":     &c.Dataset.Path,
		"DATASET_ENCODING": &c.Dataset.Encoding,
		"LOG_LEVEL":        &c.Logging.Level,
		"LOG_FORMAT":       &c.Logging.Format,
	}
	for key, target := range strs {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = strings.TrimSpace(value)
		}
	}

	durations := map[string]*time.Duration{
		"CLIENT_TIMEOUT": &c.Client.Timeout,
		"SHUTDOWN_GRACE": &c.Server.ShutdownGrace,
	}
	for key, target := range durations {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*target = parsed
	}

	if value, ok := lookup(EnvPrefix + "MODEL_K"); ok {
		k, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %sMODEL_K: %w", EnvPrefix, err)
		}
		c.Model.K = k
	}
	if value, ok := lookup(EnvPrefix + "ENABLE_CORS"); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %sENABLE_CORS: %w", EnvPrefix, err)
		}
		c.Server.EnableCORS = enabled
	}
	if value, ok := lookup(EnvPrefix + "IN_PROCESS"); ok {
		inProcess, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %sIN_PROCESS: %w", EnvPrefix, err)
		}
		c.Client.InProcess = inProcess
	}
	if value, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(value)
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Client.BaseURL != "" {
		parsed, err := url.Parse(c.Client.BaseURL)
		if err != nil || !parsed.IsAbs() {
			errs = append(errs, fmt.Errorf("client.base_url must be absolute, got %q", c.Client.BaseURL))
		}
	}
	switch c.Client.Policy {
	case "", "latest-wins", "reject-while-busy", "unguarded":
	default:
		errs = append(errs, fmt.Errorf("client.policy %q is not supported", c.Client.Policy))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout must not be negative"))
	}
	if c.Model.K <= 0 {
		errs = append(errs, errors.New("model.k must be positive"))
	}
	if len([]rune(c.Dataset.Comma)) > 1 {
		errs = append(errs, fmt.Errorf("dataset.comma must be a single character, got %q", c.Dataset.Comma))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not supported", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// CommaRune returns the dataset separator, defaulting to ';'.
func (c *Config) CommaRune() rune {
	for _, r := range c.Dataset.Comma {
		return r
	}
	return ';'
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
