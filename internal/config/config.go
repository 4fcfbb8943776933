// Package config loads tool configuration from file, environment and
// defaults, with optional hot reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/industrialsast/scrtimecheck/internal/ocr"
)

// Config is the tool configuration.
type Config struct {
	// Languages are OCR language identifiers, processed as independent passes.
	Languages []string `mapstructure:"languages" yaml:"languages"`

	// Workers bounds the OCR fan-out; zero means the CPU count.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// UpscaleFactor scales images before recognition.
	UpscaleFactor int `mapstructure:"upscale_factor" yaml:"upscale_factor"`

	// OutputDir is the parent directory for work directories; empty means the
	// current directory.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr"`
}

// OCRConfig selects and configures the recognition engine.
type OCRConfig struct {
	// Engine is "tesseract" (default) or "openai".
	Engine string `mapstructure:"engine" yaml:"engine"`

	// DPI is the assumed resolution for images without DPI metadata, which
	// screenshots never carry. Zero leaves the engine's own default.
	DPI int `mapstructure:"dpi" yaml:"dpi"`

	OpenAI OpenAIConfig `mapstructure:"openai" yaml:"openai"`
}

// OpenAIConfig configures the OpenAI vision engine. The API key may use
// ${ENV_VAR} syntax.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	Model          string `mapstructure:"model" yaml:"model"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the built-in defaults: the reference deployment
// audits documents carrying both Latin- and Cyrillic-script screenshots.
func DefaultConfig() *Config {
	return &Config{
		Languages:     []string{"eng", "rus"},
		Workers:       0,
		UpscaleFactor: ocr.DefaultUpscaleFactor,
		OCR: OCRConfig{
			Engine: ocr.EngineNameTesseract,
			DPI:    300,
			OpenAI: OpenAIConfig{
				APIKey: "${OPENAI_API_KEY}",
			},
		},
	}
}

// EngineConfig converts the OCR section for ocr.New, resolving env
// references in the API key.
func (c *Config) EngineConfig() ocr.Config {
	return ocr.Config{
		Engine: c.OCR.Engine,
		OpenAI: ocr.OpenAIConfig{
			APIKey:  ResolveEnvVars(c.OCR.OpenAI.APIKey),
			Model:   c.OCR.OpenAI.Model,
			BaseURL: c.OCR.OpenAI.BaseURL,
			Timeout: time.Duration(c.OCR.OpenAI.TimeoutSeconds) * time.Second,
		},
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("languages", defaults.Languages)
	viper.SetDefault("workers", defaults.Workers)
	viper.SetDefault("upscale_factor", defaults.UpscaleFactor)
	viper.SetDefault("output_dir", defaults.OutputDir)
	viper.SetDefault("ocr.engine", defaults.OCR.Engine)
	viper.SetDefault("ocr.dpi", defaults.OCR.DPI)
	viper.SetDefault("ocr.openai.api_key", defaults.OCR.OpenAI.APIKey)

	// Environment variables with SCRTIMECHECK_ prefix
	viper.SetEnvPrefix("SCRTIMECHECK")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.scrtimecheck")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# ScrTimeCheck configuration
# The OpenAI API key uses ${ENV_VAR} syntax to reference an environment variable.
# Set it in your shell: export OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
