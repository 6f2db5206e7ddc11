package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/camera-translator/internal/utils"
)

// Config holds the application configuration
type Config struct {
	Inference InferenceConfig `json:"inference"`
	Scan      ScanConfig      `json:"scan"`
	Overlay   OverlayConfig   `json:"overlay"`
	History   HistoryConfig   `json:"history"`
	Store     StoreConfig     `json:"store"`
}

// InferenceConfig holds configuration for the translation backend
type InferenceConfig struct {
	// Backend selects the inference client: ollama, llamacpp or offline.
	Backend    string `json:"backend"`
	URL        string `json:"url"`
	Model      string `json:"model"`
	TargetLang string `json:"target_lang"`
	// SendFormat is the encoding used for frames sent to the model.
	SendFormat  string `json:"send_format"`
	SendMaxDim  int    `json:"send_max_dim"`
	SendQuality int    `json:"send_quality"`
}

// ScanConfig holds the capture scheduling cadence
type ScanConfig struct {
	IntervalSeconds             int `json:"interval_seconds"`
	ContinuousErrorDelaySeconds int `json:"continuous_error_delay_seconds"`
	OneShotErrorDelaySeconds    int `json:"one_shot_error_delay_seconds"`
}

// OverlayConfig holds overlay rendering preferences
type OverlayConfig struct {
	FontScale float64 `json:"font_scale"`
}

// HistoryConfig holds history log settings
type HistoryConfig struct {
	MaxEntries int  `json:"max_entries"`
	AutoSave   bool `json:"auto_save"`
}

// StoreConfig holds persistence settings
type StoreConfig struct {
	Path string `json:"path"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Inference: InferenceConfig{
			Backend:     "ollama",
			URL:         "http://localhost:11434",
			Model:       "qwen2.5vl:7b",
			TargetLang:  "English",
			SendFormat:  "jpg",
			SendMaxDim:  1536,
			SendQuality: 85,
		},
		Scan: ScanConfig{
			IntervalSeconds:             3,
			ContinuousErrorDelaySeconds: 3,
			OneShotErrorDelaySeconds:    2,
		},
		Overlay: OverlayConfig{
			FontScale: 1.0,
		},
		History: HistoryConfig{
			MaxEntries: 50,
			AutoSave:   true,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataDir(), "store.json"),
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	if err := utils.EnsureDir(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Inference.Backend {
	case "ollama", "llamacpp", "offline":
	default:
		return fmt.Errorf("inference.backend must be ollama, llamacpp or offline")
	}

	switch c.Inference.SendFormat {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("inference.send_format must be jpg, png or webp")
	}

	if c.Inference.SendQuality < 1 || c.Inference.SendQuality > 100 {
		return fmt.Errorf("inference.send_quality must be between 1 and 100")
	}

	if c.Inference.SendMaxDim < 64 {
		return fmt.Errorf("inference.send_max_dim must be at least 64")
	}

	if c.Scan.IntervalSeconds < 1 {
		return fmt.Errorf("scan.interval_seconds must be positive")
	}

	if c.Scan.ContinuousErrorDelaySeconds < 0 || c.Scan.OneShotErrorDelaySeconds < 0 {
		return fmt.Errorf("scan error delays must not be negative")
	}

	if c.Overlay.FontScale <= 0 {
		return fmt.Errorf("overlay.font_scale must be positive")
	}

	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "camera-translator", "config.json")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "camera-translator")
}
