package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"server"`
	Capture struct {
		FrameDelayMs int `yaml:"frame_delay_ms"`
	} `yaml:"capture"`
	Chat struct {
		HotQuestionCount int    `yaml:"hot_question_count"`
		WelcomeMessage   string `yaml:"welcome_message"`
	} `yaml:"chat"`
	Paths struct {
		HistoryDB   string `yaml:"history_db"`
		DownloadDir string `yaml:"download_dir"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".ops-agent", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".ops-agent")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Server.BaseURL = "http://localhost:8000"
	cfg.Server.Token = ""
	cfg.Capture.FrameDelayMs = 500
	cfg.Chat.HotQuestionCount = 5
	cfg.Chat.WelcomeMessage = "Hello! I am the Ops Agent assistant. How can I help you?"

	homeDir := os.Getenv("HOME")
	cfg.Paths.HistoryDB = filepath.Join(homeDir, ".ops-agent", "history.db")
	cfg.Paths.DownloadDir = filepath.Join(homeDir, "Downloads")

	return cfg
}
