package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MaxRecent is the number of recently used files remembered.
const MaxRecent = 10

const defaultTheme = "dark"

type RecentFile struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
}

// Config is the user's persisted preferences.
type Config struct {
	Theme  string       `json:"theme"`
	Recent []RecentFile `json:"recent,omitempty"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "csvedit"), nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// DefaultLogFile is where logs go when CSVEDIT_LOG_FILE is unset.
func DefaultLogFile() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "csvedit.log"), nil
}

func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return &Config{Theme: defaultTheme}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Theme: defaultTheme}, nil
		}
		return &Config{Theme: defaultTheme}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return &Config{Theme: defaultTheme}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Theme == "" {
		cfg.Theme = defaultTheme
	}
	return &cfg, nil
}

func (c *Config) Save() error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "settings.json")
	return os.WriteFile(path, data, 0600)
}

// SetTheme records the chosen theme and saves.
func (c *Config) SetTheme(name string) error {
	c.Theme = name
	return c.Save()
}

// AddRecent moves path to the front of the recent list and saves.
func (c *Config) AddRecent(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	for i, existing := range c.Recent {
		if existing.Path == path {
			c.Recent = append(c.Recent[:i], c.Recent[i+1:]...)
			break
		}
	}
	c.Recent = append([]RecentFile{{Path: path, OpenedAt: time.Now()}}, c.Recent...)
	if len(c.Recent) > MaxRecent {
		c.Recent = c.Recent[:MaxRecent]
	}
	return c.Save()
}

func (c *Config) Delete(index int) {
	if index < 0 || index >= len(c.Recent) {
		return
	}
	c.Recent = append(c.Recent[:index], c.Recent[index+1:]...)
}
