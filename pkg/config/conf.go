package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/revrank/pkg/score"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"

	dirMode  = 0700
	fileMode = 0600

	LimitDefault    = 20
	LogLevelDefault = "info"
)

// Config holds the defaults applied when a command flag is not set.
type Config struct {
	Strategy   string  `yaml:"strategy"`
	Confidence float64 `yaml:"confidence"`
	Limit      int     `yaml:"limit"`
	DB         string  `yaml:"db,omitempty"`
	LogLevel   string  `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Strategy:   string(score.StrategyWilson),
		Confidence: score.DefaultConfidence,
		Limit:      LimitDefault,
		LogLevel:   LogLevelDefault,
	}
}

// Validate checks that strategy and confidence are usable by the scorer.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	s, err := score.ParseStrategy(c.Strategy)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := score.NewScorer(s, c.Confidence); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Limit < 0 {
		return fmt.Errorf("invalid config: limit must be >= 0, got %d", c.Limit)
	}
	return nil
}

// Scorer builds the scorer described by the config.
func (c *Config) Scorer() (score.Scorer, error) {
	s, err := score.ParseStrategy(c.Strategy)
	if err != nil {
		return score.Scorer{}, err
	}
	return score.NewScorer(s, c.Confidence)
}

// Save writes c into dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Values missing from the file fall back to Default.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
	}

	path := filepath.Join(dirPath, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return Read(path)
}

// Read loads the config file at path on top of the defaults.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns ~/.<name>, creating it when missing.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
