package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "shapegen.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/shapegen"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger  *slog.Logger
	homeDir string
	workDir string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	return &Loader{logger: logger, homeDir: home, workDir: cwd}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/shapegen/config.yaml)
// 3. Project config (shapegen.yaml in current or parent directories)
// 4. Explicit config file (explicitPath, if non-empty)
//
// A missing explicit file is an error; missing user or project files are not.
func (l *Loader) Load(explicitPath string) (*Config, error) {
	config := DefaultConfig()

	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := loadOverlay(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !os.IsNotExist(err) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := loadOverlay(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if explicitPath != "" {
		explicit, err := loadOverlay(explicitPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", explicitPath, err)
		}
		l.logger.Debug("Loaded config", slog.String("path", explicitPath))
		config.Merge(explicit)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() (string, error) {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return "", fmt.Errorf("cannot determine home directory")
	}

	if _, err := os.Stat(userConfigPath); err == nil {
		return userConfigPath, nil
	}

	if err := DefaultConfig().SaveToFile(userConfigPath); err != nil {
		return "", err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return userConfigPath, nil
}

// loadOverlay reads a config file without applying defaults, so that only
// the keys present in the file override earlier layers.
func loadOverlay(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for shapegen.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
