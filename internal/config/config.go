package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Service contains endpoints and credentials for the remote media service.
type Service struct {
	TenantID      string `toml:"tenant_id"`
	TokenEndpoint string `toml:"token_endpoint"`
	APIEndpoint   string `toml:"api_endpoint"`
	ClientID      string `toml:"client_id"`
	ClientSecret  string `toml:"client_secret"`
	ProcessorID   string `toml:"processor_id"`
	ProcessorName string `toml:"processor_name"`
}

// Policies contains access policy naming and duration settings.
type Policies struct {
	UploadPolicyName string `toml:"upload_policy_name"`
	ReadPolicyName   string `toml:"read_policy_name"`
	DurationMinutes  int    `toml:"duration_minutes"`
}

// Assets contains input asset naming settings.
type Assets struct {
	NamePrefix string `toml:"name_prefix"`
}

// Locators contains locator naming settings.
type Locators struct {
	NamePrefix string `toml:"name_prefix"`
}

// Upload contains block upload tuning.
type Upload struct {
	Concurrency int `toml:"concurrency"`
}

// Job contains job polling intervals and bounds.
type Job struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxWaitMinutes      int `toml:"max_wait_minutes"`
}

// Paths contains local directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vodflow.
type Config struct {
	Service  Service  `toml:"service"`
	Policies Policies `toml:"policies"`
	Assets   Assets   `toml:"assets"`
	Locators Locators `toml:"locators"`
	Upload   Upload   `toml:"upload"`
	Job      Job      `toml:"job"`
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vodflow/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has defaults applied, environment fallbacks resolved, and paths
// expanded. The second and third return values report the resolved path and
// whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config %s: %w", expanded, err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config %s: %w", defaultPath, err)
	}
	return defaultPath, true, nil
}

// WriteSample writes the embedded sample configuration to the provided path,
// creating parent directories as needed. Existing files are not overwritten.
func WriteSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(expanded); err == nil {
		return expanded, fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return expanded, fmt.Errorf("stat config %s: %w", expanded, err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return expanded, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return expanded, fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}

// EnsureDirectories creates the state and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
