package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Upload.Concurrency > 64 {
		return errors.New("upload.concurrency must be 64 or less")
	}
	return nil
}

func (c *Config) validateService() error {
	required := []struct {
		value string
		key   string
		env   string
	}{
		{c.Service.TokenEndpoint, "service.token_endpoint", "VODFLOW_TOKEN_ENDPOINT"},
		{c.Service.APIEndpoint, "service.api_endpoint", "VODFLOW_API_ENDPOINT"},
		{c.Service.ClientID, "service.client_id", "VODFLOW_CLIENT_ID"},
		{c.Service.ClientSecret, "service.client_secret", "VODFLOW_CLIENT_SECRET"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/vodflow/config.toml"
			}
			return fmt.Errorf("%s is required. Set %s env var or edit %s (create with 'vodflow config init')", field.key, field.env, defaultPath)
		}
	}
	if c.Service.ProcessorID == "" && c.Service.ProcessorName == "" {
		return errors.New("one of service.processor_id or service.processor_name must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
