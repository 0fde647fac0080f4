package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeService()
	c.normalizeLimits()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeService() {
	applyEnvFallback(&c.Service.TenantID, "VODFLOW_TENANT_ID")
	applyEnvFallback(&c.Service.TokenEndpoint, "VODFLOW_TOKEN_ENDPOINT")
	applyEnvFallback(&c.Service.APIEndpoint, "VODFLOW_API_ENDPOINT")
	applyEnvFallback(&c.Service.ClientID, "VODFLOW_CLIENT_ID")
	applyEnvFallback(&c.Service.ClientSecret, "VODFLOW_CLIENT_SECRET")

	c.Service.TenantID = strings.TrimSpace(c.Service.TenantID)
	c.Service.TokenEndpoint = strings.TrimSpace(c.Service.TokenEndpoint)
	if c.Service.TokenEndpoint == "" && c.Service.TenantID != "" {
		c.Service.TokenEndpoint = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/token", c.Service.TenantID)
	}
	c.Service.APIEndpoint = strings.TrimRight(strings.TrimSpace(c.Service.APIEndpoint), "/")
	c.Service.ProcessorID = strings.TrimSpace(c.Service.ProcessorID)
	c.Service.ProcessorName = strings.TrimSpace(c.Service.ProcessorName)
}

func (c *Config) normalizeLimits() {
	if c.Policies.DurationMinutes <= 0 {
		c.Policies.DurationMinutes = defaultPolicyDurationMinutes
	}
	if c.Upload.Concurrency <= 0 {
		c.Upload.Concurrency = defaultUploadConcurrency
	}
	if c.Job.PollIntervalSeconds <= 0 {
		c.Job.PollIntervalSeconds = defaultPollInterval
	}
	if c.Job.MaxWaitMinutes <= 0 {
		c.Job.MaxWaitMinutes = defaultJobMaxWaitMinutes
	}
	if strings.TrimSpace(c.Assets.NamePrefix) == "" {
		c.Assets.NamePrefix = defaultAssetNamePrefix
	}
	if strings.TrimSpace(c.Locators.NamePrefix) == "" {
		c.Locators.NamePrefix = defaultLocatorPrefix
	}
	if strings.TrimSpace(c.Policies.UploadPolicyName) == "" {
		c.Policies.UploadPolicyName = defaultUploadPolicyName
	}
	if strings.TrimSpace(c.Policies.ReadPolicyName) == "" {
		c.Policies.ReadPolicyName = defaultReadPolicyName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func applyEnvFallback(target *string, key string) {
	if strings.TrimSpace(*target) != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*target = strings.TrimSpace(value)
	}
}
