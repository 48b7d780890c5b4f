package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would prevent startup.
// Vault and generation credentials are validated lazily by the commands that
// need them, so a local-only session can run without either.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if c.Generation.TimeoutSeconds < 0 {
		problems = append(problems, "generation.timeout_seconds must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// ValidateVault checks that vault sync commands can run.
func (c *Config) ValidateVault() error {
	var problems []string
	if strings.TrimSpace(c.Vault.Bucket) == "" {
		problems = append(problems, "vault.bucket must be set")
	}
	if strings.TrimSpace(c.Vault.CredentialsFile) == "" {
		problems = append(problems, "vault.credentials_file must be set")
	}
	if len(problems) > 0 {
		return errors.New("vault not configured: " + strings.Join(problems, "; "))
	}
	return nil
}

// ValidateGeneration checks that generation commands can run.
func (c *Config) ValidateGeneration() error {
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		return errors.New("generation not configured: generation.api_key must be set")
	}
	return nil
}
