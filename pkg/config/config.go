package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/viper"
)

const (
	// Default configuration values
	defaultDelimiter = ";"
	defaultLogLevel  = "info"

	// Environment variable prefix
	envPrefix = "AKS_ASSESSMENT"
)

// validLogLevels defines the allowed logging levels for the tool
var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
}

// LoadConfig loads configuration from an optional JSON file and environment
// variables. An empty configPath means file-less operation: defaults plus
// environment only. Environment variables use the AKS_ASSESSMENT_ prefix, for
// example AKS_ASSESSMENT_OUTPUT_DELIMITER=",".
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file at %s: %w", configPath, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// SetDefaults sets default values for any missing configuration fields.
// The output directory deliberately stays empty here; an empty or unusable
// value falls back to the executable's directory when the run starts.
func (c *Config) SetDefaults() {
	if c.Output.Delimiter == "" {
		c.Output.Delimiter = defaultDelimiter
	}
	if c.Agent.LogLevel == "" {
		c.Agent.LogLevel = defaultLogLevel
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Output.Delimiter) != 1 {
		return fmt.Errorf("invalid output.delimiter: %q. Must be a single character", c.Output.Delimiter)
	}
	if c.Output.Delimiter == "\n" || c.Output.Delimiter == "\r" || c.Output.Delimiter == "\"" {
		return fmt.Errorf("invalid output.delimiter: %q. Cannot be a quote or line break", c.Output.Delimiter)
	}
	if !validLogLevels[c.Agent.LogLevel] {
		return fmt.Errorf("invalid agent.logLevel: %s. Valid values are: debug, info, warning, error", c.Agent.LogLevel)
	}
	if sp := c.Azure.ServicePrincipal; sp != nil {
		if sp.TenantID == "" || sp.ClientID == "" || sp.ClientSecret == "" {
			return fmt.Errorf("incomplete azure.servicePrincipal: tenantId, clientId and clientSecret are all required")
		}
	}
	return nil
}
