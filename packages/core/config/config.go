package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the hitreq configuration
type Config struct {
	Timeout       int      `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
	MaxRedirects  int      `yaml:"maxRedirects,omitempty" json:"maxRedirects,omitempty"`
	Headers       []string `yaml:"headers,omitempty" json:"headers,omitempty"` // "Name: value" lines sent with every request
	CookieJar     string   `yaml:"cookieJar,omitempty" json:"cookieJar,omitempty"`
	IncludeHeader *bool    `yaml:"includeHeader,omitempty" json:"includeHeader,omitempty"`
	InsecureHTTPS *bool    `yaml:"insecureHttps,omitempty" json:"insecureHttps,omitempty"`
	Proxy         string   `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	UserAgent     string   `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`
	RateLimit     float64  `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"` // requests per second
	EnvFile       string   `yaml:"envFile,omitempty" json:"envFile,omitempty"`
	Verbose       *bool    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	NoColor       *bool    `yaml:"noColor,omitempty" json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetIncludeHeader returns the header capture setting, defaulting to false
func (c *Config) GetIncludeHeader() bool {
	return getBool(c.IncludeHeader, false)
}

// GetInsecureHTTPS returns the insecure https setting, defaulting to false
func (c *Config) GetInsecureHTTPS() bool {
	return getBool(c.InsecureHTTPS, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".hitreq.yaml",
	".hitreq.yml",
	"hitreq.yaml",
	".hitreq.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. JSON files
// parse as YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if config.Timeout < 0 {
		return nil, fmt.Errorf("parsing %s: timeout must not be negative", path)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.CookieJar != "" {
		result.CookieJar = other.CookieJar
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.IncludeHeader != nil {
		result.IncludeHeader = other.IncludeHeader
	}
	if other.InsecureHTTPS != nil {
		result.InsecureHTTPS = other.InsecureHTTPS
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Headers accumulate; later lines override earlier ones of the same name
	if len(other.Headers) > 0 {
		result.Headers = append(append([]string{}, c.Headers...), other.Headers...)
	}

	return &result
}

// SaveConfig writes the configuration to path as YAML
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
