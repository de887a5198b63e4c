package config

const (
	DefaultTimeout      = 30 // seconds
	DefaultMaxRedirects = 30
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		MaxRedirects:  DefaultMaxRedirects,
		IncludeHeader: BoolPtr(false),
		InsecureHTTPS: BoolPtr(false),
		Verbose:       BoolPtr(false),
		NoColor:       BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.MaxRedirects == defaults.MaxRedirects &&
		len(c.Headers) == 0 &&
		c.CookieJar == defaults.CookieJar &&
		c.GetIncludeHeader() == defaults.GetIncludeHeader() &&
		c.GetInsecureHTTPS() == defaults.GetInsecureHTTPS() &&
		c.Proxy == defaults.Proxy &&
		c.UserAgent == defaults.UserAgent &&
		c.RateLimit == defaults.RateLimit &&
		c.EnvFile == defaults.EnvFile &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
