// Package config handles configuration loading and management for hitreq.
//
// It provides functionality for:
//   - Loading configuration from .hitreq.yaml, .hitreq.yml, hitreq.yaml or
//     .hitreq.config.json files
//   - Default configuration values
//   - Merging file settings with command line overrides
package config
