// Package config loads runtime configuration from environment variables
// using envconfig struct tags, with sane defaults for local development.
package config
