// Package config loads the application configuration from a YAML file and
// BEDROCK_ prefixed environment variables.
package config
