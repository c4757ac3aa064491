// Package config loads the service configuration from config.yml with
// environment-variable overrides, validated with go-playground/validator.
package config
