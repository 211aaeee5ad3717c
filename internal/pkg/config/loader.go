// Package config provides reusable environment-variable loading and
// validation helpers shared by the component configurations (worker,
// fetcher, summarizer, notifier). Loading is fail-open: an invalid value
// falls back to the default with a warning instead of refusing to start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one configuration value.
// Value holds the loaded (or fallback) value; Warnings carries one message
// per fallback applied; FallbackApplied is true when the default was used
// because the environment value failed validation.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString loads a string from an environment variable, returning the
// default when the variable is unset or empty. No validation is applied.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string from an environment variable, validates
// it, and falls back to the default (with a warning) on validation failure.
// An unset variable uses the default silently.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	if err := validator(value); err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is invalid (%v), using default %q", envKey, value, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration loads a time.Duration (Go duration syntax, e.g. "30m")
// from an environment variable with validation and fallback semantics
// matching LoadEnvWithFallback.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is not a valid duration (%v), using default %s", envKey, value, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return ConfigLoadResult{
				Value: defaultValue,
				Warnings: []string{
					fmt.Sprintf("%s=%s rejected (%v), using default %s", envKey, parsed, err, defaultValue),
				},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt loads an integer from an environment variable with validation
// and fallback semantics matching LoadEnvWithFallback.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is not an integer (%v), using default %d", envKey, value, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return ConfigLoadResult{
				Value: defaultValue,
				Warnings: []string{
					fmt.Sprintf("%s=%d rejected (%v), using default %d", envKey, parsed, err, defaultValue),
				},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool loads a boolean ("true"/"false"/"1"/"0") from an environment
// variable, falling back to the default on any unparsable value.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is not a boolean (%v), using default %t", envKey, value, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	return ConfigLoadResult{Value: parsed}
}
