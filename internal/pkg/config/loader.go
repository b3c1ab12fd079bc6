// Package config provides fail-open configuration loading for background
// components. A malformed or out-of-range environment value is replaced by
// its default and reported as a warning; it never stops the process.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Loaded is the outcome of reading one setting.
type Loaded[T any] struct {
	Value T

	// Warning explains the fallback when FallbackApplied is set.
	Warning         string
	FallbackApplied bool
}

// LoadEnv reads envKey, parses it and validates the result. An unset or empty
// variable yields defaultValue without a warning; a parse or validation
// failure yields defaultValue with one. validate may be nil.
func LoadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) Loaded[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return Loaded[T]{Value: defaultValue}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Loaded[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}
	return Loaded[T]{Value: v}
}

// LoadEnvString reads a string setting.
func LoadEnvString(envKey, defaultValue string, validate func(string) error) Loaded[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvInt reads a base-10 integer setting.
func LoadEnvInt(envKey string, defaultValue int, validate func(int) error) Loaded[int] {
	return LoadEnv(envKey, defaultValue, strconv.Atoi, validate)
}

// LoadEnvDuration reads a setting in time.ParseDuration format.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validate func(time.Duration) error) Loaded[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validate)
}
