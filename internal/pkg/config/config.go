package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
// A missing or non-numeric value yields zero.
type TimeConfig interface {
	// GetSecond returns the value for key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute returns the value for key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetHour returns the value for key as a number of hours.
	GetHour(key string) time.Duration
	// GetDay returns the value for key as a number of days (24h).
	GetDay(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations handle type conversion and return zero values for missing keys.
type Config interface {
	io.Closer
	TimeConfig

	// GetInt returns the value for key as an int.
	GetInt(key string) int
	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64
	// GetUint returns the value for key as a uint.
	GetUint(key string) uint
	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64
	// GetBool returns the value for key as a bool.
	GetBool(key string) bool
	// GetString returns the value for key as a string.
	GetString(key string) string

	// GetBinary returns the base64-decoded value for key.
	GetBinary(key string) []byte

	// GetArray returns the value for key as a slice of strings.
	// The value is stored as <element1>,<element2>,... or as a native list.
	GetArray(key string) []string

	// GetMap returns the value for key parsed from <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string

	// OnChange registers fn to run after the configuration file is reloaded.
	OnChange(fn func())
}
