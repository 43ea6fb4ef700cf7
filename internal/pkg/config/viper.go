package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: app.env is read from MEDICORE_APP_ENV.
const EnvPrefix = "MEDICORE"

// Viper implements Config on spf13/viper. Defaults are applied first, then
// the file, then MEDICORE_* environment variables.
type Viper struct {
	v *viper.Viper

	mu        sync.Mutex
	listeners []func()
}

func load(read func(*viper.Viper) error) (*Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := read(v); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return &Viper{v: v}, nil
}

// NewViper reads file and watches it. Reloads notify OnChange listeners.
func NewViper(file string) (*Viper, error) {
	vc, err := load(func(v *viper.Viper) error {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	})
	if err != nil {
		return nil, err
	}

	vc.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", e.Name, "op", e.Op.String())
		vc.notify()
	})
	vc.v.WatchConfig()

	return vc, nil
}

// NewViperFromBytes reads an in-memory document of configType (yaml, json,
// toml). Used by tests.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: type is required")
	}

	return load(func(v *viper.Viper) error {
		v.SetConfigType(configType)
		return v.ReadConfig(bytes.NewReader(data))
	})
}

func (vc *Viper) OnChange(fn func()) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.listeners = append(vc.listeners, fn)
}

func (vc *Viper) notify() {
	vc.mu.Lock()
	fns := make([]func(), len(vc.listeners))
	copy(fns, vc.listeners)
	vc.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetInt64(key string) int64     { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint(key string) uint       { return vc.v.GetUint(key) }
func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }
func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }

func (vc *Viper) duration(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

func (vc *Viper) GetSecond(key string) time.Duration { return vc.duration(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.duration(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.duration(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration    { return vc.duration(key, 24*time.Hour) }

// GetBinary decodes a standard base64 value. Invalid input yields nil.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray accepts a native list or a comma separated string. Elements are
// trimmed and blanks dropped.
func (vc *Viper) GetArray(key string) []string {
	var raw []string
	if s, ok := vc.v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = vc.v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetMap parses "k:v" elements of GetArray. Elements without a colon are skipped.
func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range vc.GetArray(key) {
		if k, v, ok := strings.Cut(pair, ":"); ok {
			m[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return m
}

func (vc *Viper) Close() error {
	return nil
}
