package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Manager loads service configuration from a local YAML file with
// environment-variable overrides. Env keys mirror config keys with
// dots replaced by underscores, upper-cased and prefixed with ATLAS_
// (server.http.addr becomes ATLAS_SERVER_HTTP_ADDR).
type Manager struct {
	viper *viper.Viper
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		viper: viper.New(),
	}
}

// LoadConfig reads the file at configPath. A missing file is not fatal
// when env vars carry the full configuration.
func (m *Manager) LoadConfig(configPath string) error {
	m.viper.SetEnvPrefix("ATLAS")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	if configPath == "" {
		return nil
	}
	m.viper.SetConfigFile(configPath)

	if err := m.viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config failed: %w", err)
	}
	return nil
}

// Unmarshal decodes the full configuration into rawVal.
func (m *Manager) Unmarshal(rawVal interface{}) error {
	return m.viper.Unmarshal(rawVal)
}

// UnmarshalKey decodes one subtree into rawVal.
func (m *Manager) UnmarshalKey(key string, rawVal interface{}) error {
	return m.viper.UnmarshalKey(key, rawVal)
}

func (m *Manager) GetString(key string) string {
	return m.viper.GetString(key)
}

func (m *Manager) GetInt(key string) int {
	return m.viper.GetInt(key)
}

func (m *Manager) GetBool(key string) bool {
	return m.viper.GetBool(key)
}

func (m *Manager) GetDuration(key string) time.Duration {
	return m.viper.GetDuration(key)
}

func (m *Manager) IsSet(key string) bool {
	return m.viper.IsSet(key)
}

// Viper exposes the underlying instance.
func (m *Manager) Viper() *viper.Viper {
	return m.viper
}

// GetEnv returns an environment variable or the fallback.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt returns an integer environment variable or the fallback.
func GetEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetEnvAsBool returns a boolean environment variable or the fallback.
func GetEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetEnvAsSlice splits a comma-separated environment variable, or
// returns the fallback.
func GetEnvAsSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
