package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sandeepkv93/remindd/internal/storage"
)

type Config struct {
	Storage       StorageConfig       `koanf:"storage"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Log           LogConfig           `koanf:"log"`
	UI            UIConfig            `koanf:"ui"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	Key    string `koanf:"key"`
}

type NotificationsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Title          string `koanf:"title"`
	Icon           string `koanf:"icon"`
	CancelOnDelete bool   `koanf:"cancel_on_delete"`
	RearmOnStart   bool   `koanf:"rearm_on_start"`
	Buffer         int    `koanf:"buffer"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

type UIConfig struct {
	Watch bool `koanf:"watch"`
}

// Load layers defaults, the optional YAML file at configPath, and REMINDD_
// environment variables, in that order.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Notifications.Icon = expandPath(cfg.Notifications.Icon)
	return &cfg, nil
}

// envKey maps REMINDD_NOTIFICATIONS_CANCEL_ON_DELETE to
// notifications.cancel_on_delete. Only the first underscore is a separator.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) Validate() error {
	if !storage.Driver(c.Storage.Driver).IsValid() {
		return fmt.Errorf("unknown storage driver: %s (supported: %s, %s, %s)",
			c.Storage.Driver, storage.DriverSQLite, storage.DriverFile, storage.DriverMemory)
	}
	if c.Storage.Driver != string(storage.DriverMemory) && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage path is required for driver %s", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key is required")
	}
	if c.Notifications.Buffer <= 0 {
		return fmt.Errorf("notifications buffer must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func ParseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
