package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

const (
	DefaultConfigPath = "~/.remindd/config.yaml"
	EnvPrefix         = "REMINDD_"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"storage": map[string]interface{}{
			"driver": "sqlite",
			"path":   "~/.remindd/remindd.db",
			"key":    "reminders",
		},
		"notifications": map[string]interface{}{
			"enabled":          false,
			"title":            "Reminder",
			"icon":             "",
			"cancel_on_delete": false,
			"rearm_on_start":   false,
			"buffer":           64,
		},
		"log": map[string]interface{}{
			"level": "info",
			"file":  "~/.remindd/remindd.log",
		},
		"ui": map[string]interface{}{
			"watch": true,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
