package linkctl_config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flags maps command line flags onto config keys.
var Flags = map[string]string{
	"base-url": "api.base_url",
	"timeout":  "api.timeout",
	"cookies":  "session.cookie_file",
	"log":      "log.level",
}

// Load reads path (optional), LINKCTL_* env and the flags of fs listed in
// Flags, in increasing priority.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetDefault("app.name", "linkctl")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "15s")

	v.SetDefault("session.refresh_timeout", "10s")
	v.SetDefault("session.cookie_file", defaultCookieFile())

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "linkctl")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", false)

	v.SetEnvPrefix("linkctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range Flags {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.API.BaseURL == "" {
		return nil, ErrConfig("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return nil, ErrConfig("api.timeout must be positive")
	}
	if cfg.Session.RefreshTimeout <= 0 {
		return nil, ErrConfig("session.refresh_timeout must be positive")
	}
	return &cfg, nil
}

func defaultCookieFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "linkctl", "cookies.json")
}
