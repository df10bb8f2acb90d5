package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TASKFLOW_STORE_LATENCY=400ms.
const EnvPrefix = "TASKFLOW"

// Load reads the config file at path on top of Default. A missing file is not an error.
// The file contents are checked against the embedded schema before environment overrides
// are applied.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	}
	if err := ValidateSettings(v.AllSettings()); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("store.latency", def.Store.Latency.String())
	v.SetDefault("store.seed", def.Store.Seed)
	v.SetDefault("ai.provider", def.AI.Provider)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.base_url", def.AI.BaseURL)
	v.SetDefault("ai.api_key", def.AI.APIKey)
	v.SetDefault("ai.api_key_env", def.AI.APIKeyEnv)
	v.SetDefault("ai.timeout", def.AI.Timeout.String())
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("defaults.status", string(def.Defaults.Status))
	v.SetDefault("defaults.priority", string(def.Defaults.Priority))
	v.SetDefault("view.sort_by", string(def.View.SortBy))
	v.SetDefault("view.sort_dir", string(def.View.SortDir))
	v.SetDefault("log.format", def.Log.Format)
}
