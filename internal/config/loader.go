package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from config.yaml, the environment and an optional
// .env file, in ascending priority. Missing files are fine; defaults cover a
// local single-process setup.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tmorder/")

	v.SetEnvPrefix("TMORDER")
	v.SetEnvKeyReplacer(newEnvReplacer())
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := loadDotEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/tmorder.db")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", "30s")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.interval", "15m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "tmorder")
	v.SetDefault("metrics.subsystem", "http")
}

func loadDotEnv(v *viper.Viper) error {
	candidates := []string{".", "..", "../.."}
	for _, path := range candidates {
		file := filepath.Clean(filepath.Join(path, ".env"))
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat .env: %w", err)
		}

		// .env gets its own viper instance so flat keys cannot collide with
		// the hierarchical yaml keys
		envViper := viper.New()
		envViper.SetConfigFile(file)
		envViper.SetConfigType("env")
		if err := envViper.ReadInConfig(); err != nil {
			return fmt.Errorf("read .env: %w", err)
		}

		bindFlatEnv(v, envViper)
	}
	return nil
}

// bindFlatEnv maps flat .env keys onto the hierarchical structure. Set has
// the highest viper precedence, so a key is skipped when its TMORDER_
// environment variable is present; the real environment stays authoritative.
func bindFlatEnv(target *viper.Viper, source *viper.Viper) {
	mappings := map[string]string{
		"HTTP_ADDR":              "http.addr",
		"SHUTDOWN_TIMEOUT":       "http.shutdown_timeout",
		"LOG_LEVEL":              "log.level",
		"LOG_FORMAT":             "log.format",
		"LOG_ADD_SOURCE":         "log.add_source",
		"ENV":                    "log.environment",
		"APP_ENV":                "log.environment",
		"DB_PATH":                "database.path",
		"TMORDER_DB_PATH":        "database.path",
		"CALENDAR_TOKEN":         "calendar.token",
		"TELEGRAM_ENABLED":       "telegram.enabled",
		"TELEGRAM_BOT_TOKEN":     "telegram.token",
		"TELEGRAM_API_BASE":      "telegram.api_base",
		"TELEGRAM_ADMIN_CHAT_ID": "telegram.admin_chat_id",
		"REMINDER_ENABLED":       "reminder.enabled",
		"REMINDER_INTERVAL":      "reminder.interval",
	}

	for oldKey, newKey := range mappings {
		val := source.GetString(oldKey)
		if val == "" {
			continue
		}
		if _, ok := os.LookupEnv(envVarFor(newKey)); ok {
			continue
		}
		target.Set(newKey, val)
	}
}

func envVarFor(key string) string {
	return "TMORDER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func newEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}
