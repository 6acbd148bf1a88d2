package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlatEnvMapsKeys(t *testing.T) {
	target := viper.New()
	setDefaults(target)

	source := viper.New()
	source.Set("DB_PATH", "/var/lib/tmorder/orders.db")
	source.Set("TELEGRAM_BOT_TOKEN", "123:abc")

	bindFlatEnv(target, source)

	assert.Equal(t, "/var/lib/tmorder/orders.db", target.GetString("database.path"))
	assert.Equal(t, "123:abc", target.GetString("telegram.token"))
	// unmapped keys keep their defaults
	assert.Equal(t, "0.0.0.0:8080", target.GetString("http.addr"))
}

func TestBindFlatEnvRealEnvironmentWins(t *testing.T) {
	t.Setenv("TMORDER_DATABASE_PATH", "/from/env.db")

	target := viper.New()
	target.SetEnvPrefix("TMORDER")
	target.SetEnvKeyReplacer(newEnvReplacer())
	target.AutomaticEnv()
	setDefaults(target)

	source := viper.New()
	source.Set("DB_PATH", "/from/dotenv.db")
	source.Set("LOG_LEVEL", "debug")

	bindFlatEnv(target, source)

	// the exported variable keeps precedence over the .env entry
	assert.Equal(t, "/from/env.db", target.GetString("database.path"))
	// keys without a real environment counterpart still come from .env
	assert.Equal(t, "debug", target.GetString("log.level"))
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr)
	assert.Equal(t, "data/tmorder.db", cfg.DB.Path)
	assert.True(t, cfg.Reminder.Enabled)
	assert.False(t, cfg.Telegram.Enabled)
	assert.Equal(t, "tmorder", cfg.Metrics.Namespace)
}
