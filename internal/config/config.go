package config

import (
	"log/slog"
	"time"
)

// Config aggregates every runtime setting for the order reminder service.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"database"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	AddSource   bool   `mapstructure:"add_source"`
	Environment string `mapstructure:"environment"`
}

// DBConfig locates the SQLite database file.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// CalendarConfig holds the ICS feed credential. An empty token means one is
// generated at startup and persisted in settings.
type CalendarConfig struct {
	Token string `mapstructure:"token"`
}

// TelegramConfig configures the chat bot and notification channel.
type TelegramConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Token       string        `mapstructure:"token"`
	APIBase     string        `mapstructure:"api_base"`
	AdminChatID int64         `mapstructure:"admin_chat_id"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// ReminderConfig controls the background deadline scan.
type ReminderConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Token     string    `mapstructure:"token"`
	Buckets   []float64 `mapstructure:"buckets"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
