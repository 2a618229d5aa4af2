package logging

import (
	"io"
	"os"

	"todo-web/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds configuration for logging
type LogConfig struct {
	Enabled    bool   // Enable/disable file logging
	FilePath   string // Path to log file
	MaxSize    int    // Maximum size in megabytes before rotation
	MaxBackups int    // Maximum number of old log files to retain
	MaxAge     int    // Maximum number of days to retain old log files
	Compress   bool   // Compress rotated log files
	Level      string // Log level (trace, debug, info, warn, error, fatal, panic)
	JSONFormat bool   // Use JSON format instead of text
}

// Logger is the global logger instance. It writes to stderr until InitLogger runs.
var Logger = logrus.New()

// NewLogConfigFromEnv creates a LogConfig from environment variables
func NewLogConfigFromEnv() *LogConfig {
	return &LogConfig{
		Enabled:    config.GetEnvBool("LOG_FILE_ENABLED", true),
		FilePath:   config.GetEnv("LOG_FILE_PATH", "./logs/todo-web.log"),
		MaxSize:    config.GetEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: config.GetEnvInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     config.GetEnvInt("LOG_MAX_AGE_DAYS", 28),
		Compress:   config.GetEnvBool("LOG_COMPRESS", true),
		Level:      config.GetEnv("LOG_LEVEL", "info"),
		JSONFormat: config.GetEnvBool("LOG_JSON_FORMAT", false),
	}
}

// NewLogger builds a logger writing to console and, when enabled, to a rotated file
func NewLogger(cfg *LogConfig, console io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(console)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.Warnf("Invalid log level '%s', using 'info'", cfg.Level)
	}
	logger.SetLevel(level)

	if cfg.JSONFormat {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if !cfg.Enabled || cfg.FilePath == "" {
		return logger
	}

	logger.SetOutput(io.MultiWriter(console, &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}))
	return logger
}

// InitLogger replaces the global logger with one built from cfg, logging to stdout
func InitLogger(cfg *LogConfig) *logrus.Logger {
	Logger = NewLogger(cfg, os.Stdout)

	if cfg.Enabled && cfg.FilePath != "" {
		Logger.Infof("File logging enabled: %s (max size: %dMB, max backups: %d, max age: %d days)",
			cfg.FilePath, cfg.MaxSize, cfg.MaxBackups, cfg.MaxAge)
	} else {
		Logger.Info("File logging disabled, logging to stdout only")
	}
	return Logger
}

// ForOperation returns an entry tagged with the acting user and the operation name
func ForOperation(userID, operation string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"operation": operation,
	})
}
