package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vodhub/internal/config"
)

// New builds the root logger from configuration and installs it as the
// zerolog global so packages can use log.Logger directly.
func New(cfg config.LoggingConfig) zerolog.Logger {
	var w io.Writer = os.Stdout
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger
	return logger
}

// ForVideo returns a child logger tagged with the video id, the unit most
// log lines in the pipeline hang off.
func ForVideo(logger zerolog.Logger, videoID string) zerolog.Logger {
	return logger.With().Str("video_id", videoID).Logger()
}

// ForComponent returns a child logger tagged with a component name.
func ForComponent(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
