package logger

import (
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slog"

	"wordsync/internal/app/server/config"
	"wordsync/internal/utils/logger/handlers/slogpretty"
)

// New собирает логгер под окружение: local - цветной вывод для разработки,
// dev - JSON с debug, prod - JSON начиная с info.
func New(env string) *slog.Logger {
	return NewWithOptions(env, "", os.Stdout)
}

// NewWithOptions позволяет переопределить уровень (LOG_LEVEL) и поток вывода.
// Пустой или нераспознанный level оставляет уровень окружения.
func NewWithOptions(env, level string, out io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = setupPrettySlog(out, levelOr(level, slog.LevelDebug))
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)}),
		)
	}

	return log
}

func levelOr(level string, fallback slog.Level) slog.Level {
	var l slog.Level
	if level == "" || l.UnmarshalText([]byte(strings.ToUpper(level))) != nil {
		return fallback
	}
	return l
}

func setupPrettySlog(out io.Writer, level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(out)

	return slog.New(handler)
}

// Discard возвращает логгер, который ничего не пишет. Нужен в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
