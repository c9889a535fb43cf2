package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/orris-inc/kanban/internal/shared/config"
)

var Logger *slog.Logger

// Init builds the process logger. Board output goes to stdout, so logs
// default to stderr.
func Init(cfg *config.LoggerConfig) error {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))

	var writer io.Writer
	switch strings.ToLower(cfg.OutputPath) {
	case "stderr", "":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		file, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writer = file
	}

	// warn and error carry source by default, every level in debug mode
	showSourceLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.Debug {
		showSourceLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	}

	Logger = slog.New(NewConditionalSourceHandler(newBaseHandler(writer, cfg.Format, level), showSourceLevels...))
	slog.SetDefault(Logger)

	return nil
}

func newBaseHandler(writer io.Writer, format string, level slog.Leveler) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(writer),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
}

// ParseLevel maps a config level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func Get() *slog.Logger {
	if Logger == nil {
		level := new(slog.LevelVar)
		Logger = slog.New(NewConditionalSourceHandler(newBaseHandler(os.Stderr, "console", level), slog.LevelWarn, slog.LevelError))
		slog.SetDefault(Logger)
	}
	return Logger
}
