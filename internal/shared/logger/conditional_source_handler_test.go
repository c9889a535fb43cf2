package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionalSourceHandler(t *testing.T) {
	warnAndError := []slog.Level{slog.LevelWarn, slog.LevelError}
	all := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

	tests := []struct {
		name             string
		level            slog.Level
		showSourceLevels []slog.Level
		shouldHaveSource bool
	}{
		{name: "info without source config", level: slog.LevelInfo, showSourceLevels: warnAndError},
		{name: "warn with source config", level: slog.LevelWarn, showSourceLevels: warnAndError, shouldHaveSource: true},
		{name: "error with source config", level: slog.LevelError, showSourceLevels: warnAndError, shouldHaveSource: true},
		{name: "info in debug mode", level: slog.LevelInfo, showSourceLevels: all, shouldHaveSource: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			log := slog.New(NewConditionalSourceHandler(base, tt.showSourceLevels...))

			log.Log(context.Background(), tt.level, "ticket refreshed")

			output := buf.String()
			assert.Contains(t, output, "ticket refreshed")
			if tt.shouldHaveSource {
				assert.Contains(t, output, "source=")
				assert.Contains(t, output, "conditional_source_handler_test.go")
			} else {
				assert.NotContains(t, output, "source=")
			}
		})
	}
}

func TestConditionalSourceHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	log := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).
		With("component", "gateway").
		WithGroup("request")

	log.Error("request failed", "method", "GET")

	output := buf.String()
	assert.Contains(t, output, "component=gateway")
	assert.Contains(t, output, "request.method=GET")
	assert.Contains(t, output, "source=")
}
