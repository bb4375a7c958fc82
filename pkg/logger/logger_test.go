package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newTestLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	return slog.New(NewCustomHandler(&buf, slog.HandlerOptions{Level: level})), &buf
}

func TestHandlerFormat(t *testing.T) {
	log, buf := newTestLogger(slog.LevelDebug)

	log.Info("Playlist ready", "segments", 2, "duration", 15.5)
	got := buf.String()
	if !strings.Contains(got, "INFO  > Playlist ready segments=2 duration=15.5\n") {
		t.Errorf("Unexpected line %q", got)
	}
}

func TestHandlerLevel(t *testing.T) {
	log, buf := newTestLogger(slog.LevelInfo)

	log.Debug("hidden")
	log.Log(context.Background(), LevelTrace, "hidden too")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "WARN  > shown") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestHandlerAttrsAndGroups(t *testing.T) {
	log, buf := newTestLogger(slog.LevelDebug)

	log.With("origin", "https://rezka.ag").WithGroup("req").Info("Sending request", "method", "GET", slog.Group("page", "n", 2))
	got := buf.String()
	for _, part := range []string{" origin=https://rezka.ag", " req.method=GET", " req.page.n=2"} {
		if !strings.Contains(got, part) {
			t.Errorf("Expected %q in %q", part, got)
		}
	}
}
