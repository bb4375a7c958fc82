package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// LevelTrace is a custom log level for trace logs.
const LevelTrace = slog.LevelDebug - 4

// Level names and colors
var levelNames = map[slog.Level]string{
	LevelTrace:      "TRACE",
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO ",
	slog.LevelWarn:  "WARN ",
	slog.LevelError: "ERROR",
}

var levelColors = map[slog.Level]*color.Color{
	LevelTrace:      color.New(color.FgMagenta),
	slog.LevelDebug: color.New(color.FgBlue),
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

// CustomHandler is a custom slog handler for pretty printing.
type CustomHandler struct {
	w      io.Writer
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string
}

func NewCustomHandler(w io.Writer, opts slog.HandlerOptions) *CustomHandler {
	return &CustomHandler{w: w, opts: opts, mu: &sync.Mutex{}}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	levelName := levelNames[r.Level]
	if levelName == "" {
		levelName = r.Level.String()
	}

	colorAttr := levelColors[r.Level]
	var levelStr string
	if colorAttr != nil {
		levelStr = colorAttr.Sprint(levelName)
	} else {
		levelStr = levelName
	}

	timeStr := r.Time.Format("15:04:05.000")

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s > %s", timeStr, levelStr, r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range group {
			writeAttr(b, prefix, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value)
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// InitDefaultLogger initializes the global logger with the specified debug level.
func InitDefaultLogger(debug bool, logFilePath string) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var writer io.Writer = os.Stderr

	// only write to file if user set logfile path
	if logFilePath != "" {
		// os.O_APPEND: Add to the end of the file
		// os.O_CREATE: Create it if it doesn't exist
		// os.O_WRONLY: Open for writing only
		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		} else {
			writer = io.MultiWriter(os.Stderr, f)
		}
	}

	handler := NewCustomHandler(writer, slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
