package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/harunnryd/callout/pkg/redact"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level  slog.Level
	Format string // "json" or "text"
	Dir    string // application log directory; empty logs to console only
	Now    func() time.Time
}

// Setup initializes the process logger. Records go to the console and,
// when a directory is configured, to a date-stamped application log
// file (appl_log_<YYYYMMDD>.log) with size-based rotation. String
// attributes pass through the redact filter when it is enabled.
func Setup(opts Options) *slog.Logger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var w io.Writer = os.Stdout
	if opts.Dir != "" {
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, fmt.Sprintf("appl_log_%s.log", now().Format("20060102"))),
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	hopts := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: redactAttr,
	}
	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(w, hopts)
	} else {
		handler = slog.NewJSONHandler(w, hopts)
	}
	return slog.New(handler)
}

// NewComponentLogger creates a component-specific logger with context.
// It adds the component name to all log messages for better traceability.
func NewComponentLogger(base *slog.Logger, component string) *slog.Logger {
	return base.With(
		slog.String("component", component),
	)
}

func redactAttr(groups []string, a slog.Attr) slog.Attr {
	if !redact.Enabled() {
		return a
	}
	if a.Value.Kind() == slog.KindString {
		a.Value = slog.StringValue(redact.Text(a.Value.String()))
	}
	return a
}
