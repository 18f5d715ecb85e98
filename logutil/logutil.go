// Package logutil stellt den slog-Logger und ein Trace-Level bereit.
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace liegt unterhalb von Debug (CLIP_DEBUG=2)
const LevelTrace slog.Level = -8

// NewLogger erstellt einen Text-Logger mit Quellangabe und Trace-Level
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// Trace loggt auf LevelTrace mit korrekter Quellangabe
func Trace(msg string, args ...any) {
	trace(context.Background(), msg, args...)
}

// TraceContext loggt auf LevelTrace mit Context
func TraceContext(ctx context.Context, msg string, args ...any) {
	trace(ctx, msg, args...)
}

func trace(ctx context.Context, msg string, args ...any) {
	logger := slog.Default()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
	r.Add(args...)
	_ = logger.Handler().Handle(ctx, r)
}
