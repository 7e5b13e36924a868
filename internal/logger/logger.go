// Package logger is richcord's slog setup: a single-line text handler
// writing to a size-rotated file, optionally mirrored to stderr.
//
// Line format:
//
//	2006-01-02T15:04:05.000Z [LEVEL] message | key=value, key2=value2
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ///////////////////////////////////////////////
// Levels
// ///////////////////////////////////////////////

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelFail  slog.Level = 12
)

var levelNames = []struct {
	level slog.Level
	name  string
}{
	{LevelTrace, "trace"},
	{LevelDebug, "debug"},
	{LevelInfo, "info"},
	{LevelWarn, "warn"},
	{LevelError, "error"},
	{LevelFail, "fail"},
}

func levelName(l slog.Level) string {
	for _, ln := range levelNames {
		if l <= ln.level {
			return strings.ToUpper(ln.name)
		}
	}
	return "FAIL"
}

// ParseLevel maps a level name to its slog.Level, case-insensitively.
// Unknown names map to LevelInfo.
func ParseLevel(s string) slog.Level {
	for _, ln := range levelNames {
		if strings.EqualFold(s, ln.name) {
			return ln.level
		}
	}
	return LevelInfo
}

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// ///////////////////////////////////////////////
// Handler
// ///////////////////////////////////////////////

var newline = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// Handler formats records as single lines. Copies made by WithAttrs and
// WithGroup share the writer lock.
type Handler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	prefix string // group path, "a.b."
	attrs  []byte // preformatted "k=v" pairs from WithAttrs
}

// NewHandler returns a Handler writing records at or above level to w.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{w: w, mu: &sync.Mutex{}, level: level}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
	buf.WriteString(" [")
	buf.WriteString(levelName(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	attrs := bytes.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})
	if len(attrs) > 0 {
		buf.WriteString(" | ")
		buf.Write(attrs)
	}
	buf.WriteString(newline)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = bytes.Clone(h.attrs)
	for _, a := range attrs {
		c.attrs = appendAttr(c.attrs, h.prefix, a)
	}
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// appendAttr writes a as prefix+key=value, flattening group values.
func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, prefix, ga)
		}
		return buf
	}
	if len(buf) > 0 {
		buf = append(buf, ", "...)
	}
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return append(buf, a.Value.String()...)
}

// ///////////////////////////////////////////////
// Constructor
// ///////////////////////////////////////////////

// Options configures [New].
type Options struct {
	// Path is the log file. Empty disables the file sink.
	Path string
	// Level is the minimum level written to either sink.
	Level slog.Level
	// MaxSizeMB rotates the file once it reaches this size.
	MaxSizeMB int
	// Mirror, when set, receives a copy of every record (--verbose).
	Mirror io.Writer
}

// New builds a logger from opts. The returned Closer flushes and closes the
// log file.
func New(opts Options) (*slog.Logger, io.Closer) {
	var (
		sinks  []io.Writer
		closer io.Closer = nopCloser{}
	)
	if opts.Path != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
		}
		sinks = append(sinks, lj)
		closer = lj
	}
	if opts.Mirror != nil {
		sinks = append(sinks, opts.Mirror)
	}

	w := io.Discard
	if len(sinks) > 0 {
		w = io.MultiWriter(sinks...)
	}
	return slog.New(NewHandler(w, opts.Level)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
