package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func lines(buf *bytes.Buffer) []string {
	out := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\n")
	for i := range out {
		out[i] = strings.TrimRight(out[i], "\r")
	}
	return out
}

// ///////////////////////////////////////////////
// Handler
// ///////////////////////////////////////////////

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, LevelInfo)).Info("presence published", "fields", 2, "mode", "stream")

	line := lines(&buf)[0]
	ts, rest, ok := strings.Cut(line, " [")
	if !ok || !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC timestamp, got %q", line)
	}
	if rest != "INFO] presence published | fields=2, mode=stream" {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestHandler_NoAttrs(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, LevelInfo)).Info("connected")

	if strings.Contains(buf.String(), "|") {
		t.Fatalf("expected no separator, got %q", buf.String())
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LevelWarn))
	log.Info("hidden")
	log.Warn("shown")

	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, LevelInfo).WithAttrs([]slog.Attr{slog.String("mode", "afk")}).WithGroup("probe")
	slog.New(h).Info("idle", "seconds", 30, slog.Group("window", "from", 1, "to", 2))

	want := "mode=afk, probe.seconds=30, probe.window.from=1, probe.window.to=2"
	if !strings.HasSuffix(lines(&buf)[0], want) {
		t.Fatalf("got %q, want suffix %q", lines(&buf)[0], want)
	}
}

func TestHandler_WithGroupEmpty(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, LevelInfo)
	if h.WithGroup("") != h {
		t.Fatal("empty group should return the same handler")
	}
}

func TestHandler_SharedLock(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, LevelInfo)
	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(*Handler)
	if h.mu != h2.mu {
		t.Fatal("WithAttrs should share the writer lock")
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() { defer wg.Done(); slog.New(h).Info("a") }()
		go func() { defer wg.Done(); slog.New(h2).Info("b") }()
	}
	wg.Wait()

	if n := len(lines(&buf)); n != 100 {
		t.Fatalf("expected 100 lines, got %d", n)
	}
}

// ///////////////////////////////////////////////
// Levels
// ///////////////////////////////////////////////

func TestLevels(t *testing.T) {
	tests := []struct {
		input string
		level slog.Level
		name  string
	}{
		{"trace", LevelTrace, "TRACE"},
		{"DEBUG", LevelDebug, "DEBUG"},
		{"info", LevelInfo, "INFO"},
		{"Warn", LevelWarn, "WARN"},
		{"error", LevelError, "ERROR"},
		{"fail", LevelFail, "FAIL"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.level {
				t.Errorf("ParseLevel(%q) = %d, want %d", tt.input, got, tt.level)
			}
			if got := levelName(tt.level); got != tt.name {
				t.Errorf("levelName(%d) = %q, want %q", tt.level, got, tt.name)
			}
		})
	}
	if ParseLevel("loud") != LevelInfo {
		t.Error("unknown level should map to info")
	}
}

// ///////////////////////////////////////////////
// New
// ///////////////////////////////////////////////

func TestNew_FileAndMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "richcord.log")
	var mirror bytes.Buffer

	log, closer := New(Options{Path: path, Level: LevelDebug, MaxSizeMB: 1, Mirror: &mirror})
	log.Debug("session connected")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "session connected") {
		t.Errorf("file missing record: %q", data)
	}
	if !strings.Contains(mirror.String(), "[DEBUG] session connected") {
		t.Errorf("mirror missing record: %q", mirror.String())
	}
}

func TestNew_NoSinks(t *testing.T) {
	log, closer := New(Options{})
	log.Info("dropped")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
