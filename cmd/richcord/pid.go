package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ///////////////////////////////////////////////
// PID Lock
// ///////////////////////////////////////////////

// errAlreadyRunning means another --afk instance holds the PID lock.
var errAlreadyRunning = errors.New("richcord --afk is already running")

// pidLock is a held advisory lock on the PID file. The file content is
// "PID:TOKEN"; the token lets Release leave a file written by another
// instance alone.
type pidLock struct {
	path  string
	token string
	f     *os.File
}

// acquirePID locks the PID file at path, creating it and its directory when
// missing.
func acquirePID(path string) (*pidLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		if pid := readPID(path); pid > 0 {
			return nil, fmt.Errorf("%w (pid %d)", errAlreadyRunning, pid)
		}
		return nil, errAlreadyRunning
	}

	l := &pidLock{path: path, token: uuid.NewString(), f: f}
	if err := f.Truncate(0); err != nil {
		l.Release()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d:%s", os.Getpid(), l.token); err != nil {
		l.Release()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return l, nil
}

// Release unlocks and removes the PID file if this instance still owns it.
func (l *pidLock) Release() {
	if err := unlockFile(l.f); err != nil {
		slog.Debug("unlock PID file", "error", err)
	}
	l.f.Close()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	if _, token, ok := strings.Cut(string(data), ":"); ok && token == l.token {
		os.Remove(l.path)
	}
}

// readPID returns the PID stored in the file at path, or 0.
func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pidStr, _, _ := strings.Cut(string(data), ":")
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0
	}
	return pid
}
