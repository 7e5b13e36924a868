// Package idle reports how long the user has been away from the keyboard and
// mouse. Each platform supplies its own probe; [System] returns the one for
// the running OS.
package idle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupported is returned when no idle source exists on this system.
var ErrUnsupported = errors.New("idle detection is not supported on this system")

// Probe reads the current idle time. Implementations must not block longer
// than the underlying query.
type Probe interface {
	IdleSeconds(ctx context.Context) (uint64, error)
}

// ProbeFunc adapts a function to [Probe].
type ProbeFunc func(ctx context.Context) (uint64, error)

func (f ProbeFunc) IdleSeconds(ctx context.Context) (uint64, error) { return f(ctx) }

// System returns the idle probe for the running platform.
func System() Probe {
	return ProbeFunc(systemIdleSeconds)
}

// ///////////////////////////////////////////////
// Output Parsing
// ///////////////////////////////////////////////

// hidIdleKey is the IOHIDSystem property holding idle time in nanoseconds.
var hidIdleKey = []byte(`"HIDIdleTime" = `)

// parseIOReg extracts HIDIdleTime from `ioreg -c IOHIDSystem` output.
func parseIOReg(out []byte) (uint64, error) {
	_, rest, ok := bytes.Cut(out, hidIdleKey)
	if !ok {
		return 0, errors.New("HIDIdleTime not found in ioreg output")
	}
	end := bytes.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		rest = rest[:end]
	}
	ns, err := strconv.ParseUint(string(rest), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing HIDIdleTime: %w", err)
	}
	return ns / 1e9, nil
}

// parseXprintidle converts xprintidle's millisecond output to seconds.
func parseXprintidle(out []byte) (uint64, error) {
	ms, err := strconv.ParseUint(string(bytes.TrimSpace(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing xprintidle output: %w", err)
	}
	return ms / 1000, nil
}
