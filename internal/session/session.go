// Package session owns the connection to the presence transport for the
// lifetime of a single mode driver run.
//
// A [Session] moves through Disconnected, Connecting and Connected, and ends
// in Disconnected. There is no automatic reconnect: once a publish fails or
// the session is closed it stays closed.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tools.zach/dev/richcord/internal/discord"
	"tools.zach/dev/richcord/internal/presence"
)

// Transport is the IPC client a Session drives. [*discord.Client] satisfies
// it.
type Transport interface {
	Connect() error
	SetActivity(*discord.Activity) error
	ClearActivity() error
	Close() error
}

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

// ErrClosed is returned when publishing on a session that is no longer
// connected.
var ErrClosed = errors.New("session closed")

// ConnectError means the transport could not be reached or the handshake was
// rejected.
type ConnectError struct {
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("connect to discord (%d attempts): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("connect to discord: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TransportError means a publish or clear failed on an established
// connection. The session is closed when one is returned.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ///////////////////////////////////////////////
// State
// ///////////////////////////////////////////////

// State is the connection state of a Session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options tunes [Open].
type Options struct {
	// ConnectAttempts is the number of connect tries before giving up.
	// Values below 1 mean a single attempt.
	ConnectAttempts int
	// RetryInterval is the pause between failed connect attempts.
	RetryInterval time.Duration
	// Started is the reference instant for enable_time. Defaults to the
	// moment the connection is established.
	Started time.Time
}

// Session is a connected transport plus the bookkeeping needed to publish
// presence over it. A Session is owned by one driver and is not shared.
type Session struct {
	transport Transport
	started   time.Time

	mu    sync.Mutex
	state State
}

// ///////////////////////////////////////////////
// Lifecycle
// ///////////////////////////////////////////////

// Open connects t, retrying per opts, and returns a Connected session. The
// context bounds both the connect calls and the waits between them.
func Open(ctx context.Context, t Transport, opts Options) (*Session, error) {
	attempts := max(opts.ConnectAttempts, 1)
	s := &Session{transport: t, state: Connecting}

	var err error
	for i := range attempts {
		err = call(ctx, t.Connect)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			go t.Close()
			return nil, &ConnectError{Attempts: i + 1, Err: err}
		}
		slog.Warn("discord connect attempt failed", "attempt", i+1, "of", attempts, "error", err)
		if i == attempts-1 {
			return nil, &ConnectError{Attempts: attempts, Err: err}
		}

		select {
		case <-ctx.Done():
			return nil, &ConnectError{Attempts: i + 1, Err: ctx.Err()}
		case <-time.After(opts.RetryInterval):
		}
	}

	s.started = opts.Started
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.state = Connected
	slog.Debug("session connected", "started", s.started.Unix())
	return s, nil
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Started returns the enable_time reference instant.
func (s *Session) Started() time.Time { return s.started }

// Close disconnects the transport without clearing presence. Closing an
// already closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return nil
	}
	s.state = Disconnected
	return s.transport.Close()
}

// Teardown clears presence and closes the session, giving up after timeout.
// Failures are logged, never returned.
func (s *Session) Teardown(timeout time.Duration) {
	if s.State() != Connected {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Clear(ctx); err != nil {
		slog.Warn("clear presence on teardown failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return
	}
	s.state = Disconnected

	done := make(chan error, 1)
	go func() { done <- s.transport.Close() }()
	select {
	case err := <-done:
		if err != nil {
			slog.Warn("close transport on teardown failed", "error", err)
		}
	case <-ctx.Done():
		slog.Warn("close transport on teardown timed out", "timeout", timeout)
	}
}

// ///////////////////////////////////////////////
// Publishing
// ///////////////////////////////////////////////

// Publish sends a as the current presence. An Activity with nothing to
// display is sent as a clear.
func (s *Session) Publish(ctx context.Context, a presence.Activity) error {
	wire := presence.ToWire(a, s.started)
	if wire == nil {
		return s.do(ctx, "clear activity", s.transport.ClearActivity)
	}
	if err := s.do(ctx, "set activity", func() error { return s.transport.SetActivity(wire) }); err != nil {
		return err
	}
	slog.Debug("presence published", "fields", a.Fields())
	return nil
}

// Clear removes the current presence.
func (s *Session) Clear(ctx context.Context) error {
	return s.do(ctx, "clear activity", s.transport.ClearActivity)
}

// do runs one transport round-trip. On failure the session is closed and the
// error is returned as a *TransportError.
func (s *Session) do(ctx context.Context, op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected {
		return ErrClosed
	}

	err := call(ctx, fn)
	if err == nil {
		return nil
	}

	s.state = Disconnected
	if ctx.Err() != nil {
		// The abandoned call may still hold the transport; close it once that
		// call returns.
		go s.transport.Close()
	} else {
		s.transport.Close()
	}
	return &TransportError{Op: op, Err: err}
}

// call runs fn and waits for it or for ctx, whichever finishes first. When
// ctx wins, fn keeps running in the background and its result is dropped.
func call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
