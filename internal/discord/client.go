// Package discord provides a client for Discord's local IPC socket,
// enabling Rich Presence updates via the SET_ACTIVITY command.
//
// The [Client] type manages connection lifecycle, command framing and the
// request/response round-trip. Platform-specific socket discovery is handled
// by conn_unix.go and conn_windows.go.
package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ///////////////////////////////////////////////
// Sentinel Errors
// ///////////////////////////////////////////////

// ErrNotConnected is returned when an operation requires an active connection.
var ErrNotConnected = errors.New("not connected")

// ErrClosedByPeer is returned when Discord sends a CLOSE frame.
var ErrClosedByPeer = errors.New("connection closed by discord")

// DefaultTimeout bounds a single command round-trip.
const DefaultTimeout = 5 * time.Second

// CommandError is an ERROR event (or CLOSE frame) returned by Discord in
// response to a command.
type CommandError struct {
	// Code is Discord's RPC error code, e.g. 4000 for an invalid payload.
	Code int `json:"code"`
	// Message is Discord's human-readable explanation.
	Message string `json:"message"`
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
}

// ///////////////////////////////////////////////
// Data Types
// ///////////////////////////////////////////////

// Button represents a clickable button in a Discord Rich Presence activity.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Timestamps holds the elapsed/remaining timer bounds, in Unix seconds.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// Assets holds image keys and tooltip text for an activity.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Party describes the group the user is in. Size is [current, max].
type Party struct {
	ID   string   `json:"id,omitempty"`
	Size []uint32 `json:"size,omitempty"`
}

// Secrets carries the join/spectate/match secrets used by Discord invites.
type Secrets struct {
	Match    string `json:"match,omitempty"`
	Join     string `json:"join,omitempty"`
	Spectate string `json:"spectate,omitempty"`
}

// Activity represents a Discord Rich Presence activity.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Party      *Party      `json:"party,omitempty"`
	Secrets    *Secrets    `json:"secrets,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
}

// response is the subset of a Discord RPC reply the client inspects.
type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// Client manages a connection to Discord's IPC socket.
type Client struct {
	// appID is the Discord application (OAuth2 client) identifier.
	appID string
	// timeout bounds each handshake or command round-trip; zero disables it.
	timeout time.Duration
	// dial opens the raw IPC socket. Tests replace it with a pipe.
	dial func() (net.Conn, error)

	// mu protects conn.
	mu sync.Mutex
	// conn is the active IPC socket connection, or nil when disconnected.
	conn net.Conn
}

// NewClient creates a new Discord IPC client for the given application ID.
func NewClient(appID string) *Client {
	return &Client{appID: appID, timeout: DefaultTimeout, dial: connectToDiscord}
}

// SetTimeout sets the per-round-trip deadline. A zero value disables it.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// Connect establishes a connection to Discord via IPC and sends the handshake.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Close old connection if reconnecting.
	c.dropLocked()

	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.conn = conn

	if err := c.handshake(); err != nil {
		c.dropLocked()
		return err
	}
	return nil
}

// SetActivity sends a SET_ACTIVITY command and waits for Discord's reply.
func (c *Client) SetActivity(activity *Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.command("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": activity,
	})
}

// ClearActivity sends a SET_ACTIVITY command with a nil activity.
func (c *Client) ClearActivity() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.command("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": nil,
	})
}

// Close clears the activity and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	// Best-effort clear before closing.
	_ = c.command("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": nil,
	})
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	return err
}

// dropLocked closes and forgets the connection. The caller must hold c.mu.
func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// armDeadline applies the round-trip deadline to the connection and returns
// a func that clears it. The caller must hold c.mu.
func (c *Client) armDeadline() func() {
	if c.timeout <= 0 {
		return func() {}
	}
	conn := c.conn
	_ = conn.SetDeadline(time.Now().Add(c.timeout))
	return func() { _ = conn.SetDeadline(time.Time{}) }
}

// handshake sends the initial handshake frame to Discord and validates the
// READY response. The caller must hold c.mu.
func (c *Client) handshake() error {
	payload, err := json.Marshal(map[string]any{
		"v":         1,
		"client_id": c.appID,
	})
	if err != nil {
		return fmt.Errorf("marshaling handshake: %w", err)
	}

	defer c.armDeadline()()

	if err := WriteFrame(c.conn, OpHandshake, payload); err != nil {
		return fmt.Errorf("sending handshake: %w", err)
	}

	resp, err := c.readResponse("")
	if err != nil {
		return fmt.Errorf("reading handshake response: %w", err)
	}
	if resp.Evt == "ERROR" {
		return fmt.Errorf("handshake rejected: %w", parseCommandError(resp.Data))
	}
	if resp.Evt != "READY" {
		return fmt.Errorf("unexpected handshake event %q", resp.Evt)
	}
	return nil
}

// command writes a command frame tagged with a fresh nonce and waits for the
// matching reply. I/O failures drop the connection since the stream position
// is unknown afterwards. The caller must hold c.mu.
func (c *Client) command(cmd string, args map[string]any) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	nonce := uuid.NewString()
	payload, err := json.Marshal(map[string]any{
		"cmd":   cmd,
		"args":  args,
		"nonce": nonce,
	})
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	disarm := c.armDeadline()
	if err := WriteFrame(c.conn, OpFrame, payload); err != nil {
		c.dropLocked()
		return fmt.Errorf("sending %s: %w", cmd, err)
	}

	resp, err := c.readResponse(nonce)
	if err != nil {
		c.dropLocked()
		return fmt.Errorf("awaiting %s reply: %w", cmd, err)
	}
	disarm()

	if resp.Evt == "ERROR" {
		return parseCommandError(resp.Data)
	}
	return nil
}

// readResponse reads frames until a data frame with the given nonce arrives.
// An empty nonce accepts the first data frame (the handshake READY carries
// none). PING frames are answered in place. The caller must hold c.mu.
func (c *Client) readResponse(nonce string) (*response, error) {
	for {
		opcode, payload, err := DecodeFrame(c.conn)
		if err != nil {
			return nil, err
		}

		switch opcode {
		case OpPing:
			if err := WriteFrame(c.conn, OpPong, payload); err != nil {
				return nil, err
			}
			continue
		case OpPong:
			continue
		case OpClose:
			return nil, fmt.Errorf("%w: %w", ErrClosedByPeer, parseCommandError(payload))
		case OpFrame:
		default:
			return nil, fmt.Errorf("unexpected opcode %s", opcode)
		}

		var resp response
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		if nonce != "" && resp.Nonce != nonce {
			// Unsolicited DISPATCH events are not ours to handle.
			continue
		}
		return &resp, nil
	}
}

// parseCommandError decodes an error body of the form {"code":N,"message":"..."}.
func parseCommandError(data []byte) *CommandError {
	ce := &CommandError{}
	if err := json.Unmarshal(data, ce); err != nil || ce.Message == "" {
		ce.Message = "unknown error"
	}
	return ce
}
