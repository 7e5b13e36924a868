// conn_windows.go implements Discord IPC socket discovery for Windows.
// It connects via named pipes (\\.\pipe\discord-ipc-N) using the go-winio
// library.

//go:build windows

package discord

import (
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// dialTimeout bounds a single pipe dial; a busy pipe is skipped rather than waited on.
const dialTimeout = 500 * time.Millisecond

// pipeName returns the named pipe path for an IPC slot.
func pipeName(slot int) string {
	return fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, slot)
}

// ///////////////////////////////////////////////
// Connection
// ///////////////////////////////////////////////

// connectToDiscord tries each Discord named pipe slot and returns the first
// successful connection.
func connectToDiscord() (net.Conn, error) {
	timeout := dialTimeout
	for i := range maxIPCSlots {
		conn, err := winio.DialPipe(pipeName(i), &timeout)
		if err == nil {
			return conn, nil
		}
	}
	return nil, ErrIPCNotAvailable
}
