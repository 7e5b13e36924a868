// conn_unix.go implements Discord IPC socket discovery for Unix-like systems
// (Linux, macOS, FreeBSD). It probes XDG_RUNTIME_DIR, TMPDIR, /tmp, Snap and
// Flatpak socket paths.

//go:build !windows

package discord

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// dialTimeout bounds a single unix socket dial; a live Discord accepts at once.
const dialTimeout = 500 * time.Millisecond

// ///////////////////////////////////////////////
// Socket Discovery
// ///////////////////////////////////////////////

// socketDirs returns the directories Discord may create its socket in, in
// probe order, without duplicates.
func socketDirs() []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(d string) {
		d = strings.TrimRight(d, "/")
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		dirs = append(dirs, d)
	}

	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		add(os.Getenv(env))
	}
	add("/tmp")

	uid := strconv.Itoa(os.Getuid())
	// Snap-packaged Discord uses a distinct socket directory.
	for _, sd := range []string{"snap.discord", "snap.discord-canary", "snap.discord-ptb"} {
		add(fmt.Sprintf("/run/user/%s/%s", uid, sd))
	}
	// Flatpak-packaged Discord uses its own app-scoped directory.
	for _, app := range []string{"com.discordapp.Discord", "com.discordapp.DiscordCanary", "com.discordapp.DiscordPTB"} {
		add(fmt.Sprintf("/run/user/%s/app/%s", uid, app))
	}
	return dirs
}

// socketPaths expands [socketDirs] into every candidate socket path for the
// stable, Canary and PTB builds, followed by any WSL relay locations.
func socketPaths() []string {
	variants := []string{"discord-ipc", "discordcanary-ipc", "discordptb-ipc"}

	var paths []string
	for _, dir := range socketDirs() {
		for _, v := range variants {
			for i := range maxIPCSlots {
				paths = append(paths, fmt.Sprintf("%s/%s-%d", dir, v, i))
			}
		}
	}
	return append(paths, wslSocketPaths()...)
}

// ///////////////////////////////////////////////
// Connection
// ///////////////////////////////////////////////

// connectToDiscord tries each known IPC socket path and returns the first
// successful connection.
func connectToDiscord() (net.Conn, error) {
	for _, path := range socketPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := net.DialTimeout("unix", path, dialTimeout)
		if err == nil {
			return conn, nil
		}
	}

	if isWSL() {
		return nil, fmt.Errorf("%w: running under WSL, a socat + npiperelay.exe relay is required", ErrIPCNotAvailable)
	}
	return nil, ErrIPCNotAvailable
}
