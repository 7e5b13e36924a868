//go:build !windows

package mode_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tools.zach/dev/richcord/internal/discord"
	"tools.zach/dev/richcord/internal/mode"
	"tools.zach/dev/richcord/internal/session"
)

// fakeDiscord is a local IPC server that answers the handshake and every
// command, recording the activity argument of each SET_ACTIVITY.
type fakeDiscord struct {
	mu         sync.Mutex
	activities []map[string]any // nil entries are clears
	done       chan struct{}
}

func startFakeDiscord(t *testing.T) *fakeDiscord {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	ln, err := net.Listen("unix", filepath.Join(dir, "discord-ipc-0"))
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	fd := &fakeDiscord{done: make(chan struct{})}
	go fd.serve(ln)
	return fd
}

func (fd *fakeDiscord) serve(ln net.Listener) {
	defer close(fd.done)
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	if _, _, err := discord.DecodeFrame(conn); err != nil {
		return
	}
	ready, _ := json.Marshal(map[string]any{"cmd": "DISPATCH", "evt": "READY"})
	if err := discord.WriteFrame(conn, discord.OpFrame, ready); err != nil {
		return
	}

	for {
		_, payload, err := discord.DecodeFrame(conn)
		if err != nil {
			return
		}
		var cmd struct {
			Cmd   string `json:"cmd"`
			Nonce string `json:"nonce"`
			Args  struct {
				Activity map[string]any `json:"activity"`
			} `json:"args"`
		}
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return
		}
		fd.mu.Lock()
		fd.activities = append(fd.activities, cmd.Args.Activity)
		fd.mu.Unlock()

		resp, _ := json.Marshal(map[string]any{"cmd": cmd.Cmd, "nonce": cmd.Nonce, "data": map[string]any{}})
		if err := discord.WriteFrame(conn, discord.OpFrame, resp); err != nil {
			return
		}
	}
}

func (fd *fakeDiscord) received(t *testing.T) []map[string]any {
	t.Helper()
	select {
	case <-fd.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fake discord never saw the connection close")
	}
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.activities
}

func openDiscord(appID string) mode.Opener {
	return func(ctx context.Context) (mode.Publisher, error) {
		client := discord.NewClient(appID)
		client.SetTimeout(2 * time.Second)
		s, err := session.Open(ctx, client, session.Options{})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func TestStream_AgainstDiscordIPC(t *testing.T) {
	fd := startFakeDiscord(t)

	input := strings.Join([]string{
		`{"details": "Reviewing PRs", "large_image": "logo"}`,
		`{"party_size": [5, 2], "party_id": "p1"}`,
		`not json`,
		`{"state": "Queue empty"}`,
	}, "\n") + "\n"

	var skipped []int
	s := &mode.Stream{
		Input:  strings.NewReader(input),
		Open:   openDiscord("383226320970055681"),
		Report: func(line int, err error) { skipped = append(skipped, line) },
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := fd.received(t)
	if len(got) < 3 {
		t.Fatalf("received %d commands, want at least 3: %v", len(got), got)
	}
	if got[0]["details"] != "Reviewing PRs" || got[0]["assets"].(map[string]any)["large_image"] != "logo" {
		t.Fatalf("first activity = %v", got[0])
	}
	if got[1]["state"] != "Queue empty" || got[1]["details"] != "Reviewing PRs" {
		t.Fatalf("second activity = %v", got[1])
	}
	if _, ok := got[1]["party"]; ok {
		t.Fatalf("rejected party update leaked into presence: %v", got[1])
	}
	for _, a := range got[2:] {
		if a != nil {
			t.Fatalf("expected only clears after EOF, got %v", a)
		}
	}

	if len(skipped) != 2 || skipped[0] != 2 || skipped[1] != 3 {
		t.Fatalf("skipped lines = %v, want [2 3]", skipped)
	}
	if st := s.Stats(); st.Published != 2 || st.Rejected != 1 || st.Malformed != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestStream_NoDiscord(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("TMPDIR", t.TempDir())

	s := &mode.Stream{Input: strings.NewReader(""), Open: openDiscord("383226320970055681")}
	err := s.Run(context.Background())

	var ce *session.ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *session.ConnectError, got %v", err)
	}
}
