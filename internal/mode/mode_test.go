// Tests for the mode drivers. A fakePublisher records every call so the
// drivers' publish/clear/teardown sequences can be asserted exactly.
package mode

import (
	"context"
	"errors"
	"sync"
	"time"

	"tools.zach/dev/richcord/internal/presence"
)

type fakePublisher struct {
	mu         sync.Mutex
	published  []presence.Activity
	clears     int
	teardowns  int
	publishErr error
}

func (f *fakePublisher) Publish(_ context.Context, a presence.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, a)
	return nil
}

func (f *fakePublisher) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakePublisher) Teardown(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teardowns++
}

func (f *fakePublisher) snapshot() (published []presence.Activity, clears, teardowns int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]presence.Activity(nil), f.published...), f.clears, f.teardowns
}

// opener returns an Opener handing out pub and counting calls.
func opener(pub *fakePublisher, calls *int) Opener {
	return func(context.Context) (Publisher, error) {
		*calls++
		return pub, nil
	}
}

func failingOpener(err error) Opener {
	return func(context.Context) (Publisher, error) { return nil, err }
}

func str(s string) *string { return &s }

func stateOf(a presence.Activity) string {
	if a.State == nil {
		return ""
	}
	return *a.State
}

var errBoom = errors.New("boom")
