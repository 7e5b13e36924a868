// Package mode holds the three drivers that turn a presence source into
// publishes: [OneShot] for flag-defined presence, [Stream] for
// newline-delimited JSON patches and [AFK] for idle detection.
//
// A driver owns its [Publisher] for the whole run. It opens it once, never
// hands it to another goroutine, and tears it down on every exit path.
package mode

import (
	"context"
	"time"

	"tools.zach/dev/richcord/internal/presence"
)

// DefaultTeardownTimeout bounds the clear and close performed on exit.
const DefaultTeardownTimeout = 3 * time.Second

// Publisher is the connected session a driver publishes through.
// [*session.Session] satisfies it.
type Publisher interface {
	Publish(ctx context.Context, a presence.Activity) error
	Clear(ctx context.Context) error
	Teardown(timeout time.Duration)
}

// Opener connects a Publisher. Drivers call it exactly once per run.
type Opener func(ctx context.Context) (Publisher, error)

func teardownTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTeardownTimeout
	}
	return d
}

// interrupted reports whether err is only the consequence of ctx ending.
func interrupted(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
