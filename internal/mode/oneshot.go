package mode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tools.zach/dev/richcord/internal/presence"
)

// OneShot publishes a fixed Activity and holds it.
//
// With Interval set the Activity is re-published on every tick. With
// ExitAfter set the driver clears and returns once it elapses; otherwise it
// runs until ctx is cancelled.
type OneShot struct {
	Activity        presence.Activity
	Validator       presence.Validator
	Open            Opener
	Interval        time.Duration
	ExitAfter       time.Duration
	TeardownTimeout time.Duration
}

// Run validates, connects and publishes, then waits. Interrupt and
// exit_after both end the run cleanly with a nil error.
func (o *OneShot) Run(ctx context.Context) error {
	if err := o.Validator.Validate(o.Activity); err != nil {
		return fmt.Errorf("invalid activity: %w", err)
	}

	pub, err := o.Open(ctx)
	if err != nil {
		return err
	}
	defer pub.Teardown(teardownTimeout(o.TeardownTimeout))

	if err := pub.Publish(ctx, o.Activity); err != nil {
		if interrupted(ctx, err) {
			return nil
		}
		return fmt.Errorf("publish activity: %w", err)
	}
	slog.Info("presence set", "fields", o.Activity.Fields())

	var tick <-chan time.Time
	if o.Interval > 0 {
		ticker := time.NewTicker(o.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	var exit <-chan time.Time
	if o.ExitAfter > 0 {
		timer := time.NewTimer(o.ExitAfter)
		defer timer.Stop()
		exit = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted, clearing presence")
			return nil
		case <-exit:
			slog.Info("exit_after elapsed, clearing presence", "after", o.ExitAfter)
			return nil
		case <-tick:
			if err := pub.Publish(ctx, o.Activity); err != nil {
				if interrupted(ctx, err) {
					return nil
				}
				return fmt.Errorf("republish activity: %w", err)
			}
			slog.Debug("presence republished")
		}
	}
}
