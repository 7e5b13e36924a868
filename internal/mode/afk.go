package mode

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tools.zach/dev/richcord/internal/idle"
	"tools.zach/dev/richcord/internal/presence"
)

// Presence is the AFK driver's view of the user.
type Presence int

const (
	Present Presence = iota
	Away
)

func (p Presence) String() string {
	if p == Away {
		return "away"
	}
	return "present"
}

// AwayTemplate describes the Activity shown while the user is idle.
type AwayTemplate struct {
	Details string
	// State may contain a single %d, replaced by whole idle minutes.
	State      string
	LargeImage string
	LargeText  string
}

// DefaultAwayTemplate is used for any empty AwayTemplate field.
var DefaultAwayTemplate = AwayTemplate{
	Details:    "Away from keyboard",
	State:      "Idle for %d minutes",
	LargeImage: "afk",
	LargeText:  "AFK",
}

// Activity builds the away Activity for a user idle since since.
func (t AwayTemplate) Activity(since time.Time, idleFor time.Duration) presence.Activity {
	orDefault := func(v, def string) *string {
		if v == "" {
			v = def
		}
		return &v
	}
	state := orDefault(t.State, DefaultAwayTemplate.State)
	if strings.Contains(*state, "%d") {
		*state = fmt.Sprintf(*state, int(idleFor/time.Minute))
	}
	start := since.Unix()
	return presence.Activity{
		Details:        orDefault(t.Details, DefaultAwayTemplate.Details),
		State:          state,
		LargeImage:     orDefault(t.LargeImage, DefaultAwayTemplate.LargeImage),
		LargeImageText: orDefault(t.LargeText, DefaultAwayTemplate.LargeText),
		StartTime:      &start,
	}
}

// AFK switches presence between nothing and an away Activity as the user's
// idle time crosses Threshold in either direction.
type AFK struct {
	Probe           idle.Probe
	Open            Opener
	Threshold       time.Duration
	Poll            time.Duration
	Away            AwayTemplate
	Validator       presence.Validator
	TeardownTimeout time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// Run polls the idle probe until ctx is cancelled. A probe failure is fatal.
func (a *AFK) Run(ctx context.Context) error {
	if a.Poll <= 0 {
		return fmt.Errorf("afk poll interval must be positive, got %s", a.Poll)
	}
	if a.now == nil {
		a.now = time.Now
	}

	pub, err := a.Open(ctx)
	if err != nil {
		return err
	}
	defer pub.Teardown(teardownTimeout(a.TeardownTimeout))

	slog.Info("watching for idle", "threshold", a.Threshold, "poll", a.Poll)
	ticker := time.NewTicker(a.Poll)
	defer ticker.Stop()

	state := Present
	for {
		next, err := a.step(ctx, pub, state)
		if err != nil {
			if interrupted(ctx, err) {
				return nil
			}
			return err
		}
		if next != state {
			slog.Info("afk state changed", "from", state, "to", next)
			state = next
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// step reads the probe once and performs at most one transition.
func (a *AFK) step(ctx context.Context, pub Publisher, state Presence) (Presence, error) {
	secs, err := a.Probe.IdleSeconds(ctx)
	if err != nil {
		return state, fmt.Errorf("read idle time: %w", err)
	}
	idleFor := time.Duration(secs) * time.Second

	switch {
	case state == Present && idleFor >= a.Threshold:
		act := a.Away.Activity(a.now().Add(-idleFor), idleFor)
		if err := a.Validator.Validate(act); err != nil {
			return state, fmt.Errorf("invalid away activity: %w", err)
		}
		if err := pub.Publish(ctx, act); err != nil {
			return state, fmt.Errorf("publish away activity: %w", err)
		}
		return Away, nil

	case state == Away && idleFor < a.Threshold:
		if err := pub.Clear(ctx); err != nil {
			return state, fmt.Errorf("clear away activity: %w", err)
		}
		return Present, nil
	}
	return state, nil
}
