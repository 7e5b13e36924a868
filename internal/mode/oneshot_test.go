package mode

import (
	"context"
	"errors"
	"testing"
	"time"

	"tools.zach/dev/richcord/internal/presence"
)

func TestOneShot_InvalidActivityNeverConnects(t *testing.T) {
	calls := 0
	o := &OneShot{
		Activity: presence.Activity{ButtonText2: str("b"), ButtonURL2: str("u")},
		Open:     opener(&fakePublisher{}, &calls),
	}
	err := o.Run(context.Background())
	if !presence.HasKind(err, presence.ButtonOrder) {
		t.Fatalf("expected button_order error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("opened %d times, want 0", calls)
	}
}

func TestOneShot_ExitAfter(t *testing.T) {
	pub := &fakePublisher{}
	calls := 0
	o := &OneShot{
		Activity:  presence.Activity{State: str("s")},
		Open:      opener(pub, &calls),
		ExitAfter: 20 * time.Millisecond,
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	published, _, teardowns := pub.snapshot()
	if len(published) != 1 || stateOf(published[0]) != "s" {
		t.Fatalf("published = %+v", published)
	}
	if calls != 1 || teardowns != 1 {
		t.Fatalf("opens = %d, teardowns = %d; want 1, 1", calls, teardowns)
	}
}

func TestOneShot_IntervalRepublishes(t *testing.T) {
	pub := &fakePublisher{}
	calls := 0
	o := &OneShot{
		Activity:  presence.Activity{State: str("s")},
		Open:      opener(pub, &calls),
		Interval:  10 * time.Millisecond,
		ExitAfter: 100 * time.Millisecond,
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if published, _, _ := pub.snapshot(); len(published) < 3 {
		t.Fatalf("published %d times, want at least 3", len(published))
	}
	if calls != 1 {
		t.Fatalf("opened %d times, want 1", calls)
	}
}

func TestOneShot_HoldsUntilInterrupt(t *testing.T) {
	pub := &fakePublisher{}
	calls := 0
	o := &OneShot{Activity: presence.Activity{State: str("s")}, Open: opener(pub, &calls)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("returned before interrupt: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("did not stop after interrupt")
	}
	if _, _, teardowns := pub.snapshot(); teardowns != 1 {
		t.Fatalf("teardowns = %d, want 1", teardowns)
	}
}

func TestOneShot_OpenError(t *testing.T) {
	o := &OneShot{Activity: presence.Activity{State: str("s")}, Open: failingOpener(errBoom)}
	if err := o.Run(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestOneShot_PublishErrorTearsDown(t *testing.T) {
	pub := &fakePublisher{publishErr: errBoom}
	calls := 0
	o := &OneShot{Activity: presence.Activity{State: str("s")}, Open: opener(pub, &calls)}

	if err := o.Run(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if _, _, teardowns := pub.snapshot(); teardowns != 1 {
		t.Fatalf("teardowns = %d, want 1", teardowns)
	}
}
