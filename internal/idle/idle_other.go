// Linux and BSD desktops expose no idle counter to unprivileged processes, so
// the X11 screensaver extension is queried through xprintidle.

//go:build !windows && !darwin

package idle

import (
	"context"
	"fmt"
	"os/exec"
)

func systemIdleSeconds(ctx context.Context) (uint64, error) {
	bin, err := exec.LookPath("xprintidle")
	if err != nil {
		return 0, fmt.Errorf("%w: xprintidle not found in PATH", ErrUnsupported)
	}
	out, err := exec.CommandContext(ctx, bin).Output()
	if err != nil {
		return 0, fmt.Errorf("running xprintidle: %w", err)
	}
	return parseXprintidle(out)
}
