//go:build darwin

package idle

import (
	"context"
	"fmt"
	"os/exec"
)

func systemIdleSeconds(ctx context.Context) (uint64, error) {
	out, err := exec.CommandContext(ctx, "ioreg", "-c", "IOHIDSystem").Output()
	if err != nil {
		return 0, fmt.Errorf("running ioreg: %w", err)
	}
	return parseIOReg(out)
}
