package util

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
)

// SafeCmdExecution runs the given executable with an explicit timeout, so a
// hung subprocess can never wedge the calling loop. The parent context allows
// the shutdown sequence to preempt a call that is still in flight.
func SafeCmdExecution(ctx context.Context, executable string, args []string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		ui.Warning("Command timed out: %s", executable)
		return "", ctx.Err()
	}

	if err != nil {
		return "", err
	}

	strout := string(out)
	strout = strings.Trim(strout, "\n")

	return strout, nil
}
