package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"

	"toolchat/internal/domain"
)

// processResult is what a finished subprocess produced.
type processResult struct {
	Output   string
	ExitCode int
}

// runProcess executes argv with a hard wall-clock timeout. On timeout the
// whole process group is killed, so no children outlive the call.
func runProcess(ctx context.Context, argv []string, dir string, timeout time.Duration, maxOutput int) (processResult, error) {
	if len(argv) == 0 {
		return processResult{}, domain.Rejected("empty command")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	setProcessGroup(cmd)
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res := processResult{Output: truncateChars(out.String(), maxOutput)}

	if ctx.Err() == context.DeadlineExceeded {
		return res, domain.TimedOut("execution exceeded %s and was terminated", timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, domain.Unavailable(fmt.Errorf("start %s: %w", argv[0], err))
	}
	return res, nil
}

// truncateChars cuts s to at most max characters, marking the cut.
func truncateChars(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "\n... (output truncated)"
}
