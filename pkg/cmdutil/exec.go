package cmdutil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Options configures a subprocess invocation.
type Options struct {
	// Dir is the working directory for the command.
	Dir string

	// Timeout is the maximum execution time. Zero means no timeout.
	Timeout time.Duration

	// Env contains extra environment variables in "KEY=value" form.
	Env []string
}

// Result holds the outcome of a subprocess invocation.
type Result struct {
	// Output is the combined stdout and stderr of the command.
	Output []byte

	// ExitCode is the exit code of the command, or -1 if it never ran.
	ExitCode int

	// Duration is how long the command took.
	Duration time.Duration
}

// OK reports whether the command exited with code zero.
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// Run executes argv with the given options, capturing combined output.
// A non-zero exit is returned as an error alongside the populated result.
func Run(ctx context.Context, opts Options, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env

	start := time.Now()
	out, err := cmd.CombinedOutput()

	result := &Result{
		Output:   out,
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		return result, fmt.Errorf("command %q failed: %w", argv[0], err)
	}
	return result, nil
}

// Split parses a shell-quoted command string into argv parts.
//
// Example:
//
//	`systemctl restart "faf api"` -> ["systemctl", "restart", "faf api"]
func Split(cmdStr string) ([]string, error) {
	parts, err := shellquote.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command string: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command string")
	}
	return parts, nil
}

// Format renders argv as a readable single line for logging, quoting
// arguments that contain whitespace or quote characters.
func Format(argv []string) string {
	if len(argv) == 0 {
		return "<empty command>"
	}

	quoted := make([]string, len(argv))
	for i, part := range argv {
		if strings.ContainsAny(part, " \t\n\"'") {
			quoted[i] = shellquote.Join(part)
		} else {
			quoted[i] = part
		}
	}
	return strings.Join(quoted, " ")
}
