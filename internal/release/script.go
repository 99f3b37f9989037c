package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/shlex"

	"github.com/ariel-frischer/csrelease/internal/output"
)

// Runner runs a user configured script and returns what it wrote to stdout.
type Runner interface {
	Run(ctx context.Context, dir, script string) (string, error)
}

// ScriptRunner runs scripts directly, without a shell. Arguments are split
// with shell quoting rules, so `npm run "release all"` passes one argument.
type ScriptRunner struct {
	// Stdout and Stderr receive the script's output as it runs. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	// Env is appended to the current environment.
	Env []string
}

var _ Runner = (*ScriptRunner)(nil)

// Run executes script in dir. Stdout is captured and also streamed to r.Stdout.
func (r *ScriptRunner) Run(ctx context.Context, dir, script string) (string, error) {
	args, err := shlex.Split(script)
	if err != nil {
		return "", fmt.Errorf("parsing script %q: %w", script, err)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("script %q produces no command", script)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = &stdout
	if r.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Stdout)
		output.PrintExecutingCommand(r.Stdout, script)
	}
	cmd.Stderr = r.Stderr

	logDebug("[release] running %q in %s", script, dir)
	err = cmd.Run()
	if r.Stdout != nil {
		output.PrintScriptOutputEnd(r.Stdout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), &ScriptError{Script: script, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return stdout.String(), &ScriptError{Script: script, ExitCode: -1, Err: err}
	}
	return stdout.String(), nil
}
