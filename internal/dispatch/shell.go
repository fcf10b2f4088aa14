package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/elpatron68/side-launcher/internal/config"
)

// ShellRunner runs command lines through the platform interpreter.
type ShellRunner struct {
	Interpreter string
	Args        []string
}

// NewShellRunner returns a runner for the configured interpreter, falling
// back to the platform default.
func NewShellRunner(cfg config.ShellConfig) *ShellRunner {
	interp, args := DefaultInterpreter()
	if strings.TrimSpace(cfg.Interpreter) != "" {
		interp = cfg.Interpreter
		args = cfg.Args
		if len(args) == 0 {
			args = interpreterArgs(interp)
		}
	}
	return &ShellRunner{Interpreter: interp, Args: args}
}

// DefaultInterpreter is /bin/sh -c, or cmd.exe /d /s /c on Windows.
func DefaultInterpreter() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd.exe", []string{"/d", "/s", "/c"}
	}
	return "/bin/sh", []string{"-c"}
}

func interpreterArgs(interp string) []string {
	base := strings.ToLower(interp)
	if strings.HasSuffix(base, "cmd.exe") || base == "cmd" {
		return []string{"/d", "/s", "/c"}
	}
	if strings.Contains(base, "powershell") || strings.HasSuffix(base, "pwsh") || strings.HasSuffix(base, "pwsh.exe") {
		return []string{"-NoProfile", "-Command"}
	}
	return []string{"-c"}
}

// ShellOutput is the captured outcome of a finished process.
type ShellOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is set when the process exited abnormally.
	Err error
}

// LaunchError means the interpreter could not be started at all.
type LaunchError struct {
	Interpreter string
	Err         error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Interpreter, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Run starts command in its own process group with dir and env and waits for
// it. There is no timeout. A start failure is returned as *LaunchError; a
// non-zero exit is reported in ShellOutput.Err.
func (r *ShellRunner) Run(command, dir string, env []string) (ShellOutput, error) {
	args := append(append([]string(nil), r.Args...), command)
	cmd := exec.Command(r.Interpreter, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.SysProcAttr = detachedAttr()

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		return ShellOutput{}, &LaunchError{Interpreter: r.Interpreter, Err: err}
	}
	waitErr := cmd.Wait()
	out := ShellOutput{
		Stdout: normalizeNewlines(outBuf.String()),
		Stderr: normalizeNewlines(errBuf.String()),
	}
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		out.Err = fmt.Errorf("command failed: %s: %w", command, waitErr)
	default:
		out.ExitCode = -1
		out.Err = fmt.Errorf("command failed: %s: %w", command, waitErr)
	}
	return out, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
