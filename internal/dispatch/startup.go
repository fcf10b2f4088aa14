package dispatch

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/elpatron68/side-launcher/internal/config"
	applog "github.com/elpatron68/side-launcher/internal/log"
)

// Readiness is the preflight outcome.
type Readiness struct {
	Interpreter string
	Terminal    string
	// TerminalErr is set when interactive tasks cannot run.
	TerminalErr error
}

// EnsureReady resolves the interpreter on PATH and checks for the terminal
// backend. A missing interpreter is an error; a missing terminal backend
// only disables interactive tasks.
func EnsureReady(cfg *config.Config) (Readiness, error) {
	var r Readiness
	runner := NewShellRunner(cfg.Shell)
	p, err := exec.LookPath(runner.Interpreter)
	if err != nil {
		return r, errors.New("command interpreter " + runner.Interpreter + " not found; set shell.interpreter or SIDELAUNCHER_SHELL")
	}
	r.Interpreter = p
	applog.Infof("interpreter: %s", p)

	backend := strings.TrimSpace(cfg.Terminal.Backend)
	if backend == "" || backend == "none" {
		r.TerminalErr = errors.New("terminal backend disabled")
		return r, nil
	}
	tp, err := exec.LookPath(backend)
	if err != nil {
		r.TerminalErr = errors.New(buildInstallHint(backend))
		applog.Warnf("%s", r.TerminalErr)
		return r, nil
	}
	r.Terminal = tp
	applog.Infof("terminal backend: %s", tp)
	return r, nil
}

// buildInstallHint explains how to make the terminal backend available.
func buildInstallHint(backend string) string {
	const tail = " Interactive (shellOnVSCode) tasks are unavailable until then."
	switch runtime.GOOS {
	case "windows":
		return backend + " was not found. Install it inside WSL or MSYS2 and run side-launcher from there." + tail
	case "darwin":
		return backend + " was not found. Install it with `brew install " + backend + "`." + tail
	default:
		return backend + " was not found. Install it with your package manager, e.g. `apt install " + backend + "` or `dnf install " + backend + "`." + tail
	}
}
