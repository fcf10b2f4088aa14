// Package terminal runs interactive commands in a tmux session.
package terminal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/workspace"
)

// Runner executes one tmux invocation and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner shells out to the tmux binary.
type ExecRunner struct {
	Bin string
}

func (r ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	bin := r.Bin
	if bin == "" {
		bin = "tmux"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("tmux %s: %s", args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Tmux opens one window per command inside a shared session.
type Tmux struct {
	Session string
	// WindowName names the windows it creates.
	WindowName string

	runner Runner
	inside func() bool
	logger applog.Logger
}

// Option configures Tmux.
type Option func(*Tmux)

// WithRunner replaces the tmux command runner.
func WithRunner(r Runner) Option { return func(t *Tmux) { t.runner = r } }

// WithInsideTmux overrides the $TMUX check used to decide whether to switch
// the attached client.
func WithInsideTmux(fn func() bool) Option { return func(t *Tmux) { t.inside = fn } }

func WithLogger(l applog.Logger) Option { return func(t *Tmux) { t.logger = applog.OrNop(l) } }

func NewTmux(session string, opts ...Option) *Tmux {
	t := &Tmux{
		Session:    session,
		WindowName: "side-launcher",
		runner:     ExecRunner{},
		inside:     func() bool { return os.Getenv("TMUX") != "" },
		logger:     applog.Nop(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Send ensures the session exists, opens a window in the context's root with
// the overlay variables, brings it to the front and types command into it.
func (t *Tmux) Send(ctx context.Context, ectx workspace.ExecutionContext, command string) error {
	if err := t.ensureSession(ctx, ectx.WorkspaceRoot); err != nil {
		return err
	}

	args := []string{"new-window", "-d", "-P", "-F", "#{window_id}", "-t", t.Session + ":", "-n", t.WindowName}
	if ectx.WorkspaceRoot != "" {
		args = append(args, "-c", ectx.WorkspaceRoot)
	}
	for _, kv := range ectx.Vars() {
		args = append(args, "-e", kv[0]+"="+kv[1])
	}
	window, err := t.runner.Run(ctx, args...)
	if err != nil {
		return err
	}
	if window == "" {
		return fmt.Errorf("tmux new-window: no window id returned")
	}

	if _, err := t.runner.Run(ctx, "select-window", "-t", window); err != nil {
		return err
	}
	if t.inside() {
		if _, err := t.runner.Run(ctx, "switch-client", "-t", window); err != nil {
			t.logger.Warn("switch-client %s: %v", window, err)
		}
	}
	if _, err := t.runner.Run(ctx, "send-keys", "-t", window, "-l", command); err != nil {
		return err
	}
	if _, err := t.runner.Run(ctx, "send-keys", "-t", window, "Enter"); err != nil {
		return err
	}
	t.logger.Info("sent command to tmux window %s (session %s)", window, t.Session)
	return nil
}

func (t *Tmux) ensureSession(ctx context.Context, dir string) error {
	if _, err := t.runner.Run(ctx, "has-session", "-t", "="+t.Session); err == nil {
		return nil
	}
	args := []string{"new-session", "-d", "-s", t.Session}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if _, err := t.runner.Run(ctx, args...); err != nil {
		return err
	}
	t.logger.Info("created tmux session %s", t.Session)
	return nil
}
