package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/telemetry"
	"github.com/elpatron68/side-launcher/internal/workspace"
)

const scope = "github.com/elpatron68/side-launcher/dispatch"

// TerminalHost writes a command into an interactive session bound to the
// context's working directory and environment, bringing it to the foreground.
type TerminalHost interface {
	Send(ctx context.Context, ectx workspace.ExecutionContext, command string) error
}

// ErrNoTerminal is reported when an interactive task is dispatched without a
// terminal host.
var ErrNoTerminal = errors.New("no terminal host configured")

// Dispatcher runs tasks. It holds no per-dispatch state and is safe for
// concurrent use.
type Dispatcher struct {
	shell    *ShellRunner
	terminal TerminalHost
	environ  func() []string
	logger   applog.Logger
	tracer   trace.Tracer
	count    metric.Int64Counter
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEnviron replaces the base environment source (os.Environ).
func WithEnviron(fn func() []string) Option {
	return func(d *Dispatcher) { d.environ = fn }
}

// WithLogger sets the logger.
func WithLogger(l applog.Logger) Option {
	return func(d *Dispatcher) { d.logger = applog.OrNop(l) }
}

// New returns a dispatcher. term may be nil; interactive tasks then fail
// with ErrNoTerminal in their result.
func New(shell *ShellRunner, term TerminalHost, opts ...Option) *Dispatcher {
	if shell == nil {
		interp, args := DefaultInterpreter()
		shell = &ShellRunner{Interpreter: interp, Args: args}
	}
	d := &Dispatcher{
		shell:    shell,
		terminal: term,
		environ:  os.Environ,
		logger:   applog.Nop(),
		tracer:   telemetry.Tracer(scope),
	}
	for _, o := range opts {
		o(d)
	}
	d.count, _ = telemetry.Meter(scope).Int64Counter("sidelauncher.dispatch.count",
		metric.WithDescription("Task dispatches by mode and outcome"),
		metric.WithUnit("{dispatch}"),
	)
	return d
}

// Dispatch runs def in the background and delivers its result to sink
// exactly once. It returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, sink Sink, def task.Definition, ectx workspace.ExecutionContext) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		res := d.Execute(ctx, def, ectx)
		d.deliver(sink, res)
	}()
}

func (d *Dispatcher) deliver(sink Sink, res CommandResult) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("result sink panicked: %v", p)
		}
	}()
	if sink != nil {
		sink.Deliver(res)
	}
}

// Execute runs def and blocks until its result is known. For interactive
// tasks that is as soon as the command has been written to the terminal.
// Execute never panics; launch failures and panics become a result with
// Error and Stack set.
func (d *Dispatcher) Execute(ctx context.Context, def task.Definition, ectx workspace.ExecutionContext) (res CommandResult) {
	def = def.Normalized()
	mode := "shell"
	if def.Type.Interactive() {
		mode = "terminal"
	}
	ctx, span := d.tracer.Start(ctx, "task.dispatch",
		trace.WithAttributes(
			attribute.String("task.label", def.Label),
			attribute.String("task.type", string(def.Type)),
			attribute.String("task.cwd", ectx.WorkspaceRoot),
		),
	)
	defer func() {
		if p := recover(); p != nil {
			res = launchFailure(def.Command, fmt.Errorf("dispatch panicked: %v", p))
		}
		outcome := "ok"
		if res.Failed() {
			outcome = "error"
			span.SetStatus(codes.Error, res.Error)
		}
		if d.count != nil {
			d.count.Add(ctx, 1, metric.WithAttributes(
				attribute.String("mode", mode),
				attribute.String("outcome", outcome),
			))
		}
		span.End()
	}()

	d.logger.Info("dispatch %s %q in %s", mode, def.Label, ectx.WorkspaceRoot)
	if def.Type.Interactive() {
		return d.runTerminal(ctx, def, ectx)
	}
	return d.runShell(def, ectx)
}

func (d *Dispatcher) runShell(def task.Definition, ectx workspace.ExecutionContext) CommandResult {
	env := workspace.Overlay(d.environ(), ectx)
	out, err := d.shell.Run(def.Command, ectx.WorkspaceRoot, env)
	if err != nil {
		d.logger.Error("launch %q: %v", def.Label, err)
		return launchFailure(def.Command, err)
	}
	res := CommandResult{Command: def.Command, Stdout: out.Stdout, Stderr: out.Stderr}
	if out.Err != nil {
		res.Error = out.Err.Error()
		d.logger.Warn("%q exited %d: stderr=%q", def.Label, out.ExitCode, truncate(out.Stderr, 300))
	} else {
		d.logger.Debug("%q exited 0", def.Label)
	}
	return res
}

func (d *Dispatcher) runTerminal(ctx context.Context, def task.Definition, ectx workspace.ExecutionContext) CommandResult {
	if d.terminal == nil {
		return launchFailure(def.Command, ErrNoTerminal)
	}
	if err := d.terminal.Send(ctx, ectx, def.Command); err != nil {
		d.logger.Error("terminal %q: %v", def.Label, err)
		return launchFailure(def.Command, err)
	}
	return CommandResult{Command: def.Command, Stdout: Confirmation(def.Command)}
}

// Confirmation is the stdout of a terminal dispatch.
func Confirmation(command string) string {
	return "Command sent to terminal: " + command
}

func launchFailure(command string, err error) CommandResult {
	stack := string(debug.Stack())
	if stack == "" {
		stack = StackUnavailable
	}
	return CommandResult{Command: command, Error: err.Error(), Stack: stack}
}
