// Package launcher wires resolution and dispatch behind one facade and
// routes UI session messages to them.
package launcher

import (
	"context"
	"fmt"

	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/dispatch"
	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/message"
	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/task/sources"
	"github.com/elpatron68/side-launcher/internal/workspace"
)

// Host supplies a fresh workspace snapshot on every call.
type Host interface {
	Snapshot() workspace.Workspace
}

// StaticHost always returns the same snapshot.
type StaticHost struct {
	Workspace workspace.Workspace
}

func (h StaticHost) Snapshot() workspace.Workspace { return h.Workspace }

// Session is one connected UI. Send must be safe for concurrent use.
type Session interface {
	Send(message.Outbound) error
}

// SessionSink forwards results to a session as CommandOutput messages.
type SessionSink struct {
	Session Session
	Logger  applog.Logger
}

func (s SessionSink) Deliver(r dispatch.CommandResult) {
	if err := s.Session.Send(message.CommandOutput{Output: r}); err != nil {
		applog.OrNop(s.Logger).Warn("deliver result of %q: %v", r.Command, err)
	}
}

// Engine is safe for concurrent use.
type Engine struct {
	cfg        *config.Config
	host       Host
	provider   sources.SettingsProvider
	dispatcher *dispatch.Dispatcher
	logger     applog.Logger
}

// New builds an engine. provider may be nil to skip host settings.
func New(cfg *config.Config, host Host, provider sources.SettingsProvider, d *dispatch.Dispatcher, logger applog.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		host:       host,
		provider:   provider,
		dispatcher: d,
		logger:     applog.OrNop(logger),
	}
}

// HelpTask is the task returned when no source yields any.
func (e *Engine) HelpTask() task.Definition {
	return task.HelpTask(e.cfg.Sources.SettingsKey, e.cfg.ExternalTasksPath())
}

// Sources returns the current sources in precedence order.
func (e *Engine) Sources() []task.Source {
	return sources.Build(e.host.Snapshot(), e.cfg, e.provider)
}

// Resolve runs a full resolution pass against a fresh snapshot.
func (e *Engine) Resolve(ctx context.Context) task.Resolution {
	return task.NewResolver(e.HelpTask(), e.Sources(), e.logger).Resolve(ctx)
}

// ResolveTasks returns the merged task list.
func (e *Engine) ResolveTasks(ctx context.Context) []task.Definition {
	return e.Resolve(ctx).Tasks
}

// IsHelpOnly reports whether tasks is the synthesized help list.
func (e *Engine) IsHelpOnly(tasks []task.Definition) bool {
	return len(tasks) == 1 && tasks[0] == e.HelpTask()
}

// Context builds the execution context from a fresh snapshot.
func (e *Engine) Context() workspace.ExecutionContext {
	return e.host.Snapshot().Context()
}

// Execute runs def synchronously against ectx.
func (e *Engine) Execute(ctx context.Context, def task.Definition, ectx workspace.ExecutionContext) dispatch.CommandResult {
	return e.dispatcher.Execute(ctx, def, ectx)
}

// Dispatch runs def in the background with a freshly built context.
func (e *Engine) Dispatch(ctx context.Context, sink dispatch.Sink, def task.Definition) {
	e.dispatcher.Dispatch(ctx, sink, def, e.Context())
}

// Handle routes one inbound message for sess.
func (e *Engine) Handle(ctx context.Context, sess Session, msg message.Inbound) error {
	switch m := msg.(type) {
	case message.RunCommand:
		e.Dispatch(ctx, SessionSink{Session: sess, Logger: e.logger}, m.Definition())
		return nil
	case message.ReloadTasks:
		return e.Publish(ctx, sess)
	default:
		return fmt.Errorf("unhandled message %T", msg)
	}
}

// Publish resolves and sends the list to sess, followed by ShowHelp when
// only the help task is available.
func (e *Engine) Publish(ctx context.Context, sess Session) error {
	tasks := e.ResolveTasks(ctx)
	if err := sess.Send(message.TasksUpdated{Tasks: tasks}); err != nil {
		return err
	}
	if e.IsHelpOnly(tasks) {
		return sess.Send(message.ShowHelp{})
	}
	return nil
}

// DetectHost re-detects the workspace on every snapshot so edits to the
// workspace file's folder list are picked up. Explicit Folders win over
// detection.
type DetectHost struct {
	Dir           string
	WorkspaceFile string
	Folders       []string
	ActiveFile    string
	Logger        applog.Logger
}

func (h DetectHost) Snapshot() workspace.Workspace {
	ws, err := workspace.Detect(h.Dir, h.WorkspaceFile)
	if err != nil {
		applog.OrNop(h.Logger).Warn("detect workspace in %s: %v", h.Dir, err)
		ws = workspace.Workspace{Folders: []string{h.Dir}}
	}
	if len(h.Folders) > 0 {
		ws.Folders = append([]string(nil), h.Folders...)
	}
	ws.ActiveFile = h.ActiveFile
	return ws
}
