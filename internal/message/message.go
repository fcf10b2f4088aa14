// Package message defines the closed set of messages exchanged with a UI
// session and their JSON wire form.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/elpatron68/side-launcher/internal/dispatch"
	"github.com/elpatron68/side-launcher/internal/task"
)

// Wire tags.
const (
	TagRunCommand    = "runCommand"
	TagReloadTasks   = "reloadTasks"
	TagCommandOutput = "commandOutput"
	TagTasksUpdated  = "tasksUpdated"
	TagShowHelp      = "showHelp"
)

// Inbound is a message from the UI. The unexported method closes the set.
type Inbound interface {
	inbound()
}

// RunCommand asks to run a command line. TaskType is optional; Label is
// informational.
type RunCommand struct {
	Command  string
	TaskType task.Type
	Label    string
}

// ReloadTasks asks for a fresh resolution.
type ReloadTasks struct{}

func (RunCommand) inbound()  {}
func (ReloadTasks) inbound() {}

// Definition returns the task the message describes.
func (m RunCommand) Definition() task.Definition {
	return task.Definition{Label: m.Label, Type: m.TaskType, Command: m.Command}.Normalized()
}

// Outbound is a message to the UI.
type Outbound interface {
	outbound()
	tag() string
}

type CommandOutput struct {
	Output dispatch.CommandResult
}

type TasksUpdated struct {
	Tasks []task.Definition
}

type ShowHelp struct{}

func (CommandOutput) outbound() {}
func (TasksUpdated) outbound()  {}
func (ShowHelp) outbound()      {}

func (CommandOutput) tag() string { return TagCommandOutput }
func (TasksUpdated) tag() string  { return TagTasksUpdated }
func (ShowHelp) tag() string      { return TagShowHelp }

type inboundWire struct {
	Type     string `json:"type"`
	Command  string `json:"command,omitempty"`
	TaskType string `json:"taskType,omitempty"`
	Label    string `json:"label,omitempty"`
}

// UnknownTypeError is returned for a tag outside the closed set.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string { return fmt.Sprintf("unknown message type %q", e.Type) }

// DecodeInbound parses one inbound message.
func DecodeInbound(data []byte) (Inbound, error) {
	var w inboundWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	switch w.Type {
	case TagRunCommand:
		if w.Command == "" {
			return nil, fmt.Errorf("%s: command is required", TagRunCommand)
		}
		return RunCommand{Command: w.Command, TaskType: task.Type(w.TaskType), Label: w.Label}, nil
	case TagReloadTasks:
		return ReloadTasks{}, nil
	default:
		return nil, &UnknownTypeError{Type: w.Type}
	}
}

// EncodeInbound is the inverse of DecodeInbound, used by clients.
func EncodeInbound(m Inbound) ([]byte, error) {
	switch v := m.(type) {
	case RunCommand:
		return json.Marshal(inboundWire{Type: TagRunCommand, Command: v.Command, TaskType: string(v.TaskType), Label: v.Label})
	case ReloadTasks:
		return json.Marshal(inboundWire{Type: TagReloadTasks})
	default:
		return nil, fmt.Errorf("unsupported inbound message %T", m)
	}
}

// Encode renders an outbound message in its wire form.
func Encode(m Outbound) ([]byte, error) {
	switch v := m.(type) {
	case CommandOutput:
		return json.Marshal(struct {
			Type   string                 `json:"type"`
			Output dispatch.CommandResult `json:"output"`
		}{m.tag(), v.Output})
	case TasksUpdated:
		tasks := v.Tasks
		if tasks == nil {
			tasks = []task.Definition{}
		}
		return json.Marshal(struct {
			Type  string            `json:"type"`
			Tasks []task.Definition `json:"tasks"`
		}{m.tag(), tasks})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{m.tag()})
	}
}
