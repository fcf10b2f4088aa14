// Package task holds the launcher's task model and the resolution pipeline
// that merges task records from every configured source into one list.
package task

import (
	"bytes"
	"encoding/json"
)

// Type selects how a task is dispatched.
type Type string

const (
	// TypeShell runs the command as a detached subprocess and captures output.
	TypeShell Type = "shell"
	// TypeShellOnVSCode writes the command into an interactive terminal session.
	TypeShellOnVSCode Type = "shellOnVSCode"
)

// ParseType maps a raw record value to a Type. Empty means shell; any other
// value is kept as-is and dispatched like shell.
func ParseType(s string) Type {
	if s == "" {
		return TypeShell
	}
	return Type(s)
}

// Interactive reports whether the type runs in a terminal session.
func (t Type) Interactive() bool { return t == TypeShellOnVSCode }

// Definition is one labeled command. Identity is (Label, Command).
type Definition struct {
	Label   string `json:"label" yaml:"label" mapstructure:"label"`
	Type    Type   `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Command string `json:"command" yaml:"command" mapstructure:"command"`
}

// Key is the de-duplication key.
func (d Definition) Key() string { return d.Label + ":" + d.Command }

// Normalized returns a copy with the default type filled in.
func (d Definition) Normalized() Definition {
	d.Type = ParseType(string(d.Type))
	return d
}

// DecodeList strictly decodes a JSON array of task records.
func DecodeList(data []byte) ([]Definition, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, err
	}
	return normalizeAll(defs), nil
}

func normalizeAll(defs []Definition) []Definition {
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Normalized())
	}
	return out
}
