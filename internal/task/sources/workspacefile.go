package sources

import (
	"context"
	"encoding/json"

	"github.com/elpatron68/side-launcher/internal/task"
)

// WorkspaceFileSource reads a .code-workspace document strictly: the global
// settings section first, then each embedded folder's settings in order.
type WorkspaceFileSource struct {
	Path string
	Key  string
}

func (s *WorkspaceFileSource) Name() string { return "workspace file" }

type workspaceFileDoc struct {
	Settings map[string]any `json:"settings"`
	Folders  []struct {
		Path     string         `json:"path"`
		Settings map[string]any `json:"settings"`
	} `json:"folders"`
}

func (s *WorkspaceFileSource) Read(ctx context.Context) ([]task.Definition, error) {
	if s.Path == "" {
		return nil, &task.SourceReadError{Source: s.Name(), Err: task.ErrSourceMissing}
	}
	data, err := readFile(s.Name(), s.Path)
	if err != nil {
		return nil, err
	}
	var doc workspaceFileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, task.NewParseError(s.Name(), s.Path, err)
	}

	var out []task.Definition
	sections := []map[string]any{doc.Settings}
	for _, f := range doc.Folders {
		sections = append(sections, f.Settings)
	}
	for _, sec := range sections {
		raw, ok := tasksAt(sec, s.Key)
		if !ok {
			continue
		}
		defs, err := decodeRaw(raw)
		if err != nil {
			return nil, task.NewParseError(s.Name(), s.Path, err)
		}
		out = append(out, defs...)
	}
	return out, nil
}
