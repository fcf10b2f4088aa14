package sources

import (
	"context"
	"path/filepath"

	"github.com/elpatron68/side-launcher/internal/task"
)

// FolderSettingsFile is the local settings file inside a folder.
var FolderSettingsFile = filepath.Join(".vscode", "settings.json")

// FolderFileSource reads <Folder>/.vscode/settings.json leniently.
type FolderFileSource struct {
	Folder string
	Key    string
}

func (s *FolderFileSource) Name() string { return "folder file " + s.Folder }

func (s *FolderFileSource) Path() string { return filepath.Join(s.Folder, FolderSettingsFile) }

func (s *FolderFileSource) Read(ctx context.Context) ([]task.Definition, error) {
	path := s.Path()
	data, err := readFile(s.Name(), path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := task.UnmarshalLenient(data, &doc); err != nil {
		return nil, task.NewParseError(s.Name(), path, err)
	}
	raw, ok := tasksAt(doc, s.Key)
	if !ok {
		return nil, nil
	}
	defs, err := decodeRaw(raw)
	if err != nil {
		return nil, task.NewParseError(s.Name(), path, err)
	}
	return defs, nil
}
