package sources

import (
	"context"

	"github.com/elpatron68/side-launcher/internal/task"
)

// ExternalFileSource reads the user-level tasks file, a strict JSON array.
type ExternalFileSource struct {
	Path string
}

func (s *ExternalFileSource) Name() string { return "external file" }

func (s *ExternalFileSource) Read(ctx context.Context) ([]task.Definition, error) {
	data, err := readFile(s.Name(), s.Path)
	if err != nil {
		return nil, err
	}
	defs, err := task.DecodeList(data)
	if err != nil {
		return nil, task.NewParseError(s.Name(), s.Path, err)
	}
	return defs, nil
}
