package sources

import (
	"context"
	"errors"

	"github.com/elpatron68/side-launcher/internal/task"
)

// SettingsProvider returns a folder's tasks with every settings scope
// already merged.
type SettingsProvider interface {
	Tasks(ctx context.Context, folder string) ([]task.Definition, error)
}

// HostSettingsSource reads one folder through a SettingsProvider.
type HostSettingsSource struct {
	Folder   string
	Provider SettingsProvider
}

func (s *HostSettingsSource) Name() string { return "host settings " + s.Folder }

func (s *HostSettingsSource) Read(ctx context.Context) ([]task.Definition, error) {
	if s.Provider == nil {
		return nil, &task.SourceReadError{Source: s.Name(), Err: task.ErrSourceMissing}
	}
	defs, err := s.Provider.Tasks(ctx, s.Folder)
	if err != nil {
		var pe *task.ParseError
		if errors.As(err, &pe) {
			if pe.Source == "" {
				pe.Source = s.Name()
			}
			return nil, pe
		}
		var re *task.SourceReadError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &task.SourceReadError{Source: s.Name(), Err: err}
	}
	return defs, nil
}
