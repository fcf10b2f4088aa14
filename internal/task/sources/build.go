package sources

import (
	"path/filepath"

	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/workspace"
)

// Build returns the sources for ws in precedence order. provider may be nil,
// in which case host settings are skipped.
func Build(ws workspace.Workspace, cfg *config.Config, provider SettingsProvider) []task.Source {
	key := cfg.Sources.SettingsKey
	var out []task.Source
	if ws.File != "" {
		out = append(out, &WorkspaceFileSource{Path: ws.File, Key: key})
	}
	// Each folder contributes its local file, then its host settings,
	// before the next folder is read.
	for _, f := range ws.Folders {
		out = append(out, &FolderFileSource{Folder: f, Key: key})
		if provider != nil {
			out = append(out, &HostSettingsSource{Folder: f, Provider: provider})
		}
	}
	out = append(out, &ExternalFileSource{Path: cfg.ExternalTasksPath()})
	return out
}

// Paths lists the files the sources read, for change watching.
func Paths(srcs []task.Source, folderSettingsFile, userSettingsFile string) []string {
	var out []string
	for _, s := range srcs {
		switch v := s.(type) {
		case *WorkspaceFileSource:
			out = append(out, v.Path)
		case *FolderFileSource:
			out = append(out, v.Path())
		case *HostSettingsSource:
			if folderSettingsFile != "" {
				out = append(out, joinFolder(v.Folder, folderSettingsFile))
			}
		case *ExternalFileSource:
			out = append(out, v.Path)
		}
	}
	if userSettingsFile != "" {
		out = append(out, userSettingsFile)
	}
	return out
}

func joinFolder(folder, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(folder, name)
}
