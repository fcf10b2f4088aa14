// Package settings reads host-scoped settings: a user-level (global) file
// with a per-folder (workspace) file merged on top, the way an editor
// resolves its layered configuration.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/elpatron68/side-launcher/internal/task"
)

// Provider resolves the merged task setting for a folder.
type Provider struct {
	// UserFile is the global-scope settings file; empty disables it.
	UserFile string
	// FolderFile is the workspace-scope file name, relative to each folder.
	FolderFile string
	// Key is the settings section; tasks live under <Key>.tasks.
	Key string
}

// New returns a provider for the given files and key.
func New(userFile, folderFile, key string) *Provider {
	return &Provider{UserFile: userFile, FolderFile: folderFile, Key: key}
}

// FolderPath is the workspace-scope file for folder.
func (p *Provider) FolderPath(folder string) string {
	if p.FolderFile == "" {
		return ""
	}
	if filepath.IsAbs(p.FolderFile) {
		return p.FolderFile
	}
	return filepath.Join(folder, p.FolderFile)
}

// Tasks merges the two scopes and decodes <Key>.tasks. Lists are replaced,
// not concatenated, when the folder scope sets them. When neither file
// exists the returned error wraps task.ErrSourceMissing. Undecodable content
// is a *task.ParseError with an empty Source for the caller to fill.
func (p *Provider) Tasks(ctx context.Context, folder string) ([]task.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := viper.New()
	loaded := 0

	if p.UserFile != "" {
		ok, err := readScope(v, p.UserFile, false)
		if err != nil {
			return nil, err
		}
		if ok {
			loaded++
		}
	}
	if fp := p.FolderPath(folder); fp != "" {
		ok, err := readScope(v, fp, loaded > 0)
		if err != nil {
			return nil, err
		}
		if ok {
			loaded++
		}
	}
	if loaded == 0 {
		return nil, task.ErrSourceMissing
	}

	key := strings.ToLower(p.Key) + ".tasks"
	if !v.IsSet(key) {
		return nil, nil
	}
	var defs []task.Definition
	if err := v.UnmarshalKey(key, &defs); err != nil {
		return nil, task.NewParseError("", v.ConfigFileUsed(), fmt.Errorf("decode %s: %w", key, err))
	}
	out := make([]task.Definition, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Normalized())
	}
	return out, nil
}

// readScope loads path into v. A missing file reports false and no error.
func readScope(v *viper.Viper, path string, merge bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	var err error
	if merge {
		err = v.MergeInConfig()
	} else {
		err = v.ReadInConfig()
	}
	if err != nil {
		var perr viper.ConfigParseError
		if errors.As(err, &perr) {
			return false, task.NewParseError("", path, err)
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return true, nil
}
