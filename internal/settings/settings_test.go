package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpatron68/side-launcher/internal/task"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestTasksFolderScopeReplacesUserScope(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "user", "settings.yaml")
	folder := filepath.Join(dir, "proj")
	writeFile(t, user, `
sideLauncher:
  tasks:
    - label: global
      command: echo global
`)
	writeFile(t, filepath.Join(folder, ".side-launcher.yaml"), `
sideLauncher:
  tasks:
    - label: local
      type: shellOnVSCode
      command: htop
    - label: plain
      command: ls
`)

	p := New(user, ".side-launcher.yaml", "sideLauncher")
	defs, err := p.Tasks(context.Background(), folder)
	require.NoError(t, err)
	assert.Equal(t, []task.Definition{
		{Label: "local", Type: task.TypeShellOnVSCode, Command: "htop"},
		{Label: "plain", Type: task.TypeShell, Command: "ls"},
	}, defs)
}

func TestTasksUserScopeOnly(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "settings.yaml")
	writeFile(t, user, "sideLauncher:\n  tasks:\n    - {label: g, command: date}\n")

	defs, err := New(user, ".side-launcher.yaml", "sideLauncher").Tasks(context.Background(), filepath.Join(dir, "empty"))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "g", defs[0].Label)
}

func TestTasksNoFilesIsMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := New(filepath.Join(dir, "none.yaml"), ".side-launcher.yaml", "sideLauncher").Tasks(context.Background(), dir)
	assert.ErrorIs(t, err, task.ErrSourceMissing)
}

func TestTasksKeyAbsent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".side-launcher.yaml"), "other: 1\n")
	defs, err := New("", ".side-launcher.yaml", "sideLauncher").Tasks(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestTasksMalformedFolderFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".side-launcher.yaml"), "sideLauncher: [unclosed\n")
	_, err := New("", ".side-launcher.yaml", "sideLauncher").Tasks(context.Background(), dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, task.ErrSourceMissing)
	var pe *task.ParseError
	require.True(t, errors.As(err, &pe), "got %T: %v", err, err)
	assert.Equal(t, filepath.Join(dir, ".side-launcher.yaml"), pe.Path)
}

func TestTasksWrongShapeIsParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".side-launcher.yaml"), "sideLauncher:\n  tasks: oops\n")
	_, err := New("", ".side-launcher.yaml", "sideLauncher").Tasks(context.Background(), dir)
	var pe *task.ParseError
	require.True(t, errors.As(err, &pe), "got %T: %v", err, err)
}
