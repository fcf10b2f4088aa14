package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/workspace"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func labels(defs []task.Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Label)
	}
	return out
}

func TestWorkspaceFileGlobalThenFolders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.code-workspace")
	writeFile(t, path, `{
  "folders": [
    {"path": "a", "settings": {"sideLauncher": {"tasks": [{"label": "fa", "command": "1"}]}}},
    {"path": "b"},
    {"path": "c", "settings": {"sideLauncher.tasks": [{"label": "fc", "command": "3"}]}}
  ],
  "settings": {"sideLauncher": {"tasks": [{"label": "global", "type": "shellOnVSCode", "command": "0"}]}}
}`)
	src := &WorkspaceFileSource{Path: path, Key: "sideLauncher"}
	defs, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "fa", "fc"}, labels(defs))
	assert.Equal(t, task.TypeShellOnVSCode, defs[0].Type)
	assert.Equal(t, task.TypeShell, defs[1].Type)
}

func TestWorkspaceFileIsStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.code-workspace")
	writeFile(t, path, `{"settings": {}, // comment
}`)
	_, err := (&WorkspaceFileSource{Path: path, Key: "sideLauncher"}).Read(context.Background())
	var pe *task.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
}

func TestWorkspaceFileNotConfigured(t *testing.T) {
	_, err := (&WorkspaceFileSource{Key: "sideLauncher"}).Read(context.Background())
	assert.ErrorIs(t, err, task.ErrSourceMissing)
}

func TestFolderFileLenient(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, filepath.Join(folder, ".vscode", "settings.json"), `{
  // editor settings
  "editor.tabSize": 2,
  "sideLauncher.tasks": [
    {"label": "lint", "command": "golangci-lint run ./...", }, /* trailing */
  ],
}`)
	defs, err := (&FolderFileSource{Folder: folder, Key: "sideLauncher"}).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "golangci-lint run ./...", defs[0].Command)
}

func TestFolderFileMissingAndMalformed(t *testing.T) {
	folder := t.TempDir()
	src := &FolderFileSource{Folder: folder, Key: "sideLauncher"}
	_, err := src.Read(context.Background())
	var re *task.SourceReadError
	require.True(t, errors.As(err, &re))
	assert.ErrorIs(t, err, task.ErrSourceMissing)

	writeFile(t, src.Path(), `{"sideLauncher": {"tasks": "nope"}}`)
	_, err = src.Read(context.Background())
	var pe *task.ParseError
	assert.True(t, errors.As(err, &pe))

	writeFile(t, src.Path(), `{"sideLauncher": {"tasks": [{"label": 5, "command": "x"}]}}`)
	_, err = src.Read(context.Background())
	assert.True(t, errors.As(err, &pe))
}

func TestFolderFileWithoutKey(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, filepath.Join(folder, ".vscode", "settings.json"), `{"files.eol": "\n"}`)
	defs, err := (&FolderFileSource{Folder: folder, Key: "sideLauncher"}).Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestExternalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	src := &ExternalFileSource{Path: path}
	_, err := src.Read(context.Background())
	assert.ErrorIs(t, err, task.ErrSourceMissing)

	writeFile(t, path, `[{"label": "up", "command": "docker compose up"}]`)
	defs, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, labels(defs))

	writeFile(t, path, `[{"label": "up", "command": "x"},]`)
	_, err = src.Read(context.Background())
	var pe *task.ParseError
	assert.True(t, errors.As(err, &pe))
}

type fakeProvider struct {
	defs map[string][]task.Definition
	err  error
}

func (f fakeProvider) Tasks(_ context.Context, folder string) ([]task.Definition, error) {
	return f.defs[folder], f.err
}

func TestHostSettingsWrapsErrors(t *testing.T) {
	src := &HostSettingsSource{Folder: "/p", Provider: fakeProvider{err: task.ErrSourceMissing}}
	_, err := src.Read(context.Background())
	var re *task.SourceReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "host settings /p", re.Source)
	assert.ErrorIs(t, err, task.ErrSourceMissing)

	src = &HostSettingsSource{Folder: "/p", Provider: fakeProvider{defs: map[string][]task.Definition{"/p": {{Label: "x", Command: "y"}}}}}
	defs, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestHostSettingsNamesParseErrors(t *testing.T) {
	perr := task.NewParseError("", "/p/.side-launcher.yaml", errors.New("bad yaml"))
	src := &HostSettingsSource{Folder: "/p", Provider: fakeProvider{err: perr}}
	_, err := src.Read(context.Background())
	var pe *task.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "host settings /p", pe.Source)
	assert.Equal(t, "/p/.side-launcher.yaml", pe.Path)
	assert.Contains(t, err.Error(), "host settings /p: parse /p/.side-launcher.yaml")
}

func TestBuildPrecedenceOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.ExternalTasksFile = "/cfg/tasks.json"
	ws := workspace.Workspace{File: "/w/x.code-workspace", Folders: []string{"/w/a", "/w/b"}}

	srcs := Build(ws, cfg, fakeProvider{})
	names := make([]string, 0, len(srcs))
	for _, s := range srcs {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"workspace file",
		"folder file /w/a",
		"host settings /w/a",
		"folder file /w/b",
		"host settings /w/b",
		"external file",
	}, names)

	paths := Paths(srcs, ".side-launcher.yaml", "/cfg/settings.yaml")
	assert.Equal(t, []string{
		"/w/x.code-workspace",
		filepath.Join("/w/a", ".vscode", "settings.json"),
		filepath.Join("/w/a", ".side-launcher.yaml"),
		filepath.Join("/w/b", ".vscode", "settings.json"),
		filepath.Join("/w/b", ".side-launcher.yaml"),
		"/cfg/tasks.json",
		"/cfg/settings.yaml",
	}, paths)
}

func TestBuildInterleavesFolderSources(t *testing.T) {
	root := t.TempDir()
	a, b := filepath.Join(root, "a"), filepath.Join(root, "b")
	writeFile(t, filepath.Join(b, ".vscode", "settings.json"), `{"sideLauncher.tasks": [{"label": "b-file", "command": "b"}]}`)
	provider := fakeProvider{defs: map[string][]task.Definition{
		a: {{Label: "a-host", Command: "a"}},
	}}

	cfg := config.Default()
	cfg.Sources.ExternalTasksFile = filepath.Join(root, "tasks.json")
	ws := workspace.Workspace{Folders: []string{a, b}}
	res := task.NewResolver(task.HelpTask("sideLauncher", ""), Build(ws, cfg, provider), nil).Resolve(context.Background())
	assert.Equal(t, []string{"a-host", "b-file"}, labels(res.Tasks))
}

func TestResolveAcrossSources(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "proj")
	external := filepath.Join(root, "tasks.json")
	writeFile(t, filepath.Join(folder, ".vscode", "settings.json"), `{"sideLauncher": {"tasks": [
    {"label": "build", "command": "make"}, // first
  ]}}`)
	writeFile(t, external, `[{"label": "build", "command": "make"}, {"label": "deploy", "command": "make deploy"}]`)

	cfg := config.Default()
	cfg.Sources.ExternalTasksFile = external
	ws := workspace.Workspace{Folders: []string{folder}}
	r := task.NewResolver(task.HelpTask(cfg.Sources.SettingsKey, external), Build(ws, cfg, nil), nil)
	res := r.Resolve(context.Background())
	assert.Equal(t, []string{"build", "deploy"}, labels(res.Tasks))
	assert.Empty(t, res.Errors)
}
