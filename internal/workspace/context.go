package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment keys added to every dispatched command.
const (
	EnvVSCodeWorkspaceRoot = "VSCODE_WORKSPACE_ROOT"
	EnvWorkspaceRoot       = "WORKSPACE_ROOT"
	EnvFileAbsolutePath    = "CURRENT_FILE_ABSOLUTE_PATH"
	EnvFileRelativePath    = "CURRENT_FILE_RELATIVE_PATH"
)

// ExecutionContext is computed per dispatch and never cached.
type ExecutionContext struct {
	WorkspaceRoot          string `json:"workspaceRoot"`
	ActiveFileAbsolutePath string `json:"activeFileAbsolutePath"`
	ActiveFileRelativePath string `json:"activeFileRelativePath"`
}

// BuildContext derives the context from the open folders and the active file.
// The root is the first folder, else the current directory. The relative path
// is only relativized when the file lies strictly under the root.
func BuildContext(folders []string, activeFile string) ExecutionContext {
	var ctx ExecutionContext
	if len(folders) > 0 && folders[0] != "" {
		ctx.WorkspaceRoot = folders[0]
	} else if wd, err := os.Getwd(); err == nil {
		ctx.WorkspaceRoot = wd
	}
	if activeFile == "" {
		return ctx
	}

	abs := activeFile
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(ctx.WorkspaceRoot, abs)
	}
	abs = filepath.Clean(abs)
	ctx.ActiveFileAbsolutePath = abs
	ctx.ActiveFileRelativePath = abs
	if rel, ok := relativeUnder(ctx.WorkspaceRoot, abs); ok {
		ctx.ActiveFileRelativePath = rel
	}
	return ctx
}

func relativeUnder(root, path string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// Vars returns the four overlay variables in a fixed order.
func (c ExecutionContext) Vars() [][2]string {
	return [][2]string{
		{EnvVSCodeWorkspaceRoot, c.WorkspaceRoot},
		{EnvWorkspaceRoot, c.WorkspaceRoot},
		{EnvFileAbsolutePath, c.ActiveFileAbsolutePath},
		{EnvFileRelativePath, c.ActiveFileRelativePath},
	}
}

// Overlay returns a new environment: base with the context variables set.
// Existing entries for those keys are replaced; base is not modified.
func Overlay(base []string, ctx ExecutionContext) []string {
	vars := ctx.Vars()
	out := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		if overridden(kv, vars) {
			continue
		}
		out = append(out, kv)
	}
	for _, v := range vars {
		out = append(out, v[0]+"="+v[1])
	}
	return out
}

// Environ is Overlay over the current process environment.
func Environ(ctx ExecutionContext) []string {
	return Overlay(os.Environ(), ctx)
}

func overridden(kv string, vars [][2]string) bool {
	k, _, _ := strings.Cut(kv, "=")
	for _, v := range vars {
		if k == v[0] {
			return true
		}
	}
	return false
}
