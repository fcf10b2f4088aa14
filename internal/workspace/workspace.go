// Package workspace snapshots the host state a dispatch runs against: the
// open folders, the optional workspace file and the active file.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a host snapshot. Folders are absolute paths in host order.
type Workspace struct {
	File       string
	Folders    []string
	ActiveFile string
}

// Root is the first folder, or empty when none is open.
func (w Workspace) Root() string {
	if len(w.Folders) == 0 {
		return ""
	}
	return w.Folders[0]
}

// Context builds a fresh ExecutionContext from the snapshot.
func (w Workspace) Context() ExecutionContext {
	return BuildContext(w.Folders, w.ActiveFile)
}

type workspaceDoc struct {
	Folders []struct {
		Path string `json:"path"`
	} `json:"folders"`
}

// Detect builds a snapshot rooted at dir. When workspaceFile is empty a single
// *.code-workspace file directly inside dir is used if present. Folders come
// from the workspace file's folders[].path, resolved against its directory;
// without a workspace file the only folder is dir.
func Detect(dir, workspaceFile string) (Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if workspaceFile == "" {
		matches, _ := filepath.Glob(filepath.Join(abs, "*.code-workspace"))
		if len(matches) == 1 {
			workspaceFile = matches[0]
		}
	}
	if workspaceFile == "" {
		return Workspace{Folders: []string{abs}}, nil
	}

	wf, err := filepath.Abs(workspaceFile)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve %s: %w", workspaceFile, err)
	}
	ws := Workspace{File: wf}
	folders, err := readFolders(wf)
	if err != nil {
		// The workspace file is still a task source; its parse error is
		// reported there.
		ws.Folders = []string{abs}
		return ws, nil
	}
	if len(folders) == 0 {
		folders = []string{abs}
	}
	ws.Folders = folders
	return ws, nil
}

func readFolders(workspaceFile string) ([]string, error) {
	data, err := os.ReadFile(workspaceFile)
	if err != nil {
		return nil, err
	}
	var doc workspaceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	base := filepath.Dir(workspaceFile)
	var out []string
	for _, f := range doc.Folders {
		p := strings.TrimSpace(f.Path)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		out = append(out, filepath.Clean(p))
	}
	return out, nil
}
