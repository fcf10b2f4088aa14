// Package sources implements the four task origins, in precedence order:
// the workspace file, each folder's local settings file, each folder's host
// settings, and the user-level external tasks file.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/elpatron68/side-launcher/internal/task"
)

// readFile maps a missing file to task.ErrSourceMissing.
func readFile(source, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = task.ErrSourceMissing
		}
		return nil, &task.SourceReadError{Source: source, Path: path, Err: err}
	}
	return data, nil
}

// tasksAt walks a decoded settings object to section.tasks. It accepts the
// nested form {"section": {"tasks": [...]}} and the dotted form
// {"section.tasks": [...]}. ok is false when neither is present.
func tasksAt(settings map[string]any, section string) (raw any, ok bool) {
	if settings == nil {
		return nil, false
	}
	if v, found := settings[section+".tasks"]; found {
		return v, true
	}
	sec, found := settings[section].(map[string]any)
	if !found {
		return nil, false
	}
	raw, ok = sec["tasks"]
	return raw, ok
}

// decodeRaw converts a generic tasks value into definitions with the same
// strictness as a direct JSON decode.
func decodeRaw(raw any) ([]task.Definition, error) {
	if _, ok := raw.([]any); !ok {
		return nil, fmt.Errorf("tasks must be an array, got %T", raw)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return task.DecodeList(data)
}
