package task

import (
	"fmt"
	"strings"
)

// HelpLabel is the label of the task synthesized when no source yields any.
const HelpLabel = "show help"

// HelpText documents where tasks come from and what a command can use.
func HelpText(settingsKey, externalPath string) string {
	return fmt.Sprintf(`Custom commands can be defined in the %[1]s.tasks setting
(workspace file, .vscode/settings.json or settings files) or in
%[2]s, using records like:

[
  {
    "label": "name of the command",
    "type": "shell",
    "command": "command line"
  }
]

type is optional. Valid values:
- shell (default): run as a background process and show its output
- shellOnVSCode: run inside an interactive terminal session

Commands can use these environment variables:
- $VSCODE_WORKSPACE_ROOT: root path of the open workspace
- $WORKSPACE_ROOT: short alias of the above
- $CURRENT_FILE_ABSOLUTE_PATH: absolute path of the active file
- $CURRENT_FILE_RELATIVE_PATH: path of the active file relative to the workspace root

Examples:
- cd $WORKSPACE_ROOT && npm test
- ls -la $VSCODE_WORKSPACE_ROOT/src
- echo $CURRENT_FILE_ABSOLUTE_PATH
- git add $CURRENT_FILE_RELATIVE_PATH`, settingsKey, externalPath)
}

// HelpTask is the default task: a shell echo of HelpText.
func HelpTask(settingsKey, externalPath string) Definition {
	return Definition{
		Label:   HelpLabel,
		Type:    TypeShell,
		Command: "echo " + doubleQuote(HelpText(settingsKey, externalPath)),
	}
}

// doubleQuote wraps s for a POSIX shell so that it is echoed verbatim.
func doubleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
