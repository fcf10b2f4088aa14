package server

import (
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/task"
)

// helpMarkdown is the help page source: the help task text with its
// record example and command examples fenced as code.
func helpMarkdown(cfg *config.Config) string {
	text := task.HelpText(cfg.Sources.SettingsKey, cfg.ExternalTasksPath())
	var b strings.Builder
	b.WriteString("# side-launcher\n\n")
	inJSON := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case line == "[" && !inJSON:
			b.WriteString("```json\n[\n")
			inJSON = true
		case line == "]" && inJSON:
			b.WriteString("]\n```\n")
			inJSON = false
		case strings.HasPrefix(line, "- ") && strings.Contains(line, "$") && !strings.Contains(line, ":"):
			b.WriteString("- `" + strings.TrimPrefix(line, "- ") + "`\n")
		default:
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\nSources are read in this order; the first occurrence of a label and command pair wins:\n\n")
	b.WriteString("1. the workspace file (`settings." + cfg.Sources.SettingsKey + ".tasks`, then each folder's settings)\n")
	b.WriteString("2. each folder's `.vscode/settings.json` (comments and trailing commas allowed)\n")
	b.WriteString("3. each folder's `" + cfg.Sources.WorkspaceSettingsFile + "` merged over `" + cfg.UserSettingsPath() + "`\n")
	b.WriteString("4. `" + cfg.ExternalTasksPath() + "`\n")
	return b.String()
}

func renderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(src), p, r))
}
