package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/elpatron68/side-launcher/internal/dispatch"
	"github.com/elpatron68/side-launcher/internal/task"
)

var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

// styles renders plain text when the output is not a terminal.
type styles struct {
	plain  bool
	label  lipgloss.Style
	muted  lipgloss.Style
	pass   lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	accent lipgloss.Style
}

func newStyles(w io.Writer) styles {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !term.IsTerminal(int(f.Fd()))
	}
	return styles{
		plain:  plain,
		label:  lipgloss.NewStyle().Bold(true),
		muted:  lipgloss.NewStyle().Foreground(colorMuted),
		pass:   lipgloss.NewStyle().Foreground(colorPass),
		warn:   lipgloss.NewStyle().Foreground(colorWarn),
		fail:   lipgloss.NewStyle().Foreground(colorFail),
		accent: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return st.Render(text)
}

func printTasks(w io.Writer, tasks []task.Definition) {
	st := newStyles(w)
	width := 0
	for _, t := range tasks {
		if len(t.Label) > width {
			width = len(t.Label)
		}
	}
	for i, t := range tasks {
		mode := ""
		if t.Type.Interactive() {
			mode = " " + st.render(st.accent, "[terminal]")
		}
		fmt.Fprintf(w, "%3d  %s%s  %s%s\n", i+1,
			st.render(st.label, t.Label), strings.Repeat(" ", width-len(t.Label)),
			st.render(st.muted, t.Command), mode)
	}
}

func printResult(w io.Writer, res dispatch.CommandResult) {
	st := newStyles(w)
	if res.Stdout != "" {
		fmt.Fprint(w, res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			fmt.Fprintln(w)
		}
	}
	if res.Stderr != "" {
		fmt.Fprint(w, st.render(st.warn, res.Stderr))
		if !strings.HasSuffix(res.Stderr, "\n") {
			fmt.Fprintln(w)
		}
	}
	if res.Error != "" {
		fmt.Fprintln(w, st.render(st.fail, "✗ "+res.Error))
	}
}

func checkLine(w io.Writer, ok bool, name, detail string) {
	st := newStyles(w)
	icon := st.render(st.pass, "✓")
	if !ok {
		icon = st.render(st.fail, "✗")
	}
	fmt.Fprintf(w, "%s %s %s\n", icon, name, st.render(st.muted, detail))
}
