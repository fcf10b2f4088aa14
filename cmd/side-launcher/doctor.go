package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elpatron68/side-launcher/internal/dispatch"
	"github.com/elpatron68/side-launcher/internal/task/sources"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the interpreter, the terminal backend and every task source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		st := newStyles(out)
		healthy := true

		fmt.Fprintln(out, st.render(st.accent, "Runtime"))
		ready, err := dispatch.EnsureReady(a.cfg)
		if err != nil {
			healthy = false
			checkLine(out, false, "interpreter", err.Error())
		} else {
			checkLine(out, true, "interpreter", ready.Interpreter)
		}
		if ready.TerminalErr != nil {
			checkLine(out, false, "terminal", ready.TerminalErr.Error())
		} else if ready.Terminal != "" {
			checkLine(out, true, "terminal", ready.Terminal+" (session "+a.cfg.Terminal.Session+")")
		}

		ws := a.host.Snapshot()
		fmt.Fprintln(out, st.render(st.accent, "Workspace"))
		if ws.File != "" {
			checkLine(out, true, "workspace file", ws.File)
		}
		for i, f := range ws.Folders {
			_, statErr := os.Stat(f)
			checkLine(out, statErr == nil, fmt.Sprintf("folder %d", i+1), f)
		}

		fmt.Fprintln(out, st.render(st.accent, "Sources"))
		res := a.engine.Resolve(cmd.Context())
		failed := make(map[string]string, len(res.Errors))
		for _, e := range res.Errors {
			if e.Missing() {
				failed[e.Source] = "not present"
				continue
			}
			failed[e.Source] = e.Err.Error()
			healthy = false
		}
		for _, s := range a.engine.Sources() {
			detail, bad := failed[s.Name()]
			if !bad {
				detail = "ok"
			}
			checkLine(out, !bad || detail == "not present", s.Name(), detail)
		}
		paths := sources.Paths(a.engine.Sources(), a.cfg.Sources.WorkspaceSettingsFile, a.cfg.UserSettingsPath())
		fmt.Fprintln(out, st.render(st.muted, "watched: "+strings.Join(paths, ", ")))
		fmt.Fprintf(out, "%d task(s) resolved\n", len(res.Tasks))

		if !healthy {
			return errSilent
		}
		return nil
	},
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
