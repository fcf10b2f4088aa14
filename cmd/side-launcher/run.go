package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elpatron68/side-launcher/internal/task"
)

var (
	runCommandLine string
	runType        string
)

var runCmd = &cobra.Command{
	Use:   "run [label|index]",
	Short: "Run a task by label or list index, or an ad hoc --command",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		var def task.Definition
		switch {
		case runCommandLine != "":
			label := runCommandLine
			if len(args) == 1 {
				label = args[0]
			}
			def = task.Definition{Label: label, Type: task.Type(runType), Command: runCommandLine}.Normalized()
		case len(args) == 1:
			tasks := a.engine.ResolveTasks(cmd.Context())
			d, ok := findTask(tasks, args[0])
			if !ok {
				return fmt.Errorf("no task %q; see `side-launcher list`", args[0])
			}
			def = d
		default:
			return fmt.Errorf("a task label or --command is required")
		}

		res := a.engine.Execute(cmd.Context(), def, a.engine.Context())
		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
		} else {
			printResult(out, res)
		}
		if res.Failed() {
			return errSilent
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCommandLine, "command", "", "run this command line instead of a configured task")
	runCmd.Flags().StringVar(&runType, "type", "", "task type for --command: shell or shellOnVSCode")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
}

// findTask matches by exact label first, then by 1-based list index.
func findTask(tasks []task.Definition, ref string) (task.Definition, bool) {
	for _, t := range tasks {
		if t.Label == ref {
			return t, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
		return tasks[n-1], true
	}
	return task.Definition{}, false
}
