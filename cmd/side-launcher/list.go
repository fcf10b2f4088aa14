package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the resolved task list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		tasks := a.engine.ResolveTasks(cmd.Context())
		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}
		printTasks(out, tasks)
		if a.engine.IsHelpOnly(tasks) {
			fmt.Fprintf(out, "\nNo tasks configured. Run `side-launcher run %q` for details.\n", tasks[0].Label)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}
