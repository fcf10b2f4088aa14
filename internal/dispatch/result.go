// Package dispatch executes a resolved task either as a detached shell
// subprocess or inside an interactive terminal session, and delivers
// exactly one CommandResult per invocation.
package dispatch

// StackUnavailable is used when a launch failure carries no stack.
const StackUnavailable = "Stack trace not available"

// CommandResult is the outcome of one dispatch.
type CommandResult struct {
	Command string `json:"command"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Failed reports whether the command could not run or exited abnormally.
func (r CommandResult) Failed() bool { return r.Error != "" }
