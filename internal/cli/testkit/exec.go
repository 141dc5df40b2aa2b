// Package testkit runs cobra command trees in tests with captured streams.
package testkit

import (
	"bytes"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// Cobra mutates shared annotation maps while rendering help and
// completions, so parallel tests take turns.
var runMu sync.Mutex

// Result holds what one command invocation wrote and returned.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

func Run(command *cobra.Command, stdin string, args ...string) Result {
	runMu.Lock()
	defer runMu.Unlock()

	var stdout, stderr bytes.Buffer
	command.SetOut(&stdout)
	command.SetErr(&stderr)
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)

	err := command.Execute()
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// CommandPaths lists every subcommand below command as space separated
// paths, skipping help and cobra's hidden completion handlers.
func CommandPaths(command *cobra.Command) []string {
	var paths []string
	var walk func(*cobra.Command, []string)
	walk = func(parent *cobra.Command, prefix []string) {
		for _, child := range parent.Commands() {
			name := child.Name()
			if name == "help" || strings.HasPrefix(name, "__") {
				continue
			}
			path := append(append([]string(nil), prefix...), name)
			paths = append(paths, strings.Join(path, " "))
			walk(child, path)
		}
	}
	walk(command, nil)
	return paths
}
