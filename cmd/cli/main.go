// Command perf-annotate ranks the hottest lines, symbols and callers of a
// sampled profile.
package main

import "github.com/perf-annotate/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
