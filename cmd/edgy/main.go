// Command edgy reports the edge-case states and screens a UI design is
// missing.
package main

import (
	"fmt"
	"os"

	"github.com/inv-mschultz/edgy-sub001/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if cli.ShouldReport(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
