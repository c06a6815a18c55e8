// Command relq translates entity queries into SQL and executes them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/relquery/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
