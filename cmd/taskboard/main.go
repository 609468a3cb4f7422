package main

import (
	"fmt"
	"os"

	"github.com/Makepad-fr/taskboard/internal/cli"
)

func main() {
	// Hand every arg to the CLI runner; flags are parsed per subcommand.
	code := cli.Run(os.Args[1:], cli.Options{})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
