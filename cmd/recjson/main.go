package main

import (
	"fmt"
	"os"
)

func main() {
	cmd, opts := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "recjson:", opts.describe(err))
		os.Exit(1)
	}
}
