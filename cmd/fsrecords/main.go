package main

import (
	"fmt"
	"os"

	"github.com/iamNilotpal/fsrecords/cmd/fsrecords/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
