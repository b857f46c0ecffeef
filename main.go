package main

import (
	"fmt"
	"os"

	"github.com/crytic/codetwin/cmd"
	"github.com/crytic/codetwin/cmd/exitcodes"
)

func main() {
	// Run our root CLI command, which contains all underlying command logic and will handle parsing/invocation.
	err := cmd.Execute()

	// Obtain the actual error and exit code from the error, if any.
	var exitCode int
	err, exitCode = exitcodes.GetInnerErrorAndExitCode(err)

	// Handled errors were already logged when they occurred.
	if err != nil && exitCode != exitcodes.ExitCodeHandledError {
		fmt.Fprintln(os.Stderr, err)
	}

	if exitCode != exitcodes.ExitCodeSuccess {
		os.Exit(exitCode)
	}
}
