package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	code := exitCode(err)
	if code == 0 {
		return
	}
	// An interrupted run already logged its shutdown; only real failures
	// get an error line.
	if code != exitInterrupted {
		fmt.Fprintln(os.Stderr, "vodflow:", err)
	}
	os.Exit(code)
}

const (
	exitFailure     = 1
	exitInterrupted = 130
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
