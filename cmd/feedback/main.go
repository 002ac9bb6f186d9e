package main

import (
	"os"

	"github.com/vultisig/feedback-client/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stdout, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
