// Package main provides the CLI entry point for namesync.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"namesync/internal/command"
)

var version = "dev"

func main() {
	app := command.NewApp(command.DefaultDependencies(version))
	if err := app.Run(context.Background(), os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "namesync: %v\n", err)
		os.Exit(1)
	}
}
