// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "depot",
		Summary: "client for the depot daemon",
		Description: "Depot manages a controlled account: a package platform identity\n" +
			"whose publishes are restricted to a single deployer, plus an\n" +
			"insert-once registry of named addresses.",
		Subcommands: []*cli.Command{
			statusCommand(),
			publishCommand(),
			packagesCommand(),
			registryCommand(),
			provisionCommand(),
			keygenCommand(),
			{
				Name:    "version",
				Summary: "print version information",
				Run: func(args []string) error {
					fmt.Println(version.Full())
					return nil
				},
			},
		},
	}
}
