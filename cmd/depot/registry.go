// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/account"
)

func registryCommand() *cli.Command {
	return &cli.Command{
		Name:    "registry",
		Summary: "query and extend the named-address registry",
		Description: "The registry binds names to addresses exactly once: a name,\n" +
			"once registered, can never be rebound. Queries go to the public\n" +
			"socket; register goes to the admin socket.",
		Subcommands: []*cli.Command{
			registryLookupCommand(),
			registryExistsCommand(),
			registryNamesCommand(),
			registryRegisterCommand(),
			registryEntriesCommand(),
		},
	}
}

func registryLookupCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "lookup",
		Summary: "resolve a registered name to its address",
		Usage:   "depot registry lookup <name>",
		Examples: []cli.Example{
			{Description: "Resolve a framework name", Command: "depot registry lookup core/framework"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("lookup", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "public socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one name argument")
			}
			var result struct {
				Address string `cbor:"address"`
			}
			err := publicClient(socketPath).Call(context.Background(), "lookup",
				map[string]any{"name": args[0]}, &result)
			if err != nil {
				return err
			}
			fmt.Println(result.Address)
			return nil
		},
	}
}

func registryExistsCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "exists",
		Summary: "check whether a name is registered",
		Usage:   "depot registry exists <name>",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("exists", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "public socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one name argument")
			}
			var result struct {
				Exists bool `cbor:"exists"`
			}
			err := publicClient(socketPath).Call(context.Background(), "exists",
				map[string]any{"name": args[0]}, &result)
			if err != nil {
				return err
			}
			fmt.Println(result.Exists)
			return nil
		},
	}
}

func registryNamesCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "names",
		Summary: "list all registered names",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("names", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "public socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			var result struct {
				Names []string `cbor:"names"`
			}
			err := publicClient(socketPath).Call(context.Background(), "names", nil, &result)
			if err != nil {
				return err
			}
			for _, name := range result.Names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func registryRegisterCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "register",
		Summary: "bind a name to an address (admin socket, insert-once)",
		Usage:   "depot registry register <name> <address>",
		Examples: []cli.Example{
			{Description: "Bind a name to an account address", Command: "depot registry register core/framework 0x4e9f"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "admin socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <name> <address> arguments")
			}
			// Parse locally for a fast, friendly error; the daemon
			// validates again.
			addr, err := account.ParseAddress(args[1])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			err = adminClient(socketPath).Call(context.Background(), "register",
				map[string]any{"name": args[0], "address": addr.String()}, nil)
			if err != nil {
				return err
			}
			fmt.Printf("registered %s -> %s\n", args[0], addr.Short())
			return nil
		},
	}
}

func registryEntriesCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "entries",
		Summary: "show the registry journal (admin socket)",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("entries", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "admin socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			var result struct {
				Entries []struct {
					Name       string `cbor:"name"`
					Address    string `cbor:"address"`
					RecordedAt string `cbor:"recorded_at"`
				} `cbor:"entries"`
			}
			err := adminClient(socketPath).Call(context.Background(), "entries", nil, &result)
			if err != nil {
				return err
			}
			for _, entry := range result.Entries {
				fmt.Printf("%s\t%s\t%s\n", entry.RecordedAt, entry.Name, entry.Address)
			}
			return nil
		},
	}
}
