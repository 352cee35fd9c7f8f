// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/account"
)

func publishCommand() *cli.Command {
	var (
		socketPath   string
		callerFlag   string
		metadataPath string
	)
	return &cli.Command{
		Name:    "publish",
		Summary: "publish a package under the controlled account",
		Usage:   "depot publish --caller <address> --metadata <file> <module>...",
		Description: "Publish sends package metadata and module files to the daemon.\n" +
			"The daemon honors the request only when --caller is the deployer\n" +
			"configured for the controlled account.",
		Examples: []cli.Example{
			{
				Description: "Publish two modules as the deployer",
				Command:     "depot publish --caller 0x1 --metadata pkg.meta build/a.mv build/b.mv",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("publish", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "public socket path (default from DEPOT_CONFIG)")
			flags.StringVar(&callerFlag, "caller", "", "address making the publish call (required)")
			flags.StringVar(&metadataPath, "metadata", "", "path to the package metadata file (required)")
			return flags
		},
		Run: func(args []string) error {
			if callerFlag == "" {
				return fmt.Errorf("--caller is required")
			}
			caller, err := account.ParseAddress(callerFlag)
			if err != nil {
				return fmt.Errorf("invalid caller: %w", err)
			}
			if metadataPath == "" {
				return fmt.Errorf("--metadata is required")
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one module file is required")
			}

			metadata, err := os.ReadFile(metadataPath)
			if err != nil {
				return fmt.Errorf("reading metadata: %w", err)
			}
			modules := make([][]byte, len(args))
			for i, path := range args {
				module, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading module %s: %w", path, err)
				}
				modules[i] = module
			}

			var result struct {
				Package string `cbor:"package"`
			}
			err = publicClient(socketPath).Call(context.Background(), "publish", map[string]any{
				"caller":   caller.String(),
				"metadata": metadata,
				"modules":  modules,
			}, &result)
			if err != nil {
				return err
			}
			fmt.Println(result.Package)
			return nil
		},
	}
}

func packagesCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "packages",
		Summary: "list published package IDs",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("packages", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "public socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			var result struct {
				Packages []string `cbor:"packages"`
			}
			err := publicClient(socketPath).Call(context.Background(), "packages", nil, &result)
			if err != nil {
				return err
			}
			for _, id := range result.Packages {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	var socketPath string
	return &cli.Command{
		Name:    "status",
		Summary: "show daemon status",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "public socket path (default from DEPOT_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			var result struct {
				Controlled    string  `cbor:"controlled"`
				Deployer      string  `cbor:"deployer"`
				UptimeSeconds float64 `cbor:"uptime_seconds"`
			}
			err := publicClient(socketPath).Call(context.Background(), "status", nil, &result)
			if err != nil {
				return err
			}
			fmt.Printf("controlled: %s\ndeployer:   %s\nuptime:     %.0fs\n",
				result.Controlled, result.Deployer, result.UptimeSeconds)
			return nil
		},
	}
}
