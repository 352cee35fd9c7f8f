// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/depot-foundation/depot/cmd/depot/cli"
	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/config"
	"github.com/depot-foundation/depot/lib/sealed"
)

func provisionCommand() *cli.Command {
	var (
		vaultDir       string
		controlledFlag string
		deployerFlag   string
		recipients     []string
	)
	return &cli.Command{
		Name:    "provision",
		Summary: "create a controlled account's capability bundle in the vault",
		Usage:   "depot provision --controlled <address> --deployer <address> --recipient <age key>...",
		Description: "Provision generates a fresh seed for the controlled account, seals\n" +
			"it to the given age recipients, and writes the bundle into the\n" +
			"vault. The bundle can be claimed exactly once, by the deployer,\n" +
			"when the daemon starts. Provisioning the same account twice fails.",
		Examples: []cli.Example{
			{
				Description: "Provision with the vault from DEPOT_CONFIG",
				Command:     "depot provision --controlled 0xc0ffee --deployer 0x1 --recipient age1...",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("provision", pflag.ContinueOnError)
			flags.StringVar(&vaultDir, "vault", "", "vault directory (default from DEPOT_CONFIG)")
			flags.StringVar(&controlledFlag, "controlled", "", "controlled account address (required)")
			flags.StringVar(&deployerFlag, "deployer", "", "deployer address (required)")
			flags.StringArrayVar(&recipients, "recipient", nil, "age public key to seal the seed to (repeatable)")
			return flags
		},
		Run: func(args []string) error {
			if controlledFlag == "" || deployerFlag == "" {
				return fmt.Errorf("--controlled and --deployer are required")
			}
			controlled, err := account.ParseAddress(controlledFlag)
			if err != nil {
				return fmt.Errorf("invalid controlled address: %w", err)
			}
			deployer, err := account.ParseAddress(deployerFlag)
			if err != nil {
				return fmt.Errorf("invalid deployer address: %w", err)
			}

			// Fall back to the config file for the vault directory
			// and escrow recipients.
			var cfg *config.Config
			if vaultDir == "" || len(recipients) == 0 {
				cfg, err = config.Load()
				if err != nil {
					return fmt.Errorf("no --vault/--recipient and no usable DEPOT_CONFIG: %w", err)
				}
			}
			if vaultDir == "" {
				vaultDir = cfg.Paths.Vault
			}
			if len(recipients) == 0 {
				recipients = cfg.Escrow.Recipients
			}
			if len(recipients) == 0 {
				return fmt.Errorf("at least one --recipient (or escrow.recipients in the config) is required")
			}

			vault, err := authority.OpenVault(vaultDir)
			if err != nil {
				return err
			}
			if err := vault.Provision(controlled, deployer, recipients); err != nil {
				return err
			}
			fmt.Printf("provisioned %s (deployer %s, %d recipient(s))\n",
				controlled.Short(), deployer.Short(), len(recipients))
			return nil
		},
	}
}

func keygenCommand() *cli.Command {
	var outputPath string
	return &cli.Command{
		Name:    "keygen",
		Summary: "generate an age escrow keypair",
		Description: "Keygen generates an age identity for seed escrow. The public key\n" +
			"is printed to stdout for use with 'depot provision --recipient';\n" +
			"the identity is written to --output with mode 0600.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flags.StringVar(&outputPath, "output", "", "file to write the identity to (\"-\" for stdout)")
			return flags
		},
		Run: func(args []string) error {
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}

			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			defer keypair.Close()

			if outputPath == "-" {
				// Refuse to echo the identity to an interactive
				// terminal; it belongs in a file or a pipe.
				if term.IsTerminal(int(os.Stdout.Fd())) {
					return fmt.Errorf("refusing to print the identity to a terminal; redirect stdout or use --output <file>")
				}
				fmt.Println(keypair.PrivateKey.String())
			} else {
				if err := os.WriteFile(outputPath, append(keypair.PrivateKey.Bytes(), '\n'), 0o600); err != nil {
					return fmt.Errorf("writing identity: %w", err)
				}
			}

			fmt.Fprintf(os.Stderr, "public key: %s\n", keypair.PublicKey)
			if outputPath != "-" {
				fmt.Println(keypair.PublicKey)
			}
			return nil
		},
	}
}
