// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestDispatchToSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "depot",
		Subcommands: []*Command{
			{
				Name: "registry",
				Subcommands: []*Command{
					{
						Name: "lookup",
						Run: func(args []string) error {
							ran = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"registry", "lookup", "core/framework"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 1 || ran[0] != "core/framework" {
		t.Errorf("subcommand args = %v, want [core/framework]", ran)
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "depot",
		Subcommands: []*Command{
			{Name: "publish", Run: func([]string) error { return nil }},
			{Name: "registry", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"publsh"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `"publish"`) {
		t.Errorf("error %q does not suggest publish", err)
	}
}

func TestFlagParsing(t *testing.T) {
	var name string
	command := &Command{
		Name: "lookup",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("lookup", pflag.ContinueOnError)
			flags.StringVar(&name, "name", "", "name to resolve")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	if err := command.Execute([]string{"--name", "core/framework"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if name != "core/framework" {
		t.Errorf("name = %q, want core/framework", name)
	}
}

func TestUnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "lookup",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("lookup", pflag.ContinueOnError)
			flags.String("socket", "", "daemon socket path")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--sokcet", "/run/depot/depot.sock"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--socket") {
		t.Errorf("error %q does not suggest --socket", err)
	}
}

func TestSubcommandRequired(t *testing.T) {
	root := &Command{
		Name: "depot",
		Subcommands: []*Command{
			{Name: "publish", Run: func([]string) error { return nil }},
		},
	}

	if err := root.Execute(nil); err == nil {
		t.Fatal("expected error when no subcommand given")
	}
}

func TestHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name: "depot",
		Subcommands: []*Command{
			{Name: "publish", Summary: "publish a package"},
			{Name: "registry", Summary: "registry operations"},
		},
	}

	var out strings.Builder
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"publish", "publish a package", "registry operations"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"lookup", "lookup", 0},
		{"lookup", "loookup", 1},
		{"exists", "exits", 1},
		{"register", "registry", 2},
		{"abc", "xyz", 3},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
