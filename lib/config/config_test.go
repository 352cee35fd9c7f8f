// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
	if cfg.Paths.PublicSocket != "/run/depot/depot.sock" {
		t.Errorf("public_socket = %s, want /run/depot/depot.sock", cfg.Paths.PublicSocket)
	}
	if cfg.Paths.State == "" || cfg.Paths.Vault == "" || cfg.Paths.Packages == "" {
		t.Error("default paths must be non-empty")
	}
}

func TestLoadRequiresDepotConfig(t *testing.T) {
	t.Setenv("DEPOT_CONFIG", "")
	os.Unsetenv("DEPOT_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DEPOT_CONFIG not set")
	}
	if !strings.Contains(err.Error(), "DEPOT_CONFIG") {
		t.Errorf("error %q does not mention DEPOT_CONFIG", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
paths:
  root: /test/root
  public_socket: /test/depot.sock
accounts:
  controlled: "0xc0ffee"
  deployer: "0x1"
`)
	t.Setenv("DEPOT_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("environment = %s, want staging", cfg.Environment)
	}
	if cfg.Paths.Root != "/test/root" {
		t.Errorf("root = %s, want /test/root", cfg.Paths.Root)
	}
	// Unset fields keep their defaults.
	if cfg.Paths.AdminSocket != "/run/depot/admin.sock" {
		t.Errorf("admin_socket = %s, want default", cfg.Paths.AdminSocket)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
paths:
  root: /base/root
accounts:
  controlled: "0xc0ffee"
  deployer: "0x1"
production:
  paths:
    root: /prod/root
    state: /prod/state
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("root = %s, want production override", cfg.Paths.Root)
	}
	if cfg.Paths.State != "/prod/state" {
		t.Errorf("state = %s, want production override", cfg.Paths.State)
	}
}

func TestVariableExpansion(t *testing.T) {
	configPath := writeConfig(t, `
paths:
  root: /depot/root
  state: ${DEPOT_ROOT}/state
  packages: ${MISSING_VAR:-/fallback}/pkg
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.State != "/depot/root/state" {
		t.Errorf("state = %s, want /depot/root/state", cfg.Paths.State)
	}
	if cfg.Paths.Packages != "/fallback/pkg" {
		t.Errorf("packages = %s, want /fallback/pkg", cfg.Paths.Packages)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Accounts.Controlled = "0xc0ffee"
	cfg.Accounts.Deployer = "0x1"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config failed validation: %v", err)
	}

	cfg.Accounts.Deployer = "not-hex"
	if err := cfg.Validate(); err == nil {
		t.Error("bad deployer address passed validation")
	}

	cfg = Default()
	if err := cfg.Validate(); err == nil {
		t.Error("config without accounts passed validation")
	}
}

func TestParsedAddresses(t *testing.T) {
	cfg := Default()
	cfg.Accounts.Controlled = "0xc0ffee"
	cfg.Accounts.Deployer = "0x1"

	controlled, err := cfg.ControlledAddress()
	if err != nil {
		t.Fatalf("ControlledAddress: %v", err)
	}
	deployer, err := cfg.DeployerAddress()
	if err != nil {
		t.Fatalf("DeployerAddress: %v", err)
	}
	if controlled.Short() != "0xc0ffee" {
		t.Errorf("controlled = %s, want 0xc0ffee", controlled.Short())
	}
	if deployer.Short() != "0x1" {
		t.Errorf("deployer = %s, want 0x1", deployer.Short())
	}
}

func TestJournalPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.State = "/var/depot/state"
	if got := cfg.JournalPath(); got != "/var/depot/state/registry.db" {
		t.Errorf("JournalPath = %s", got)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}
