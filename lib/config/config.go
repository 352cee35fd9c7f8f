// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/depot-foundation/depot/lib/account"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for a depot deployment.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Paths configures directory and socket locations.
	Paths PathsConfig `yaml:"paths"`

	// Accounts identifies the controlled account and its deployer.
	Accounts AccountsConfig `yaml:"accounts"`

	// Escrow configures seed escrow for provisioning.
	Escrow EscrowConfig `yaml:"escrow"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Escrow *EscrowConfig `yaml:"escrow,omitempty"`
}

// PathsConfig configures directory and socket locations.
type PathsConfig struct {
	// Root is the base directory for depot data.
	Root string `yaml:"root"`

	// State is where runtime state is stored, including the registry
	// journal database.
	State string `yaml:"state"`

	// Vault is the directory holding escrowed capability bundles.
	Vault string `yaml:"vault"`

	// Packages is the root of the on-disk package store.
	Packages string `yaml:"packages"`

	// PublicSocket is the Unix socket for registry queries and
	// deployer publishes.
	PublicSocket string `yaml:"public_socket"`

	// AdminSocket is the Unix socket for registry writes. Reachable
	// only by the daemon operator; protect with directory permissions.
	AdminSocket string `yaml:"admin_socket"`
}

// AccountsConfig identifies the accounts a daemon serves. Addresses
// are hex strings as produced by account.Address.String; short forms
// with or without the 0x prefix are accepted.
type AccountsConfig struct {
	// Controlled is the address of the controlled account.
	Controlled string `yaml:"controlled"`

	// Deployer is the address whose publish requests are honored.
	Deployer string `yaml:"deployer"`
}

// EscrowConfig configures seed escrow for provisioning.
type EscrowConfig struct {
	// Recipients are age public keys. Provisioning seals the
	// controlled account's seed to every listed recipient.
	Recipients []string `yaml:"recipients"`
}

// Default returns the default configuration. The defaults exist so
// every field has a sensible zero value; the config file remains
// required for real deployments.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "depot")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:         defaultRoot,
			State:        filepath.Join(defaultRoot, "state"),
			Vault:        filepath.Join(defaultRoot, "vault"),
			Packages:     filepath.Join(defaultRoot, "packages"),
			PublicSocket: "/run/depot/depot.sock",
			AdminSocket:  "/run/depot/admin.sock",
		},
	}
}

// Load loads configuration from the path in DEPOT_CONFIG. There are
// no fallbacks: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv("DEPOT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("DEPOT_CONFIG environment variable not set; " +
			"set it to the path of your depot.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth; environment variables never override
// its values. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides merges the section matching
// c.Environment over the base values.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		mergePaths(&c.Paths, overrides.Paths)
	}
	if overrides.Escrow != nil && len(overrides.Escrow.Recipients) > 0 {
		c.Escrow.Recipients = overrides.Escrow.Recipients
	}
}

// mergePaths copies non-empty override fields onto the base paths.
func mergePaths(base, override *PathsConfig) {
	if override.Root != "" {
		base.Root = override.Root
	}
	if override.State != "" {
		base.State = override.State
	}
	if override.Vault != "" {
		base.Vault = override.Vault
	}
	if override.Packages != "" {
		base.Packages = override.Packages
	}
	if override.PublicSocket != "" {
		base.PublicSocket = override.PublicSocket
	}
	if override.AdminSocket != "" {
		base.AdminSocket = override.AdminSocket
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DEPOT_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["DEPOT_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Vault = expandVars(c.Paths.Vault, vars)
	c.Paths.Packages = expandVars(c.Paths.Packages, vars)
	c.Paths.PublicSocket = expandVars(c.Paths.PublicSocket, vars)
	c.Paths.AdminSocket = expandVars(c.Paths.AdminSocket, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars win over the environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Account addresses are
// parsed here so a typo fails at startup rather than at first use.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.PublicSocket == "" {
		errs = append(errs, fmt.Errorf("paths.public_socket is required"))
	}
	if c.Paths.AdminSocket == "" {
		errs = append(errs, fmt.Errorf("paths.admin_socket is required"))
	}

	if c.Accounts.Controlled == "" {
		errs = append(errs, fmt.Errorf("accounts.controlled is required"))
	} else if _, err := account.ParseAddress(c.Accounts.Controlled); err != nil {
		errs = append(errs, fmt.Errorf("accounts.controlled: %w", err))
	}
	if c.Accounts.Deployer == "" {
		errs = append(errs, fmt.Errorf("accounts.deployer is required"))
	} else if _, err := account.ParseAddress(c.Accounts.Deployer); err != nil {
		errs = append(errs, fmt.Errorf("accounts.deployer: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ControlledAddress returns the parsed controlled account address.
// Call Validate first; parse errors here mean Validate was skipped.
func (c *Config) ControlledAddress() (account.Address, error) {
	return account.ParseAddress(c.Accounts.Controlled)
}

// DeployerAddress returns the parsed deployer address.
func (c *Config) DeployerAddress() (account.Address, error) {
	return account.ParseAddress(c.Accounts.Deployer)
}

// JournalPath returns the path of the registry journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.State, "registry.db")
}

// EnsurePaths creates the configured directories if they are missing.
func (c *Config) EnsurePaths() error {
	dirs := []string{
		c.Paths.Root,
		c.Paths.State,
		c.Paths.Vault,
		c.Paths.Packages,
		filepath.Dir(c.Paths.PublicSocket),
		filepath.Dir(c.Paths.AdminSocket),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
