// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/config"
	"github.com/depot-foundation/depot/lib/control"
	"github.com/depot-foundation/depot/lib/packstore"
	"github.com/depot-foundation/depot/lib/registrydb"
	"github.com/depot-foundation/depot/lib/secret"
	"github.com/depot-foundation/depot/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    string
		escrowKeyPath string
		devMode       bool
		showVersion   bool
	)

	flag.StringVar(&configPath, "config", "", "path to depot.yaml (overrides DEPOT_CONFIG)")
	flag.StringVar(&escrowKeyPath, "escrow-key", "", "path to the age identity that unseals the capability bundle (\"-\" for stdin)")
	flag.BoolVar(&devMode, "dev", false, "run with a synthetic capability instead of the vault (development only)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("depotd %s\n", version.Info())
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("preparing directories: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controlled, err := cfg.ControlledAddress()
	if err != nil {
		return err
	}
	deployer, err := cfg.DeployerAddress()
	if err != nil {
		return err
	}

	capability, err := acquireCapability(cfg, controlled, deployer, escrowKeyPath, devMode, logger)
	if err != nil {
		return err
	}

	clk := clock.Real()

	store, err := packstore.Open(cfg.Paths.Packages, logger)
	if err != nil {
		return err
	}

	controller, err := control.Init(control.Params{
		Capability: capability,
		Deployer:   deployer,
		Platform:   store,
		Clock:      clk,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("initializing controller: %w", err)
	}
	logger.Info("controller initialized",
		"controlled", controlled.Short(),
		"deployer", deployer.Short(),
	)

	journal, err := registrydb.Open(cfg.JournalPath(), clk, logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	daemon, err := newDaemon(controller, store, journal, clk, logger)
	if err != nil {
		return err
	}
	if err := daemon.replayRegistry(ctx); err != nil {
		return err
	}

	// The public socket answers queries from anyone on the machine;
	// the admin socket accepts registry writes and is protected by
	// its directory permissions.
	publicDone := daemon.servePublic(ctx, cfg.Paths.PublicSocket)
	adminDone := daemon.serveAdmin(ctx, cfg.Paths.AdminSocket)

	logger.Info("depotd running",
		"public_socket", cfg.Paths.PublicSocket,
		"admin_socket", cfg.Paths.AdminSocket,
		"packages", cfg.Paths.Packages,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownTimer := time.AfterFunc(30*time.Second, func() {
		logger.Error("shutdown drain timed out")
		os.Exit(1)
	})
	defer shutdownTimer.Stop()

	var errs []error
	if err := <-publicDone; err != nil {
		errs = append(errs, fmt.Errorf("public socket: %w", err))
	}
	if err := <-adminDone; err != nil {
		errs = append(errs, fmt.Errorf("admin socket: %w", err))
	}
	return errors.Join(errs...)
}

// acquireCapability produces the controlled account's capability. In
// dev mode it is minted in-process; otherwise the vault bundle is
// unsealed with the operator's age identity, which also burns the
// one-shot claim marker.
func acquireCapability(cfg *config.Config, controlled, deployer account.Address, escrowKeyPath string, devMode bool, logger *slog.Logger) (*authority.Capability, error) {
	if devMode {
		logger.Warn("dev mode: using a synthetic capability, not the vault")
		return authority.MintForTesting(controlled)
	}

	if escrowKeyPath == "" {
		return nil, fmt.Errorf("--escrow-key is required outside --dev mode")
	}
	privateKey, err := secret.ReadFromPath(escrowKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading escrow key: %w", err)
	}
	defer privateKey.Close()

	vault, err := authority.OpenVault(cfg.Paths.Vault)
	if err != nil {
		return nil, err
	}
	capability, err := vault.Retrieve(deployer, controlled, privateKey)
	if err != nil {
		return nil, fmt.Errorf("retrieving capability: %w", err)
	}
	logger.Info("capability claimed from vault", "controlled", controlled.Short())
	return capability, nil
}
