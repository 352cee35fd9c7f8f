// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/depot-foundation/depot/internal/permstore"
	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/clock"
)

// ErrNotAuthorized is returned by PublishPackage when the caller is
// not the configured deployer.
var ErrNotAuthorized = errors.New("control: caller is not the deployer")

// Registry and lifecycle errors surface from the store unchanged.
// Re-exported so external callers can errors.Is against this package
// without reaching into internal/.
var (
	ErrDuplicateName      = permstore.ErrDuplicateName
	ErrNameNotFound       = permstore.ErrNameNotFound
	ErrAlreadyInitialized = permstore.ErrAlreadyInitialized
)

// Platform is the package-execution platform: the external collaborator
// that installs published code under the controlled account's
// authority. Metadata and modules are opaque to the controller; its
// errors propagate to the caller of PublishPackage unchanged.
type Platform interface {
	Publish(ctx context.Context, handle *authority.Handle, metadata []byte, modules [][]byte) error
}

// Controller is the access-controlled front of the permission store.
type Controller struct {
	store    *permstore.Store
	deployer account.Address
	platform Platform
	logger   *slog.Logger
}

// Params configures Init.
type Params struct {
	// Capability is the delegated authority produced by identity
	// provisioning. Owned by the store after Init.
	Capability *authority.Capability

	// Deployer is the one principal allowed to call PublishPackage.
	Deployer account.Address

	// Platform receives publish calls. Required.
	Platform Platform

	// Clock drives authority handle expiry. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives operational messages. Defaults to discard.
	Logger *slog.Logger
}

// Init creates the permission store for the capability's controlled
// account and returns the controller over it. Called once during first
// deployment; a second Init for the same account fails with
// ErrAlreadyInitialized.
func Init(params Params) (*Controller, error) {
	if params.Platform == nil {
		return nil, fmt.Errorf("control: Platform is required")
	}
	if params.Deployer.IsZero() {
		return nil, fmt.Errorf("control: Deployer is required")
	}

	clk := params.Clock
	if clk == nil {
		clk = clock.Real()
	}

	store, err := permstore.Create(params.Capability, clk)
	if err != nil {
		return nil, err
	}
	return newController(store, params.Deployer, params.Platform, params.Logger), nil
}

// InitForTesting builds a controller over a store with a synthetic
// capability, creating the store if the location is empty. Idempotent
// at the store level, matching permstore.InitForTesting.
func InitForTesting(controlled, deployer account.Address, platform Platform) (*Controller, error) {
	if platform == nil {
		return nil, fmt.Errorf("control: Platform is required")
	}
	store, err := permstore.InitForTesting(controlled)
	if err != nil {
		return nil, err
	}
	return newController(store, deployer, platform, nil), nil
}

func newController(store *permstore.Store, deployer account.Address, platform Platform, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		store:    store,
		deployer: deployer,
		platform: platform,
		logger:   logger,
	}
}

// Account returns the controlled account.
func (c *Controller) Account() account.Address {
	return c.store.Account()
}

// Deployer returns the configured deployer identity.
func (c *Controller) Deployer() account.Address {
	return c.deployer
}

// NamedAddressExists reports whether a name is registered. No
// authorization check.
func (c *Controller) NamedAddressExists(name string) bool {
	return c.store.Contains(name)
}

// GetNamedAddress returns the address registered under name, or
// ErrNameNotFound. No authorization check.
func (c *Controller) GetNamedAddress(name string) (account.Address, error) {
	return c.store.Lookup(name)
}

// Names returns all registered names, sorted.
func (c *Controller) Names() []string {
	return c.store.Names()
}

// PublishPackage publishes code under the controlled account. The
// caller must be the deployer; the check runs on every call and a
// mismatch fails with ErrNotAuthorized before any authority is
// materialized. On success the metadata and modules are forwarded to
// the platform unchanged, and the platform's result — success or
// error — is the caller's result. Publishing never touches the
// registry or the capability.
func (c *Controller) PublishPackage(ctx context.Context, caller account.Address, metadata []byte, modules [][]byte) error {
	if caller != c.deployer {
		c.logger.Warn("publish rejected",
			"caller", caller.Short(),
			"account", c.store.Account().Short(),
		)
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller.Short())
	}

	handle, err := c.store.MaterializeAuthority()
	if err != nil {
		return fmt.Errorf("control: materializing authority: %w", err)
	}

	if err := c.platform.Publish(ctx, handle, metadata, modules); err != nil {
		return err
	}

	c.logger.Info("package published",
		"account", c.store.Account().Short(),
		"modules", len(modules),
		"metadata_bytes", len(metadata),
	)
	return nil
}
