// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/depot-foundation/depot/internal/trusted"
	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/codec"
	"github.com/depot-foundation/depot/lib/control"
	"github.com/depot-foundation/depot/lib/packstore"
	"github.com/depot-foundation/depot/lib/registrydb"
	"github.com/depot-foundation/depot/lib/socketapi"
)

// Daemon holds the wired-together state behind both sockets. Queries
// go through the controller's public surface; registry writes go
// through the trusted surface and are journaled.
type Daemon struct {
	controller *control.Controller
	access     *trusted.Access
	store      *packstore.Store
	journal    *registrydb.Journal
	clock      clock.Clock
	logger     *slog.Logger
	startedAt  time.Time

	// registerMu keeps the in-memory registry and the journal in
	// lockstep: an insert and its journal record commit together from
	// the admin socket's point of view.
	registerMu sync.Mutex
}

func newDaemon(controller *control.Controller, store *packstore.Store, journal *registrydb.Journal, clk clock.Clock, logger *slog.Logger) (*Daemon, error) {
	access, err := trusted.Open(controller.Account())
	if err != nil {
		return nil, fmt.Errorf("opening trusted surface: %w", err)
	}
	return &Daemon{
		controller: controller,
		access:     access,
		store:      store,
		journal:    journal,
		clock:      clk,
		logger:     logger,
		startedAt:  clk.Now(),
	}, nil
}

// replayRegistry rebuilds the in-memory registry from the journal.
// Runs before the sockets open, so no concurrent writes exist yet. A
// duplicate during replay means the journal disagrees with itself and
// is fatal.
func (d *Daemon) replayRegistry(ctx context.Context) error {
	return d.journal.Replay(ctx, d.controller.Account(), func(name string, addr account.Address) error {
		return d.access.AddNamedAddress(name, addr)
	})
}

// servePublic starts the public socket server and returns its
// completion channel.
func (d *Daemon) servePublic(ctx context.Context, socketPath string) <-chan error {
	server := socketapi.NewServer(socketPath, d.logger)
	server.Handle("status", d.handleStatus)
	server.Handle("exists", d.handleExists)
	server.Handle("lookup", d.handleLookup)
	server.Handle("names", d.handleNames)
	server.Handle("publish", d.handlePublish)
	server.Handle("packages", d.handlePackages)

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()
	return done
}

// serveAdmin starts the admin socket server and returns its
// completion channel.
func (d *Daemon) serveAdmin(ctx context.Context, socketPath string) <-chan error {
	server := socketapi.NewServer(socketPath, d.logger)
	server.Handle("register", d.handleRegister)
	server.Handle("entries", d.handleEntries)

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()
	return done
}

// --- Public socket actions ---

type statusResponse struct {
	Controlled    string  `cbor:"controlled"`
	Deployer      string  `cbor:"deployer"`
	UptimeSeconds float64 `cbor:"uptime_seconds"`
}

func (d *Daemon) handleStatus(ctx context.Context, raw []byte) (any, error) {
	return statusResponse{
		Controlled:    d.controller.Account().String(),
		Deployer:      d.controller.Deployer().String(),
		UptimeSeconds: d.clock.Now().Sub(d.startedAt).Seconds(),
	}, nil
}

type nameRequest struct {
	Name string `cbor:"name"`
}

func (d *Daemon) handleExists(ctx context.Context, raw []byte) (any, error) {
	var request nameRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return map[string]any{"exists": d.controller.NamedAddressExists(request.Name)}, nil
}

func (d *Daemon) handleLookup(ctx context.Context, raw []byte) (any, error) {
	var request nameRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	addr, err := d.controller.GetNamedAddress(request.Name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"address": addr.String()}, nil
}

func (d *Daemon) handleNames(ctx context.Context, raw []byte) (any, error) {
	return map[string]any{"names": d.controller.Names()}, nil
}

type publishRequest struct {
	// Caller is the address claiming to publish. The controller
	// rejects anyone but the deployer.
	Caller   string   `cbor:"caller"`
	Metadata []byte   `cbor:"metadata"`
	Modules  [][]byte `cbor:"modules"`
}

func (d *Daemon) handlePublish(ctx context.Context, raw []byte) (any, error) {
	var request publishRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	caller, err := account.ParseAddress(request.Caller)
	if err != nil {
		return nil, fmt.Errorf("invalid caller address: %w", err)
	}
	if len(request.Modules) == 0 {
		return nil, fmt.Errorf("publish requires at least one module")
	}

	if err := d.controller.PublishPackage(ctx, caller, request.Metadata, request.Modules); err != nil {
		return nil, err
	}

	moduleDigests := make([]packstore.Digest, len(request.Modules))
	for i, module := range request.Modules {
		moduleDigests[i] = packstore.HashModule(module)
	}
	packageID := packstore.HashPackage(request.Metadata, moduleDigests)
	return map[string]any{"package": packageID.String()}, nil
}

func (d *Daemon) handlePackages(ctx context.Context, raw []byte) (any, error) {
	ids, err := d.store.List()
	if err != nil {
		return nil, err
	}
	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = id.String()
	}
	return map[string]any{"packages": encoded}, nil
}

// --- Admin socket actions ---

type registerRequest struct {
	Name    string `cbor:"name"`
	Address string `cbor:"address"`
}

func (d *Daemon) handleRegister(ctx context.Context, raw []byte) (any, error) {
	var request registerRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	addr, err := account.ParseAddress(request.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	d.registerMu.Lock()
	defer d.registerMu.Unlock()

	if err := d.access.AddNamedAddress(request.Name, addr); err != nil {
		return nil, err
	}
	if err := d.journal.Record(ctx, d.controller.Account(), request.Name, addr); err != nil {
		// The in-memory insert succeeded but the journal write did
		// not: the binding is live until restart but will not
		// survive one. Surface the journal error so the operator
		// retries.
		d.logger.Error("registration not journaled",
			"name", request.Name,
			"error", err,
		)
		return nil, fmt.Errorf("registered in memory but not journaled: %w", err)
	}

	d.logger.Info("name registered",
		"name", request.Name,
		"address", addr.Short(),
	)
	return nil, nil
}

type journalEntry struct {
	Name       string `cbor:"name"`
	Address    string `cbor:"address"`
	RecordedAt string `cbor:"recorded_at"`
}

func (d *Daemon) handleEntries(ctx context.Context, raw []byte) (any, error) {
	entries, err := d.journal.Entries(ctx, d.controller.Account())
	if err != nil {
		return nil, err
	}
	out := make([]journalEntry, len(entries))
	for i, entry := range entries {
		out[i] = journalEntry{
			Name:       entry.Name,
			Address:    entry.Address.String(),
			RecordedAt: entry.RecordedAt.UTC().Format(time.RFC3339),
		}
	}
	return map[string]any{"entries": out}, nil
}
