// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Depot is the command-line client for the depot daemon. It speaks
// the CBOR socket protocol to the daemon's public and admin sockets
// and handles the offline vault operations (provision, keygen) that
// run before a daemon exists.
//
// Socket paths are resolved per command: an explicit --socket flag
// wins, then the config file named by DEPOT_CONFIG, then the
// compiled-in defaults under /run/depot.
package main
