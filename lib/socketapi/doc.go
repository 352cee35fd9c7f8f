// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package socketapi implements the CBOR request-response protocol
// spoken on the depot daemon's Unix sockets.
//
// Every request is a single CBOR map carrying an "action" field plus
// handler-specific parameters; every response is a [Response]
// envelope. A connection carries exactly one request-response cycle
// and then closes, which keeps the protocol stateless and makes the
// client trivially retryable.
//
// The daemon runs two servers over this package: a public socket for
// read-only registry queries and deployer publishes, and an admin
// socket, reachable only by the daemon operator, for registry writes.
package socketapi
