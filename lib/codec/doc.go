// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Depot's standard CBOR encoding configuration.
//
// CBOR is Depot's wire and state format: the daemon's socket protocol,
// package manifests in the package store, and the registry journal all
// encode through this package. Sharing one configuration means every
// Depot package encodes identically without duplicating setup.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes, which matters for
// manifest signing — a signature over a manifest must verify against a
// re-encoding of the same manifest.
//
// For buffer-oriented operations (manifests, journal rows):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
