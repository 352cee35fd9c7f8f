// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/depot-foundation/depot/lib/config"
	"github.com/depot-foundation/depot/lib/socketapi"
)

// defaultPublicSocket and defaultAdminSocket are the fallbacks when
// neither a --socket flag nor a DEPOT_CONFIG file supplies a path.
const (
	defaultPublicSocket = "/run/depot/depot.sock"
	defaultAdminSocket  = "/run/depot/admin.sock"
)

// publicClient resolves the public socket path and returns a client
// for it. Resolution order: the explicit flag value, the config file
// named by DEPOT_CONFIG, then the compiled-in default.
func publicClient(socketFlag string) *socketapi.Client {
	return socketapi.NewClient(resolveSocket(socketFlag, false))
}

// adminClient is publicClient for the admin socket.
func adminClient(socketFlag string) *socketapi.Client {
	return socketapi.NewClient(resolveSocket(socketFlag, true))
}

func resolveSocket(socketFlag string, admin bool) string {
	if socketFlag != "" {
		return socketFlag
	}
	if os.Getenv("DEPOT_CONFIG") != "" {
		if cfg, err := config.Load(); err == nil {
			if admin {
				return cfg.Paths.AdminSocket
			}
			return cfg.Paths.PublicSocket
		}
	}
	if admin {
		return defaultAdminSocket
	}
	return defaultPublicSocket
}
