// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Depot
// components.
//
// Configuration is loaded from a single file specified by either the
// DEPOT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search, so a deployment's configuration is
// deterministic and auditable.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${DEPOT_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Accounts, Escrow
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends only on lib/account among Depot packages.
package config
