// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the Depot-standard SQLite connection
// pool.
//
// Depot components that need durable local storage (the registry
// journal, operational indexes) open their databases through this
// package rather than calling zombiezen.com/go/sqlite directly, so
// that every database in a deployment runs with the same pragmas and
// the same pool discipline. Callers [Pool.Take] a connection, do
// their work, and [Pool.Put] it back; connections are not safe for
// concurrent use, so each goroutine holds its own for the duration.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: readers and the single writer never block each
//     other.
//   - synchronous=NORMAL: commits survive a process crash. An OS crash
//     or power loss can lose the tail of the WAL, which is acceptable
//     because the registry journal is an append-only record that the
//     daemon re-validates on replay.
//   - busy_timeout=5000: wait up to five seconds for the write lock
//     instead of failing with SQLITE_BUSY.
//   - foreign_keys=OFF: Depot schemas enforce their own integrity.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB of memory-mapped reads.
//   - temp_store=MEMORY: temp tables and indexes stay off disk.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "/var/depot/registry.db",
//	    PoolSize: 4,
//	    Logger:   logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// # Design
//
// The package is deliberately thin. It applies the pragmas, sizes the
// pool, and hands back zombiezen's own types; callers write SQL, run
// it with sqlitex.Execute, and scope writes with
// sqlitex.ImmediateTransaction. There is no query builder and no ORM
// layer. The shared value is one dependency, one pragma set, one pool
// shape.
package sqlitepool
