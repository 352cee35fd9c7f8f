// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package registrydb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/sqlitepool"
)

// ErrDuplicateEntry is returned by Record when the journal already
// holds an entry for the name under the same controlled account.
var ErrDuplicateEntry = errors.New("registrydb: name already recorded")

const schema = `
CREATE TABLE IF NOT EXISTS named_addresses (
	controlled  TEXT NOT NULL,
	name        TEXT NOT NULL,
	address     TEXT NOT NULL,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (controlled, name)
);
`

// Entry is one journaled registration.
type Entry struct {
	Name       string
	Address    account.Address
	RecordedAt time.Time
}

// Journal is the durable record of registry insertions. It is safe
// for concurrent use.
type Journal struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens (creating if necessary) the journal database at path.
// The parent directory must exist.
func Open(path string, clk clock.Clock, logger *slog.Logger) (*Journal, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: 4,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("registrydb: %w", err)
	}

	return &Journal{pool: pool, clock: clk, logger: logger}, nil
}

// Close closes the underlying pool.
func (j *Journal) Close() error {
	return j.pool.Close()
}

// Record appends one registration. The primary key makes re-recording
// a name under the same controlled account fail with
// ErrDuplicateEntry; callers record only after the in-memory registry
// has accepted the insert, so a duplicate here means the journal and
// the registry have diverged.
func (j *Journal) Record(ctx context.Context, controlled account.Address, name string, addr account.Address) error {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("registrydb: record: %w", err)
	}
	defer j.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO named_addresses (controlled, name, address, recorded_at)
		 VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				controlled.String(),
				name,
				addr.String(),
				j.clock.Now().UnixNano(),
			},
		})
	if err != nil {
		if code := sqlite.ErrCode(err); code == sqlite.ResultConstraintPrimaryKey || code == sqlite.ResultConstraintUnique {
			return fmt.Errorf("%w: %q", ErrDuplicateEntry, name)
		}
		return fmt.Errorf("registrydb: record %q: %w", name, err)
	}

	j.logger.Debug("registration journaled",
		"controlled", controlled.Short(),
		"name", name,
		"address", addr.Short(),
	)
	return nil
}

// Entries returns every journaled registration for the controlled
// account in insertion order.
func (j *Journal) Entries(ctx context.Context, controlled account.Address) ([]Entry, error) {
	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("registrydb: entries: %w", err)
	}
	defer j.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn,
		`SELECT name, address, recorded_at FROM named_addresses
		 WHERE controlled = ? ORDER BY rowid`,
		&sqlitex.ExecOptions{
			Args: []any{controlled.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				addr, err := account.ParseAddress(stmt.ColumnText(1))
				if err != nil {
					return fmt.Errorf("registrydb: corrupt address for %q: %w", stmt.ColumnText(0), err)
				}
				entries = append(entries, Entry{
					Name:       stmt.ColumnText(0),
					Address:    addr,
					RecordedAt: time.Unix(0, stmt.ColumnInt64(2)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Replay calls fn for every journaled registration of the controlled
// account, in insertion order. Used at daemon startup to rebuild the
// in-memory registry; fn errors abort the replay.
func (j *Journal) Replay(ctx context.Context, controlled account.Address, fn func(name string, addr account.Address) error) error {
	entries, err := j.Entries(ctx, controlled)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fn(entry.Name, entry.Address); err != nil {
			return fmt.Errorf("registrydb: replaying %q: %w", entry.Name, err)
		}
	}
	if len(entries) > 0 {
		j.logger.Info("registry journal replayed",
			"controlled", controlled.Short(),
			"entries", len(entries),
		)
	}
	return nil
}
