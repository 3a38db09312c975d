// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rowstore implements the pgx-backed side of the row-store contract
spec §6 describes only by interface: fetch_by_id, iter_rows, and the
counter query stream feeding votes. The schema and SQL for a given entity
belong to that entity's package (internal/core/bot, internal/core/pack);
this package only handles the generic query-and-scan shape, the same way
the reference service's per-entity store_postgres.go files each drive
pgxpool directly rather than going through a shared ORM layer.
*/
package rowstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corelist/searchcore/internal/platform/dberr"
)

// Store wraps the shared connection pool every entity's row-store queries
// run against.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Counter is one row of the vote/trend counter stream (spec §6: "query(counter_table)
// -> stream<(id, current, all_time)>"). Counters arrive signed and are
// reinterpreted as unsigned by the caller (the entity Managers' RefreshVotes,
// into votes.Count).
type Counter struct {
	ID      int64 `db:"id"`
	Current int64 `db:"current"`
	AllTime int64 `db:"all_time"`
}

// FetchByID runs query with id as its sole parameter and scans at most one
// row into T by column name. It reports (nil, false, nil) — not an error —
// when no row matches, matching spec's `fetch_by_id(table, id) -> Option<Row>`.
func FetchByID[T any](ctx context.Context, s *Store, query string, id int64) (*T, bool, error) {
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, false, dberr.Wrap(err, "rowstore: fetch_by_id")
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dberr.Wrap(err, "rowstore: fetch_by_id: scan")
	}
	return row, true, nil
}

// IterRows runs query and scans every row into T by column name, matching
// spec's `iter_rows(table) -> stream<Row>` — bulk refresh for an entity
// that fits comfortably in memory, which a listing directory's row count
// does.
func IterRows[T any](ctx context.Context, s *Store, query string, args ...any) ([]T, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "rowstore: iter_rows")
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, dberr.Wrap(err, "rowstore: iter_rows: scan")
	}
	return out, nil
}

// IterCounters runs query and scans every row into a Counter, matching
// spec's `query(counter_table) -> stream<(id, current, all_time)>`.
func IterCounters(ctx context.Context, s *Store, query string, args ...any) ([]Counter, error) {
	return IterRows[Counter](ctx, s, query, args...)
}
