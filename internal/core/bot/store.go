// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bot

import (
	"context"
	"fmt"

	"github.com/corelist/searchcore/internal/platform/constants"
	"github.com/corelist/searchcore/internal/rowstore"
)

var (
	fetchByIDQuery = fmt.Sprintf(`
		SELECT id, username, avatar, discriminator, prefix, brief_description,
		       is_hidden, is_forced_into_hiding, is_packable, flags, features,
		       tags, owner_id, co_owner_ids, guild_count, created_on
		FROM %s.bots WHERE id = $1`, constants.SchemaCore)

	iterRowsQuery = fmt.Sprintf(`
		SELECT id, username, avatar, discriminator, prefix, brief_description,
		       is_hidden, is_forced_into_hiding, is_packable, flags, features,
		       tags, owner_id, co_owner_ids, guild_count, created_on
		FROM %s.bots`, constants.SchemaCore)

	votesQuery = fmt.Sprintf(`SELECT id, current, all_time FROM %s.bot_votes`, constants.SchemaCore)
)

// rowSource is the row-store dependency Manager drives — narrowed to the
// three operations it needs so tests can seed a Manager with an in-memory
// fake instead of a live postgres pool.
type rowSource interface {
	fetchRow(ctx context.Context, id int64) (Row, bool, error)
	iterRows(ctx context.Context) ([]Row, error)
	iterVoteCounters(ctx context.Context) ([]rowstore.Counter, error)
}

// pgRowSource is the production rowSource, backed by a real row-store pool.
type pgRowSource struct{ store *rowstore.Store }

func newPgRowSource(store *rowstore.Store) rowSource { return pgRowSource{store: store} }

// fetchRow implements fetch_by_id for the bot table (spec §6).
func (s pgRowSource) fetchRow(ctx context.Context, id int64) (Row, bool, error) {
	row, ok, err := rowstore.FetchByID[Row](ctx, s.store, fetchByIDQuery, id)
	if err != nil {
		return Row{}, false, fmt.Errorf("bot: fetch %d: %w", id, err)
	}
	if !ok {
		return Row{}, false, nil
	}
	return *row, true, nil
}

// iterRows implements iter_rows for the bot table — the bulk scan behind
// refresh_all (spec §6).
func (s pgRowSource) iterRows(ctx context.Context) ([]Row, error) {
	rows, err := rowstore.IterRows[Row](ctx, s.store, iterRowsQuery)
	if err != nil {
		return nil, fmt.Errorf("bot: iter_rows: %w", err)
	}
	return rows, nil
}

// iterVoteCounters implements the counter query stream for bot votes
// (spec §6).
func (s pgRowSource) iterVoteCounters(ctx context.Context) ([]rowstore.Counter, error) {
	counters, err := rowstore.IterCounters(ctx, s.store, votesQuery)
	if err != nil {
		return nil, fmt.Errorf("bot: iter vote counters: %w", err)
	}
	return counters, nil
}
