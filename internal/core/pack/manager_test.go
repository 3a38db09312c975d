// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pack

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corelist/searchcore/internal/core/bot"
	"github.com/corelist/searchcore/internal/rowstore"
	"github.com/corelist/searchcore/internal/search/cache"
	"github.com/corelist/searchcore/internal/search/indexmgr"
	"github.com/corelist/searchcore/internal/search/reader"
	"github.com/corelist/searchcore/internal/search/votes"
)

// fakeRowSource is an in-memory rowSource, letting a Manager be driven by
// directly seeded rows instead of a live postgres pool.
type fakeRowSource struct {
	rows   map[int64]Row
	counts []rowstore.Counter
}

func (f *fakeRowSource) fetchRow(_ context.Context, id int64) (Row, bool, error) {
	row, ok := f.rows[id]
	return row, ok, nil
}

func (f *fakeRowSource) iterRows(_ context.Context) ([]Row, error) {
	out := make([]Row, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRowSource) iterVoteCounters(_ context.Context) ([]rowstore.Counter, error) {
	return f.counts, nil
}

// fakeBotLookup is an in-memory botLookup, standing in for the bot
// Manager's live cache during pack->bot hydration tests.
type fakeBotLookup struct {
	rows map[int64]bot.Row
}

func (f *fakeBotLookup) Lookup(id int64) (bot.Row, bool) {
	row, ok := f.rows[id]
	return row, ok
}

func (f *fakeBotLookup) remove(id int64) { delete(f.rows, id) }

// testManager bundles a pack Manager with the temp index directory backing
// it, so a test can close and reopen it to force a commit.
type testManager struct {
	*Manager
	dir  string
	fake *fakeRowSource
}

func newTestManager(t *testing.T, bots *fakeBotLookup) *testManager {
	t.Helper()

	dir := t.TempDir() + "/packs"
	im, err := Mapping()
	require.NoError(t, err)

	mgr, err := indexmgr.Open(context.Background(), dir, im, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	fake := &fakeRowSource{rows: map[int64]Row{}}

	m := &Manager{
		mgr:     mgr,
		cache:   cache.New[Row](),
		votes:   votes.NewState(),
		store:   fake,
		permits: reader.NewPermits(50),
		bots:    bots,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	t.Cleanup(func() { _ = m.Close() })
	return &testManager{Manager: m, dir: dir, fake: fake}
}

func (tm *testManager) seedAndCommit(t *testing.T, rows ...Row) {
	t.Helper()
	ctx := context.Background()

	for _, r := range rows {
		tm.fake.rows[r.ID] = r
	}
	require.NoError(t, tm.RefreshAll(ctx))
	require.NoError(t, tm.mgr.Close())

	im, err := Mapping()
	require.NoError(t, err)
	reopened, err := indexmgr.Open(ctx, tm.dir, im, tm.log)
	require.NoError(t, err)
	tm.mgr = reopened
}

func TestManager_SearchHydratesMembersDroppingMissing(t *testing.T) {
	bots := &fakeBotLookup{rows: map[int64]bot.Row{
		1: {ID: 1, Username: "Kira", IsPackable: true},
		2: {ID: 2, Username: "Kyra", Flags: 1, IsPackable: true},
	}}
	tm := newTestManager(t, bots)

	tm.seedAndCommit(t, Row{ID: 10, Name: "Music Starter", Tag: "music", BotIDs: []int64{1, 2, 999}})

	resp, err := tm.Search(context.Background(), SearchRequest{Query: "music"})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)

	hit := resp.Hits[0]
	require.Equal(t, 2, hit.NumBots)

	ids := make([]int64, len(hit.Bots))
	for i, b := range hit.Bots {
		ids[i] = b.ID
	}
	require.Equal(t, []int64{1, 2}, ids)
}

func TestManager_SearchHydrationReflectsLiveCacheBeforeCommit(t *testing.T) {
	bots := &fakeBotLookup{rows: map[int64]bot.Row{
		1: {ID: 1, Username: "Kira", IsPackable: true},
		2: {ID: 2, Username: "Kyra", IsPackable: true},
	}}
	tm := newTestManager(t, bots)

	tm.seedAndCommit(t, Row{ID: 10, Name: "Music Starter", Tag: "music", BotIDs: []int64{1, 2}})

	// Removing a bot from the live cache (without touching the pack index)
	// should be reflected in hydration immediately, even though the pack
	// index itself has not recommitted since (spec §8 S6: reader snapshot
	// visibility is independent of live-cache visibility).
	bots.remove(1)

	resp, err := tm.Search(context.Background(), SearchRequest{Query: "music"})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	require.Equal(t, 1, resp.Hits[0].NumBots)
	require.Equal(t, int64(2), resp.Hits[0].Bots[0].ID)
}

func TestManager_SearchCategoryFilter(t *testing.T) {
	bots := &fakeBotLookup{rows: map[int64]bot.Row{}}
	tm := newTestManager(t, bots)

	tm.seedAndCommit(t,
		Row{ID: 1, Name: "Music Pack", Tag: "music"},
		Row{ID: 2, Name: "Moderation Pack", Tag: "moderation"},
	)

	resp, err := tm.Search(context.Background(), SearchRequest{Filter: Filter{Category: "moderation"}})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	require.Equal(t, int64(2), resp.Hits[0].ID)
}
