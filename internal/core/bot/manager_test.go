// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

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

// testManager bundles a Manager with the temp index directory backing it,
// so a test can close and reopen it to force a commit (the writer actor
// only guarantees visibility at its 15-second auto-commit boundary, which
// tests cannot wait on).
type testManager struct {
	*Manager
	dir  string
	fake *fakeRowSource
}

func newTestManager(t *testing.T) *testManager {
	t.Helper()

	dir := t.TempDir() + "/bots"
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
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	t.Cleanup(func() { _ = m.Close() })
	return &testManager{Manager: m, dir: dir, fake: fake}
}

// seedAndCommit refreshes the live cache and index from rows, then forces
// the pending batch to become visible by closing and reopening the index
// handle over the same directory.
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

func TestManager_SearchRelevanceAndDistribution(t *testing.T) {
	tm := newTestManager(t)

	tm.seedAndCommit(t,
		Row{ID: 1, Username: "Kira", BriefDescription: "music bot", Tags: []string{"music", "fun"}, Features: 0b0001, IsPackable: true, GuildCount: 1000},
		Row{ID: 2, Username: "Kyra", Tags: []string{"music"}, Flags: 1, Features: 0b0011, GuildCount: 200},
	)

	resp, err := tm.Search(context.Background(), SearchRequest{Query: "kir", Sort: SortRelevance})
	require.NoError(t, err)

	require.Equal(t, 2, resp.NbHits)
	require.Equal(t, map[string]int{"music": 2, "fun": 1}, resp.TagDistribution)
	require.ElementsMatch(t, []int64{1, 2}, hitIDs(resp.Hits))
}

func TestManager_SearchPopularitySortReversesWithOrder(t *testing.T) {
	tm := newTestManager(t)

	tm.seedAndCommit(t,
		Row{ID: 1, Username: "Alpha", GuildCount: 100},
		Row{ID: 2, Username: "Beta", GuildCount: 500},
	)

	desc, err := tm.Search(context.Background(), SearchRequest{Sort: SortPopularity, Order: "desc"})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, hitIDs(desc.Hits))

	asc, err := tm.Search(context.Background(), SearchRequest{Sort: SortPopularity, Order: "asc"})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, hitIDs(asc.Hits))
}

func TestManager_SearchPremiumFilter(t *testing.T) {
	tm := newTestManager(t)

	tm.seedAndCommit(t,
		Row{ID: 1, Username: "Free", Flags: 0},
		Row{ID: 2, Username: "Paid", Flags: 1},
	)

	premium := true
	resp, err := tm.Search(context.Background(), SearchRequest{Filter: Filter{Premium: &premium}})
	require.NoError(t, err)
	require.Equal(t, []int64{2}, hitIDs(resp.Hits))
}

func TestManager_SearchFeaturesBitmaskFilter(t *testing.T) {
	tm := newTestManager(t)

	tm.seedAndCommit(t,
		Row{ID: 1, Username: "Alpha", Features: 0b0001},
		Row{ID: 2, Username: "Beta", Features: 0b0010},
		Row{ID: 3, Username: "Gamma", Features: 0b0011},
	)

	mask := uint64(0b0010)
	resp, err := tm.Search(context.Background(), SearchRequest{Filter: Filter{Features: &mask}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{2, 3}, hitIDs(resp.Hits))
}

func hitIDs(hits []Hit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}
