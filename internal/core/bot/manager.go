// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	bquery "github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/sync/errgroup"

	"github.com/corelist/searchcore/internal/platform/constants"
	"github.com/corelist/searchcore/internal/platform/validate"
	"github.com/corelist/searchcore/internal/rowstore"
	"github.com/corelist/searchcore/internal/search/cache"
	"github.com/corelist/searchcore/internal/search/indexmgr"
	"github.com/corelist/searchcore/internal/search/query"
	"github.com/corelist/searchcore/internal/search/ranking"
	"github.com/corelist/searchcore/internal/search/reader"
	"github.com/corelist/searchcore/internal/search/votes"
	"github.com/corelist/searchcore/internal/trending"
)

// ErrNotFound is returned by Upsert when the row-store has no row for the
// requested id (spec §7: "upsert target missing in row-store").
var ErrNotFound = errors.New("bot: row not found")

// Manager is the bot entity's index-entity glue (C9): it owns the on-disk
// index, the live cache, the vote/trend state, and the row-store handle
// upserts and refreshes read from.
type Manager struct {
	mgr     *indexmgr.Manager
	cache   *cache.Live[Row]
	votes   *votes.State
	store   rowSource
	permits *reader.Permits
	log     *slog.Logger
}

// NewManager opens (or creates) the bot index under <dataPath>/bots and
// returns a ready-to-use Manager (spec §6: "<data_path>/bots").
func NewManager(ctx context.Context, dataPath string, store *rowstore.Store, maxConcurrency int64, log *slog.Logger) (*Manager, error) {
	im, err := Mapping()
	if err != nil {
		return nil, fmt.Errorf("bot: build mapping: %w", err)
	}

	mgr, err := indexmgr.Open(ctx, filepath.Join(dataPath, "bots"), im, log)
	if err != nil {
		return nil, fmt.Errorf("bot: open index: %w", err)
	}

	return &Manager{
		mgr:     mgr,
		cache:   cache.New[Row](),
		votes:   votes.NewState(),
		store:   newPgRowSource(store),
		permits: reader.NewPermits(maxConcurrency),
		log:     log,
	}, nil
}

// Close shuts down the writer actor and the underlying index.
func (m *Manager) Close() error { return m.mgr.Close() }

// Upsert fetches the authoritative row for id, updates the live cache, and
// sends a delete-then-add to the writer (spec §4.3: "Upserts therefore
// appear to the index as delete-then-add"). A hidden row is removed from
// the index instead of re-added.
func (m *Manager) Upsert(ctx context.Context, id int64) error {
	row, found, err := m.store.fetchRow(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	m.cache.Upsert(row)

	idStr := docID(id)
	if err := m.mgr.Writer().Delete(ctx, idStr); err != nil {
		return fmt.Errorf("bot: upsert %d: delete: %w", id, err)
	}
	if row.Hidden() {
		return nil
	}
	if err := m.mgr.Writer().AddDocument(ctx, idStr, document(row)); err != nil {
		return fmt.Errorf("bot: upsert %d: add: %w", id, err)
	}
	return nil
}

// Remove drops id from both the live cache and the index.
func (m *Manager) Remove(ctx context.Context, id int64) error {
	m.cache.Remove(id)
	if err := m.mgr.Writer().Delete(ctx, docID(id)); err != nil {
		return fmt.Errorf("bot: remove %d: %w", id, err)
	}
	return nil
}

// RefreshAll bulk-scans the row-store, replaces the live cache wholesale,
// and rebuilds the index from scratch (spec §3 invariant 2, §4.3:
// "ClearAll deletes every document and is used by refresh_all").
func (m *Manager) RefreshAll(ctx context.Context) error {
	rows, err := m.store.iterRows(ctx)
	if err != nil {
		return fmt.Errorf("bot: refresh_all: %w", err)
	}

	m.cache.Refresh(rows)

	if err := m.mgr.Writer().ClearAll(ctx); err != nil {
		return fmt.Errorf("bot: refresh_all: clear: %w", err)
	}

	for _, row := range rows {
		if row.Hidden() {
			continue
		}
		if err := m.mgr.Writer().AddDocument(ctx, docID(row.ID), document(row)); err != nil {
			return fmt.Errorf("bot: refresh_all: add %d: %w", row.ID, err)
		}
	}

	m.log.Info("live_cache_refreshed", slog.Int("rows", len(rows)), slog.String("entity", "bot"))
	return nil
}

// ListIDs returns the live cache's current key set (spec §6: list_ids()).
func (m *Manager) ListIDs() []int64 { return m.cache.Keys() }

// RefreshVotes re-reads vote counters from the row-store and publishes a
// new snapshot (spec §4.8).
func (m *Manager) RefreshVotes(ctx context.Context) error {
	counters, err := m.store.iterVoteCounters(ctx)
	if err != nil {
		return fmt.Errorf("bot: refresh votes: %w", err)
	}

	next := make(map[int64]votes.Count, len(counters))
	for _, c := range counters {
		next[c.ID] = votes.Count{Current: uint64(c.Current), AllTime: uint64(c.AllTime)}
	}
	m.votes.ReplaceVotes(next)
	return nil
}

// RefreshTrending re-fetches the bot trending snapshot from src and
// publishes it (spec §4.8, §6).
func (m *Manager) RefreshTrending(ctx context.Context, src *trending.Source) error {
	snapshot, err := src.Bots(ctx)
	if err != nil {
		return fmt.Errorf("bot: refresh trending: %w", err)
	}
	m.votes.ReplaceTrending(snapshot)
	return nil
}

// Search implements the bot reader entry point (spec §4.5).
func (m *Manager) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := validateSearchRequest(req.Query, req.Filter.Tags); err != nil {
		return nil, err
	}

	release, err := m.permits.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	limit := clamp(req.Limit, constants.DefaultLimit, 1, constants.MaxLimit)
	offset := clamp(req.Offset, 0, 0, constants.MaxOffset)
	order := ranking.Desc
	if req.Order == "asc" {
		order = ranking.Asc
	}

	stages := query.BuildStages(req.Query, Fields)
	distQuery := query.BuildDistributionQuery(req.Query, Fields)

	if filterQuery := buildFilterQuery(req.Filter); filterQuery != nil {
		for i, s := range stages {
			stages[i] = bquery.NewConjunctionQuery([]bquery.Query{s, filterQuery})
		}
		distQuery = bquery.NewConjunctionQuery([]bquery.Query{distQuery, filterQuery})
	}

	var accept reader.Accept
	if req.Filter.Features != nil {
		mask := *req.Filter.Features
		accept = func(id int64) bool {
			row, ok := m.cache.Get(id)
			if !ok {
				return false
			}
			return row.Features&mask != 0
		}
	}

	idx := m.mgr.Index()

	var candidates []ranking.Candidate
	var matchedIDs []int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = reader.CollectStaged(gctx, idx, stages, offset+limit, accept)
		return err
	})
	g.Go(func() error {
		var err error
		matchedIDs, err = reader.ScanAll(gctx, idx, distQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bot: search: %w", err)
	}

	if accept != nil {
		matchedIDs = filterIDs(matchedIDs, accept)
	}

	distribution := m.distribution(matchedIDs)

	scoreByID := make(map[int64]float64, len(candidates))
	for _, c := range candidates {
		scoreByID[c.ID] = c.Score
	}
	ranked := ranking.Rank(candidates, m.keyFunc(req.Sort, scoreByID), order)

	hits := make([]Hit, 0, limit)
	for i, c := range ranked {
		if i < offset {
			continue
		}
		if len(hits) >= limit {
			break
		}
		row, ok := m.cache.Get(c.ID)
		if !ok {
			continue
		}
		hits = append(hits, m.hydrate(row))
	}

	queryText := req.Query
	if queryText == "" {
		queryText = "*"
	}

	return &SearchResponse{
		Hits:            hits,
		Limit:           limit,
		Offset:          offset,
		Query:           queryText,
		NbHits:          len(matchedIDs),
		TagDistribution: distribution,
	}, nil
}

func (m *Manager) keyFunc(sort SortBy, scoreByID map[int64]float64) ranking.KeyFunc {
	return func(id int64) float64 {
		switch sort {
		case SortVotes:
			return float64(m.votes.Votes(id).Current)
		case SortTrending:
			return m.votes.Trending(id)
		case SortPopularity:
			row, _ := m.cache.Get(id)
			return float64(row.GuildCount)
		case SortPremium:
			row, _ := m.cache.Get(id)
			if row.Premium() {
				return 1
			}
			return 0
		default:
			return scoreByID[id]
		}
	}
}

func (m *Manager) hydrate(row Row) Hit {
	v := m.votes.Votes(row.ID)
	return Hit{
		ID:               row.ID,
		Username:         row.Username,
		Avatar:           row.Avatar,
		Discriminator:    row.Discriminator,
		Prefix:           row.Prefix,
		BriefDescription: row.BriefDescription,
		Tags:             row.Tags,
		Features:         row.Features,
		Premium:          row.Premium(),
		IsPackable:       row.IsPackable,
		GuildCount:       row.GuildCount,
		Votes:            v.Current,
		Trending:         m.votes.Trending(row.ID),
	}
}

// distribution computes tag_distribution from the live cache's Tags field
// over the matched id set, which holds the same values as the tags_agg
// aggregation field the filter queries ran against — this keeps the
// filtered and unfiltered code paths identical by construction, rather
// than depending on bleve's facet API returning a value-predicate-aware
// count (spec §3 invariant 4, §4.7's facet-consistency guarantee).
func (m *Manager) distribution(ids []int64) map[string]int {
	dist := make(map[string]int)
	for _, id := range ids {
		row, ok := m.cache.Get(id)
		if !ok {
			continue
		}
		for _, tag := range row.Tags {
			dist[tag]++
		}
	}
	return dist
}

// Lookup returns the bot row for id if it is live (spec §4.9: pack->bot
// hydration reads live_rows directly).
func (m *Manager) Lookup(id int64) (Row, bool) { return m.cache.Get(id) }

func filterIDs(ids []int64, accept reader.Accept) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if accept(id) {
			out = append(out, id)
		}
	}
	return out
}

// validateSearchRequest rejects a query string longer than spec §6 allows or
// a filter carrying more than the ten-tag cap (spec §4.7), before the
// request ever reaches the reader.
func validateSearchRequest(q string, tags []string) error {
	v := &validate.Validator{}
	if q != "" {
		v.MaxLen("q", q, constants.MaxQueryLen)
	}
	v.Custom("tags", len(tags) > constants.MaxFilterTags,
		fmt.Sprintf("at most %d tags allowed", constants.MaxFilterTags))
	return v.Err()
}

func clamp(value, fallback, min, max int) int {
	if value <= 0 {
		value = fallback
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value
}

// buildFilterQuery compiles a bot Filter into the MUST/SHOULD query
// structure of spec §4.7: tags are OR'd term queries against the
// aggregation field, premium (if set) is a MUST numeric-equality clause,
// and the whole thing is ANDed onto the base query. The features bitmask
// is deliberately absent here — bleve's numeric range query can express
// equality but not an arbitrary bitwise-AND predicate, so it is applied as
// a post-query Accept predicate instead (spec §4.6's "value filter").
func buildFilterQuery(f Filter) bquery.Query {
	var clauses []bquery.Query

	if tags := dedupTags(f.Tags); len(tags) > 0 {
		tagQueries := make([]bquery.Query, 0, len(tags))
		for _, t := range tags {
			tq := bquery.NewTermQuery(t)
			tq.SetField(constants.FieldTagsAggregation)
			tagQueries = append(tagQueries, tq)
		}
		clauses = append(clauses, bquery.NewDisjunctionQuery(tagQueries))
	}

	if f.Premium != nil {
		want := 0.0
		if *f.Premium {
			want = 1.0
		}
		inclusive := true
		nq := bquery.NewNumericRangeInclusiveQuery(&want, &want, &inclusive, &inclusive)
		nq.SetField(constants.FieldPremium)
		clauses = append(clauses, nq)
	}

	if len(clauses) == 0 {
		return nil
	}
	return bquery.NewConjunctionQuery(clauses)
}

func dedupTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) >= constants.MaxFilterTags {
			break
		}
	}
	return out
}
