// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	bquery "github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/sync/errgroup"

	"github.com/corelist/searchcore/internal/core/bot"
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
	"github.com/corelist/searchcore/pkg/slice"
)

// ErrNotFound is returned by Upsert when the row-store has no row for the
// requested id.
var ErrNotFound = errors.New("pack: row not found")

// botLookup is the hydration-time dependency on the bot entity's live
// cache (spec §4.9) — narrowed to the one lookup pack Search needs, so
// tests can hydrate against an in-memory fake instead of a real bot index.
type botLookup interface {
	Lookup(id int64) (bot.Row, bool)
}

// Manager is the pack entity's index-entity glue (C9). Search additionally
// needs the bot Manager's live cache to hydrate pack members into bot hit
// shapes (spec §4.9) — packs never own bot data themselves.
type Manager struct {
	mgr     *indexmgr.Manager
	cache   *cache.Live[Row]
	votes   *votes.State
	store   rowSource
	permits *reader.Permits
	bots    botLookup
	log     *slog.Logger
}

// NewManager opens (or creates) the pack index under <dataPath>/packs and
// returns a ready-to-use Manager (spec §6: "<data_path>/packs"). bots
// supplies the live bot rows pack hydration reads (spec §4.9).
func NewManager(ctx context.Context, dataPath string, store *rowstore.Store, maxConcurrency int64, bots *bot.Manager, log *slog.Logger) (*Manager, error) {
	im, err := Mapping()
	if err != nil {
		return nil, fmt.Errorf("pack: build mapping: %w", err)
	}

	mgr, err := indexmgr.Open(ctx, filepath.Join(dataPath, "packs"), im, log)
	if err != nil {
		return nil, fmt.Errorf("pack: open index: %w", err)
	}

	return &Manager{
		mgr:     mgr,
		cache:   cache.New[Row](),
		votes:   votes.NewState(),
		store:   newPgRowSource(store),
		permits: reader.NewPermits(maxConcurrency),
		bots:    bots,
		log:     log,
	}, nil
}

// Close shuts down the writer actor and the underlying index.
func (m *Manager) Close() error { return m.mgr.Close() }

// Upsert fetches the authoritative row for id, updates the live cache, and
// sends a delete-then-add to the writer. A hidden row is removed from the
// index instead of re-added.
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
		return fmt.Errorf("pack: upsert %d: delete: %w", id, err)
	}
	if row.Hidden() {
		return nil
	}
	if err := m.mgr.Writer().AddDocument(ctx, idStr, document(row)); err != nil {
		return fmt.Errorf("pack: upsert %d: add: %w", id, err)
	}
	return nil
}

// Remove drops id from both the live cache and the index.
func (m *Manager) Remove(ctx context.Context, id int64) error {
	m.cache.Remove(id)
	if err := m.mgr.Writer().Delete(ctx, docID(id)); err != nil {
		return fmt.Errorf("pack: remove %d: %w", id, err)
	}
	return nil
}

// RefreshAll bulk-scans the row-store, replaces the live cache wholesale,
// and rebuilds the index from scratch.
func (m *Manager) RefreshAll(ctx context.Context) error {
	rows, err := m.store.iterRows(ctx)
	if err != nil {
		return fmt.Errorf("pack: refresh_all: %w", err)
	}

	m.cache.Refresh(rows)

	if err := m.mgr.Writer().ClearAll(ctx); err != nil {
		return fmt.Errorf("pack: refresh_all: clear: %w", err)
	}

	for _, row := range rows {
		if row.Hidden() {
			continue
		}
		if err := m.mgr.Writer().AddDocument(ctx, docID(row.ID), document(row)); err != nil {
			return fmt.Errorf("pack: refresh_all: add %d: %w", row.ID, err)
		}
	}

	m.log.Info("live_cache_refreshed", slog.Int("rows", len(rows)), slog.String("entity", "pack"))
	return nil
}

// ListIDs returns the live cache's current key set (spec §6: list_ids()).
func (m *Manager) ListIDs() []int64 { return m.cache.Keys() }

// RefreshVotes re-reads vote counters from the row-store and publishes a
// new snapshot (spec §4.8).
func (m *Manager) RefreshVotes(ctx context.Context) error {
	counters, err := m.store.iterVoteCounters(ctx)
	if err != nil {
		return fmt.Errorf("pack: refresh votes: %w", err)
	}

	next := make(map[int64]votes.Count, len(counters))
	for _, c := range counters {
		next[c.ID] = votes.Count{Current: uint64(c.Current), AllTime: uint64(c.AllTime)}
	}
	m.votes.ReplaceVotes(next)
	return nil
}

// RefreshTrending re-fetches the pack trending snapshot from src and
// publishes it (spec §4.8, §6).
func (m *Manager) RefreshTrending(ctx context.Context, src *trending.Source) error {
	snapshot, err := src.Packs(ctx)
	if err != nil {
		return fmt.Errorf("pack: refresh trending: %w", err)
	}
	m.votes.ReplaceTrending(snapshot)
	return nil
}

// Search implements the pack reader entry point (spec §4.5, §4.9).
func (m *Manager) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := validateSearchRequest(req.Query); err != nil {
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

	idx := m.mgr.Index()

	// num_bots sorting needs every candidate hydrated up front (it is not a
	// fast-field value reader can look up without walking live_rows), so
	// the candidate pool is over-fetched to MaxOffset+MaxLimit. Every
	// other sort mode, here and in the bot Manager, fetches exactly
	// offset+limit.
	want := offset + limit
	if req.Sort == SortNumBots {
		want = constants.MaxOffset + constants.MaxLimit
	}

	var candidates []ranking.Candidate
	var matchedIDs []int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = reader.CollectStaged(gctx, idx, stages, want, nil)
		return err
	})
	g.Go(func() error {
		var err error
		matchedIDs, err = reader.ScanAll(gctx, idx, distQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pack: search: %w", err)
	}

	distribution := m.distribution(matchedIDs)

	scoreByID := make(map[int64]float64, len(candidates))
	for _, c := range candidates {
		scoreByID[c.ID] = c.Score
	}

	hydrated := make(map[int64][]BotMember, len(candidates))
	numBots := make(map[int64]int, len(candidates))
	if req.Sort == SortNumBots {
		for _, c := range candidates {
			row, ok := m.cache.Get(c.ID)
			if !ok {
				continue
			}
			members := m.hydrateMembers(row)
			hydrated[c.ID] = members
			numBots[c.ID] = len(members)
		}
	}

	ranked := ranking.Rank(candidates, m.keyFunc(req.Sort, scoreByID, numBots), order)

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
		members, ok := hydrated[c.ID]
		if !ok {
			members = m.hydrateMembers(row)
		}
		hits = append(hits, m.hit(row, members))
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

func (m *Manager) keyFunc(sort SortBy, scoreByID map[int64]float64, numBots map[int64]int) ranking.KeyFunc {
	return func(id int64) float64 {
		switch sort {
		case SortLikes:
			return float64(m.votes.Votes(id).Current)
		case SortTrending:
			return m.votes.Trending(id)
		case SortNumBots:
			return float64(numBots[id])
		default:
			return scoreByID[id]
		}
	}
}

// hydrateMembers filters a pack's member bot ids through the bot live
// cache, dropping missing rows, non-packable bots and hidden bots (spec
// §4.9 exactly).
func (m *Manager) hydrateMembers(row Row) []BotMember {
	survivors := slice.Filter(row.BotIDs, func(id int64) bool {
		botRow, ok := m.bots.Lookup(id)
		return ok && botRow.IsPackable && !botRow.Hidden()
	})
	return slice.Map(survivors, func(id int64) BotMember {
		botRow, _ := m.bots.Lookup(id)
		return BotMember{
			ID:               botRow.ID,
			Username:         botRow.Username,
			Avatar:           botRow.Avatar,
			Discriminator:    botRow.Discriminator,
			Prefix:           botRow.Prefix,
			BriefDescription: botRow.BriefDescription,
			Tags:             botRow.Tags,
		}
	})
}

func (m *Manager) hit(row Row, members []BotMember) Hit {
	return Hit{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Tag:         row.Tag,
		Bots:        members,
		NumBots:     len(members),
		Votes:       m.votes.Votes(row.ID).Current,
		Trending:    m.votes.Trending(row.ID),
	}
}

// distribution computes tag_distribution from the live cache's single
// category tag over the matched id set, mirroring the bot Manager's
// approach of deriving facets from live_rows instead of bleve's facet API.
func (m *Manager) distribution(ids []int64) map[string]int {
	dist := make(map[string]int)
	for _, id := range ids {
		row, ok := m.cache.Get(id)
		if !ok {
			continue
		}
		if row.Tag == "" {
			continue
		}
		dist[row.Tag]++
	}
	return dist
}

// validateSearchRequest rejects a query string longer than spec §6 allows.
func validateSearchRequest(q string) error {
	if q == "" {
		return nil
	}
	v := &validate.Validator{}
	v.MaxLen("q", q, constants.MaxQueryLen)
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

// buildFilterQuery compiles a pack Filter into a single MUST TermQuery on
// the tag aggregation field (spec §4.7: "Pack category becomes a single
// MUST TermQuery on the tag aggregation field").
func buildFilterQuery(f Filter) bquery.Query {
	if f.Category == "" {
		return nil
	}
	tq := bquery.NewTermQuery(f.Category)
	tq.SetField(constants.FieldTagAggregation)
	return tq
}
