// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reader implements the entity-agnostic mechanics of the reader (spec
§4.5): a concurrency permit shared per entity kind, staged-query execution
that accumulates an ordered, deduplicated candidate pool, and a full-scan
pass used to compute nb_hits and the term distribution over the same
filtered query.

The entity-specific pieces — which fields to search, how to build a filter
query, what a sort mode's key function looks up — live in internal/core/bot
and internal/core/pack; this package only knows about bleve queries and
(id, score) candidates.
*/
package reader

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/sync/semaphore"

	"github.com/corelist/searchcore/internal/search/ranking"
)

// scanPageSize is how many hits one page of a full-scan pass fetches.
const scanPageSize = 1000

// MaxScanDocs bounds how many documents a full-scan pass (used for nb_hits
// and the tag distribution) will walk before giving up. The row-store this
// core serves is a listing directory, not a web-scale corpus, so a document
// count in the tens of thousands is more than the domain ever needs.
const MaxScanDocs = 50000

// Permits is the `max_concurrency` semaphore (spec §5): readers for one
// entity kind share a single Permits, acquired for the duration of a
// search and released on every exit path, including cancellation before
// the search begins.
type Permits struct {
	sem *semaphore.Weighted
}

// NewPermits returns a Permits bounding concurrent searches to max.
func NewPermits(max int64) *Permits {
	return &Permits{sem: semaphore.NewWeighted(max)}
}

// Acquire blocks for a permit or until ctx is cancelled. The returned
// release func must be called exactly once.
func (p *Permits) Acquire(ctx context.Context) (release func(), err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("reader: acquire permit: %w", err)
	}
	return func() { p.sem.Release(1) }, nil
}

// Accept reports whether a candidate id should survive the staged search —
// entity packages use it to apply a fast-field-equivalent value filter
// (the bot features bitmask) without folding it into the bleve query
// itself. A nil Accept always passes.
type Accept func(id int64) bool

// CollectStaged runs stages in order, accumulating distinct (id, score)
// candidates — in first-stage-wins order, spec §4.2's "results
// concatenated into the top-K pool" — until want distinct ids have
// survived accept, or every stage is exhausted.
func CollectStaged(ctx context.Context, idx bleve.Index, stages []bquery.Query, want int, accept Accept) ([]ranking.Candidate, error) {
	seen := make(map[int64]bool, want)
	out := make([]ranking.Candidate, 0, want)

	for _, stage := range stages {
		if len(out) >= want {
			break
		}

		// Over-fetch this stage generously: ids already seen from an
		// earlier stage, or rejected by accept, don't count toward want,
		// so a plain want-sized page could starve a later filter.
		size := want - len(out)
		if size < want {
			size = want
		}

		req := bleve.NewSearchRequestOptions(stage, size, 0, false)
		req.Fields = nil
		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("reader: stage search: %w", err)
		}

		for _, hit := range res.Hits {
			id, err := strconv.ParseInt(hit.ID, 10, 64)
			if err != nil {
				continue
			}
			if seen[id] {
				continue
			}
			if accept != nil && !accept(id) {
				continue
			}
			seen[id] = true
			out = append(out, ranking.Candidate{ID: id, Score: hit.Score})
			if len(out) >= want {
				break
			}
		}
	}

	return out, nil
}

// ScanAll pages through q, collecting every matching id up to MaxScanDocs,
// for the full-scan pass that backs nb_hits and the tag distribution
// (spec §4.5 step 5, §4.7's facet-consistency guarantee).
func ScanAll(ctx context.Context, idx bleve.Index, q bquery.Query) ([]int64, error) {
	var ids []int64
	from := 0

	for len(ids) < MaxScanDocs {
		req := bleve.NewSearchRequestOptions(q, scanPageSize, from, false)
		req.Fields = nil

		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("reader: scan search: %w", err)
		}

		for _, hit := range res.Hits {
			id, err := strconv.ParseInt(hit.ID, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}

		if len(res.Hits) < scanPageSize {
			break
		}
		from += scanPageSize
	}

	return ids, nil
}
