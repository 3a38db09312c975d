// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package indexmgr implements the index manager (spec §4.4): it opens or
creates the on-disk index at a configured path, registers the core's two
analyzers, and wires together a reader and a writer actor (internal/search/writer)
over the same index handle.

Every entity (bots, packs) gets its own on-disk index directory and its own
Manager; the index mapping itself is built by the entity package
(internal/core/bot, internal/core/pack) using [NewMapping] as a base.
*/
package indexmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/corelist/searchcore/internal/search/tokenizer"
	"github.com/corelist/searchcore/internal/search/writer"
)

// Analyzer names every entity mapping should reference for its text and
// exact-match fields, respectively.
const (
	TextAnalyzer    = "text"
	KeywordAnalyzer = "keyword"
)

// allDocIDsPageSize bounds how many hits a single AllDocIDs page fetches;
// the domain (bots, packs) is small enough that a handful of pages covers
// the whole index.
const allDocIDsPageSize = 1000

// NewMapping returns a base index mapping with the text/keyword custom
// analyzers registered, ready for an entity package to layer field mappings
// onto via AddDocumentMapping.
func NewMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = TextAnalyzer

	if err := im.AddCustomAnalyzer(TextAnalyzer, map[string]interface{}{
		"type":      "custom",
		"tokenizer": tokenizer.RegistryNameUnicode,
	}); err != nil {
		return nil, fmt.Errorf("indexmgr: register %s analyzer: %w", TextAnalyzer, err)
	}
	if err := im.AddCustomAnalyzer(KeywordAnalyzer, map[string]interface{}{
		"type":      "custom",
		"tokenizer": tokenizer.RegistryNameRaw,
	}); err != nil {
		return nil, fmt.Errorf("indexmgr: register %s analyzer: %w", KeywordAnalyzer, err)
	}
	return im, nil
}

// Manager owns one entity's on-disk index, its shared reader handle, and
// the single writer actor serializing mutations into it.
type Manager struct {
	idx bleve.Index
	w   *writer.Writer
}

// Open opens the index at path if it already exists, or creates it with im
// otherwise, then starts the writer actor over it (spec: "returns a reader
// ... together with ... the writer produced by C3"). log is passed straight
// through to the writer actor, which logs its own state transitions.
func Open(ctx context.Context, path string, im mapping.IndexMapping, log *slog.Logger) (*Manager, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("indexmgr: open %s: %w", path, err)
	}

	m := &Manager{idx: idx}
	w, err := writer.Start(ctx, m, log)
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("indexmgr: start writer for %s: %w", path, err)
	}
	m.w = w
	return m, nil
}

// Writer returns the actor handle for this entity's index.
func (m *Manager) Writer() *writer.Writer { return m.w }

// Index returns the shared, lock-free, commit-refreshed searcher handle
// (spec: "a reader whose reload policy is on-commit").
func (m *Manager) Index() bleve.Index { return m.idx }

// Close shuts the writer down (flushing any pending batch) and then closes
// the underlying index.
func (m *Manager) Close() error {
	werr := m.w.Close()
	ierr := m.idx.Close()
	if werr != nil {
		return werr
	}
	return ierr
}

// NewBatch implements writer.Index.
func (m *Manager) NewBatch() writer.Batch {
	return m.idx.NewBatch()
}

// Batch implements writer.Index.
func (m *Manager) Batch(b writer.Batch) error {
	bb, ok := b.(*bleve.Batch)
	if !ok {
		return fmt.Errorf("indexmgr: unexpected batch type %T", b)
	}
	return m.idx.Batch(bb)
}

// AllDocIDs implements writer.Index by paging through a match-all query.
// bleve has no single "list every document id" primitive, so ClearAll
// (internal/search/writer) relies on this to expand into per-id deletes.
func (m *Manager) AllDocIDs() ([]string, error) {
	var ids []string
	from := 0
	for {
		req := bleve.NewSearchRequestOptions(bquery.NewMatchAllQuery(), allDocIDsPageSize, from, false)
		req.Fields = nil

		res, err := m.idx.Search(req)
		if err != nil {
			return nil, fmt.Errorf("indexmgr: list doc ids: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < allDocIDsPageSize {
			return ids, nil
		}
		from += allDocIDsPageSize
	}
}
