// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ranking implements the secondary-sort-key and value-filter mechanics
of spec §4.6: given a candidate pool of (id, native score) pairs pulled off
a searcher, re-key each candidate with a pure lookup function, order by that
key (inverted for ascending order), and break ties by the original score.

The reference service does this inside tantivy's per-segment score-tweak
collector closure, reading a typed fast-field directly as documents stream
past. bleve's public Search API does not expose an equivalent per-segment
hook, so this package instead operates on the bounded candidate list a
search already returned — the key function for every sort mode needs
data (votes, trending, live row fields) that lives outside the index
anyway, so no native in-index sort could serve it either way.
*/
package ranking

import "sort"

// Candidate is one search hit carried through ranking: its entity id and
// the native relevance score bleve assigned it.
type Candidate struct {
	ID    int64
	Score float64
}

// Order selects whether the secondary key sorts smallest-first or
// largest-first.
type Order int

const (
	// Desc sorts by key descending (the default per spec §6).
	Desc Order = iota
	// Asc sorts by key ascending — the "Reverse" wrapper in spec §4.6.
	Asc
)

// KeyFunc computes a candidate's secondary sort key. Relevance sort uses
// the candidate's own Score; every other sort mode looks the key up from
// live_rows/votes/trending (spec §4.5's sort table).
type KeyFunc func(id int64) float64

// Predicate is one of the fixed set spec §9 allows ("keeps the collector
// type-monomorphic and serialisable for testing"): equals, bits_any,
// bits_all, evaluated against a fast-field-equivalent uint64 value.
type Predicate func(value uint64) bool

// Equals reports whether a candidate's value is exactly want, the predicate
// form of a boolean filter such as premium (0 or 1).
func Equals(want uint64) Predicate {
	return func(value uint64) bool { return value == want }
}

// BitsAny reports whether any bit in mask is set in the candidate's value —
// the predicate form of the features-bitmask filter (spec §4.7: "v → (v & mask) ≠ 0").
func BitsAny(mask uint64) Predicate {
	return func(value uint64) bool { return value&mask != 0 }
}

// BitsAll reports whether every bit in mask is set in the candidate's value.
func BitsAll(mask uint64) Predicate {
	return func(value uint64) bool { return value&mask == mask }
}

// Rank reorders candidates by key(candidate.ID) according to order, with
// ties broken by the candidate's native score, higher first (spec §4.5:
// "Ties break by original score (higher first)").
//
// Rank does not mutate candidates; it returns a new, sorted slice.
func Rank(candidates []Candidate, key KeyFunc, order Order) []Candidate {
	type keyed struct {
		Candidate
		k float64
	}

	ranked := make([]keyed, len(candidates))
	for i, c := range candidates {
		ranked[i] = keyed{Candidate: c, k: key(c.ID)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].k != ranked[j].k {
			if order == Asc {
				return ranked[i].k < ranked[j].k
			}
			return ranked[i].k > ranked[j].k
		}
		return ranked[i].Score > ranked[j].Score
	})

	out := make([]Candidate, len(ranked))
	for i, r := range ranked {
		out[i] = r.Candidate
	}
	return out
}

// ValueFunc resolves the fast-field-equivalent uint64 value a Predicate is
// evaluated against for a given candidate id (e.g. a bot's features
// bitmask or premium bit).
type ValueFunc func(id int64) uint64

// Filter drops every candidate whose value fails pred. A nil pred is a
// no-op, returning candidates unchanged (spec: "optional value filter").
func Filter(candidates []Candidate, value ValueFunc, pred Predicate) []Candidate {
	if pred == nil {
		return candidates
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if pred(value(c.ID)) {
			out = append(out, c)
		}
	}
	return out
}
