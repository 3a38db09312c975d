// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bot implements the index-entity glue (spec §4.9, C9) for the bot
entity kind: the authoritative row shape (spec §3), document construction,
the search request/response shapes, and the filter/sort vocabulary bots
support.
*/
package bot

import "time"

// Row is the authoritative bot row as fetched from the row-store (spec §3).
type Row struct {
	ID                 int64     `db:"id"`
	Username           string    `db:"username"`
	Avatar             string    `db:"avatar"`
	Discriminator      string    `db:"discriminator"`
	Prefix             string    `db:"prefix"`
	BriefDescription   string    `db:"brief_description"`
	IsHidden           bool      `db:"is_hidden"`
	IsForcedIntoHiding bool      `db:"is_forced_into_hiding"`
	IsPackable         bool      `db:"is_packable"`
	Flags              uint64    `db:"flags"`
	Features           uint64    `db:"features"`
	Tags               []string  `db:"tags"`
	OwnerID            int64     `db:"owner_id"`
	CoOwnerIDs         []int64   `db:"co_owner_ids"`
	GuildCount         int64     `db:"guild_count"`
	CreatedOn          time.Time `db:"created_on"`
}

// RowID implements cache.Row.
func (r Row) RowID() int64 { return r.ID }

// Hidden implements cache.Row — hidden rows are excluded from both
// live_rows and the index (spec §3 GLOSSARY: "Hidden row").
func (r Row) Hidden() bool { return r.IsHidden || r.IsForcedIntoHiding }

// Premium reports bit 0 of Flags (spec §3: "a flags bitfield whose bit 0
// designates premium").
func (r Row) Premium() bool { return r.Flags&1 != 0 }

// Filter is the bot search filter shape (spec §4.7).
type Filter struct {
	// Tags is a set of up to ten tags, de-duplicated before compilation.
	Tags []string
	// Features, if non-nil, restricts results to rows whose Features
	// bitmask shares at least one bit with the mask.
	Features *uint64
	// Premium, if non-nil, restricts results to rows whose premium bit
	// matches exactly.
	Premium *bool
}

// SortBy is one of the bot sort options from spec §4.5's sort table.
type SortBy int

const (
	SortRelevance SortBy = iota
	SortVotes
	SortTrending
	SortPopularity
	SortPremium
)

// ParseSortBy maps the wire string to a SortBy, defaulting to SortRelevance
// for an empty string.
func ParseSortBy(s string) (SortBy, bool) {
	switch s {
	case "", "relevance":
		return SortRelevance, true
	case "votes":
		return SortVotes, true
	case "trending":
		return SortTrending, true
	case "popularity":
		return SortPopularity, true
	case "premium":
		return SortPremium, true
	default:
		return SortRelevance, false
	}
}

// Hit is the hydrated response shape for a single bot search result — every
// field beyond id comes from the live cache, never from the index itself
// (spec §3: "the only stored field; everything else is hydrated from the
// live cache").
type Hit struct {
	ID               int64    `json:"id"`
	Username         string   `json:"username"`
	Avatar           string   `json:"avatar"`
	Discriminator    string   `json:"discriminator"`
	Prefix           string   `json:"prefix"`
	BriefDescription string   `json:"brief_description"`
	Tags             []string `json:"tags"`
	Features         uint64   `json:"features"`
	Premium          bool     `json:"premium"`
	IsPackable       bool     `json:"is_packable"`
	GuildCount       int64    `json:"guild_count"`
	Votes            uint64   `json:"votes"`
	Trending         float64  `json:"trending"`
}

// SearchRequest is the bot search request shape (spec §6).
type SearchRequest struct {
	Query  string
	Limit  int
	Offset int
	Filter Filter
	Sort   SortBy
	Order  string // "asc" | "desc"
}

// SearchResponse is the bot search response shape (spec §6).
type SearchResponse struct {
	Hits            []Hit          `json:"hits"`
	Limit           int            `json:"limit"`
	Offset          int            `json:"offset"`
	Query           string         `json:"query"`
	NbHits          int            `json:"nb_hits"`
	TagDistribution map[string]int `json:"tag_distribution"`
}
