// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package query builds the staged fuzzy-prefix boolean queries (spec §4.2) and
the distribution query used for facet counting, from a free-text string and
a set of target fields.

# Stages

Three stages run in order, each only active if at least one surviving token
passes its minimum length cut:

	stage 0: exact-prefix match   (no minimum length)
	stage 1: edit distance 1      (token length >= 4)
	stage 2: edit distance 2      (token length >= 8)

Within a stage, each field is searched independently and boosted by
position — the first field starts at boost 1.0 and each subsequent field
decays by 0.10 — then the per-field groups are combined with OR. The
per-token queries within one field's group are also combined with OR.

bleve has no direct analog of tantivy's prefix-constrained FuzzyTermQuery
(fuzzy edits confined to characters after an exact-matching prefix); stage 0
uses a plain prefix query, and stages 1/2 use bleve's [query.FuzzyQuery]
with its Fuzziness set to the stage's edit distance and a short required
Prefix, which approximates the same "fuzzy near the end of an otherwise
matching token" behavior.
*/
package query

import (
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/corelist/searchcore/internal/search/tokenizer"
)

// stageSpec pairs a fuzzy edit distance with the minimum token length
// required for a token to participate in that stage.
type stageSpec struct {
	fuzziness int
	minLen    int
}

// stages is the fixed three-stage plan from spec §4.2.
var stages = []stageSpec{
	{fuzziness: 0, minLen: 0},
	{fuzziness: 1, minLen: 4},
	{fuzziness: 2, minLen: 8},
}

// fuzzyPrefixLen is the number of leading characters a fuzzy-stage match
// must reproduce exactly before edits are allowed to apply.
const fuzzyPrefixLen = 1

// Tokenize runs the query-time tokenizer (length cap 10, spec §4.1) over
// free text and returns the surviving normalized tokens.
func Tokenize(freeText string) []string {
	tok := tokenizer.NewUnicode(tokenizer.DefaultQueryMaxLen)
	stream := tok.TokenStream(freeText)

	var out []string
	for {
		t, ok := stream.Next()
		if !ok {
			break
		}
		out = append(out, t.Text)
	}
	return out
}

// BuildStages returns the ordered list of stage queries for freeText against
// fields. An empty token stream (freeText is empty, or every token is
// length-capped away) yields a single wildcard query matching every
// document, as spec §4.2 requires for the "distribution" query and for a
// null/empty free-text search.
func BuildStages(freeText string, fields []string) []bquery.Query {
	tokens := Tokenize(freeText)
	if len(tokens) == 0 {
		return []bquery.Query{bquery.NewMatchAllQuery()}
	}

	out := make([]bquery.Query, 0, len(stages))
	for _, spec := range stages {
		survivors := survivingTokens(tokens, spec.minLen)
		if len(survivors) == 0 {
			continue
		}
		out = append(out, buildStageQuery(survivors, fields, spec.fuzziness))
	}
	return out
}

// BuildDistributionQuery returns the query used for facet counting: the
// stage-0 (exact-prefix) form if any token survives tokenization, otherwise
// an all-docs query. It is deliberately not staged — spec calls it the
// "distribution query", distinct from the ranking plan.
func BuildDistributionQuery(freeText string, fields []string) bquery.Query {
	tokens := Tokenize(freeText)
	if len(tokens) == 0 {
		return bquery.NewMatchAllQuery()
	}
	return buildStageQuery(tokens, fields, 0)
}

func survivingTokens(tokens []string, minLen int) []string {
	if minLen == 0 {
		return tokens
	}
	var out []string
	for _, t := range tokens {
		if len([]rune(t)) >= minLen {
			out = append(out, t)
		}
	}
	return out
}

// buildStageQuery builds one stage's query: per-field OR groups of per-token
// fuzzy/prefix queries, boosted by field position and combined with OR.
func buildStageQuery(tokens []string, fields []string, fuzziness int) bquery.Query {
	boost := 1.0
	fieldGroups := make([]bquery.Query, 0, len(fields))

	for _, field := range fields {
		tokenQueries := make([]bquery.Query, 0, len(tokens))
		for _, tok := range tokens {
			tokenQueries = append(tokenQueries, fieldTokenQuery(field, tok, fuzziness))
		}

		group := bquery.NewDisjunctionQuery(tokenQueries)
		group.SetBoost(boost)
		fieldGroups = append(fieldGroups, group)

		boost -= 0.10
	}

	return bquery.NewDisjunctionQuery(fieldGroups)
}

func fieldTokenQuery(field, token string, fuzziness int) bquery.Query {
	if fuzziness == 0 {
		q := bquery.NewPrefixQuery(token)
		q.SetField(field)
		return q
	}

	q := bquery.NewFuzzyQuery(token)
	q.SetField(field)
	q.SetFuzziness(fuzziness)
	if len([]rune(token)) > fuzzyPrefixLen {
		q.SetPrefix(fuzzyPrefixLen)
	}
	return q
}
