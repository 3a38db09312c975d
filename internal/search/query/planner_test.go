// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query_test

import (
	"testing"

	bquery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelist/searchcore/internal/search/query"
)

var botFields = []string{"username", "brief_description"}

func TestBuildStages_EmptyInputYieldsMatchAll(t *testing.T) {
	stages := query.BuildStages("", botFields)

	require.Len(t, stages, 1)
	_, ok := stages[0].(*bquery.MatchAllQuery)
	assert.True(t, ok, "expected *bquery.MatchAllQuery, got %T", stages[0])
}

func TestBuildStages_ShortTokenOnlyRunsStageZero(t *testing.T) {
	// "fun" is 3 runes: passes stage 0 (minLen 0), fails stage 1 (minLen 4)
	// and stage 2 (minLen 8), so only one stage is emitted.
	stages := query.BuildStages("fun", botFields)

	require.Len(t, stages, 1)
}

func TestBuildStages_LongTokenRunsAllThreeStages(t *testing.T) {
	// "musicbotx" is 9 runes: within the query-time cap of 10 and clears
	// every stage's minimum length.
	stages := query.BuildStages("musicbotx", botFields)

	assert.Len(t, stages, 3)
}

func TestBuildStages_MixedLengthTokensRunTwoStages(t *testing.T) {
	// "fun" (3) only clears stage 0; "trivia" (6) clears stage 0 and 1 but
	// not stage 2 (minLen 8). Stage 2 has no surviving tokens and is skipped.
	stages := query.BuildStages("fun trivia", botFields)

	assert.Len(t, stages, 2)
}

func TestBuildStages_FieldGroupsAreBoostDecayed(t *testing.T) {
	stages := query.BuildStages("music", botFields)
	require.NotEmpty(t, stages)

	top, ok := stages[0].(*bquery.DisjunctionQuery)
	require.True(t, ok, "expected top-level *bquery.DisjunctionQuery, got %T", stages[0])
	require.Len(t, top.Disjuncts, len(botFields))

	first, ok := top.Disjuncts[0].(*bquery.DisjunctionQuery)
	require.True(t, ok)
	second, ok := top.Disjuncts[1].(*bquery.DisjunctionQuery)
	require.True(t, ok)

	assert.InDelta(t, 1.0, float64(*first.BoostVal), 0.0001)
	assert.InDelta(t, 0.9, float64(*second.BoostVal), 0.0001)
}

func TestBuildStages_StageZeroUsesPrefixQuery(t *testing.T) {
	stages := query.BuildStages("music", botFields)
	require.NotEmpty(t, stages)

	top := stages[0].(*bquery.DisjunctionQuery)
	fieldGroup := top.Disjuncts[0].(*bquery.DisjunctionQuery)
	_, ok := fieldGroup.Disjuncts[0].(*bquery.PrefixQuery)
	assert.True(t, ok, "expected stage 0 to use *bquery.PrefixQuery, got %T", fieldGroup.Disjuncts[0])
}

func TestBuildStages_FuzzyStagesUseFuzzyQueryWithIncreasingDistance(t *testing.T) {
	stages := query.BuildStages("musicbotx", botFields)
	require.Len(t, stages, 3)

	for i, wantFuzziness := range []int{0, 1, 2} {
		top := stages[i].(*bquery.DisjunctionQuery)
		fieldGroup := top.Disjuncts[0].(*bquery.DisjunctionQuery)

		if wantFuzziness == 0 {
			_, ok := fieldGroup.Disjuncts[0].(*bquery.PrefixQuery)
			assert.True(t, ok)
			continue
		}
		fq, ok := fieldGroup.Disjuncts[0].(*bquery.FuzzyQuery)
		require.True(t, ok, "stage %d: expected *bquery.FuzzyQuery, got %T", i, fieldGroup.Disjuncts[0])
		assert.Equal(t, wantFuzziness, fq.Fuzziness)
	}
}

func TestBuildDistributionQuery_EmptyInputYieldsMatchAll(t *testing.T) {
	q := query.BuildDistributionQuery("", botFields)

	_, ok := q.(*bquery.MatchAllQuery)
	assert.True(t, ok)
}

func TestBuildDistributionQuery_IsUnstagedPrefixForm(t *testing.T) {
	q := query.BuildDistributionQuery("music", botFields)

	top, ok := q.(*bquery.DisjunctionQuery)
	require.True(t, ok)
	fieldGroup := top.Disjuncts[0].(*bquery.DisjunctionQuery)
	_, ok = fieldGroup.Disjuncts[0].(*bquery.PrefixQuery)
	assert.True(t, ok, "distribution query should use the stage-0 prefix form")
}

func TestTokenize_NormalizesAndDropsOverlongTokens(t *testing.T) {
	assert.Equal(t, []string{"kira", "s", "music", "bot"}, query.Tokenize("Kira's Music-Bot Supercalifragilistic"))
}
