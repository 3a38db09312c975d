// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package votes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corelist/searchcore/internal/search/votes"
)

func TestState_ZeroValueLookupsReturnZero(t *testing.T) {
	s := votes.NewState()

	assert.Equal(t, votes.Count{}, s.Votes(1))
	assert.Zero(t, s.Trending(1))
}

func TestState_ReplaceVotesPublishesWholeMapAtomically(t *testing.T) {
	s := votes.NewState()

	s.ReplaceVotes(map[int64]votes.Count{1: {Current: 10, AllTime: 100}})
	assert.Equal(t, votes.Count{Current: 10, AllTime: 100}, s.Votes(1))
	assert.Equal(t, votes.Count{}, s.Votes(2))
}

func TestState_ReplaceTrendingPublishesWholeMapAtomically(t *testing.T) {
	s := votes.NewState()

	s.ReplaceTrending(map[int64]float64{1: 4.2})
	assert.InDelta(t, 4.2, s.Trending(1), 0.0001)
	assert.Zero(t, s.Trending(2))
}

func TestState_SuccessiveReplacementsDoNotLeakOldEntries(t *testing.T) {
	s := votes.NewState()

	s.ReplaceVotes(map[int64]votes.Count{1: {Current: 1}})
	s.ReplaceVotes(map[int64]votes.Count{2: {Current: 2}})

	assert.Equal(t, votes.Count{}, s.Votes(1))
	assert.Equal(t, votes.Count{Current: 2}, s.Votes(2))
}
