// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelist/searchcore/internal/search/cache"
)

type fakeRow struct {
	id     int64
	hidden bool
}

func (r fakeRow) RowID() int64 { return r.id }
func (r fakeRow) Hidden() bool { return r.hidden }

func TestLive_RefreshDropsHiddenRows(t *testing.T) {
	c := cache.New[fakeRow]()

	c.Refresh([]fakeRow{
		{id: 1, hidden: false},
		{id: 2, hidden: true},
	})

	_, ok1 := c.Get(1)
	_, ok2 := c.Get(2)
	assert.True(t, ok1)
	assert.False(t, ok2)
	assert.Equal(t, 1, c.Len())
}

func TestLive_RefreshReplacesWholeMap(t *testing.T) {
	c := cache.New[fakeRow]()
	c.Refresh([]fakeRow{{id: 1}, {id: 2}})
	c.Refresh([]fakeRow{{id: 3}})

	_, ok1 := c.Get(1)
	_, ok3 := c.Get(3)
	assert.False(t, ok1)
	assert.True(t, ok3)
}

func TestLive_UpsertAddsVisibleRow(t *testing.T) {
	c := cache.New[fakeRow]()
	c.Upsert(fakeRow{id: 1})

	row, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(1), row.id)
}

func TestLive_UpsertHiddenRowRemovesIt(t *testing.T) {
	c := cache.New[fakeRow]()
	c.Upsert(fakeRow{id: 1})
	c.Upsert(fakeRow{id: 1, hidden: true})

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestLive_RemoveDeletesRow(t *testing.T) {
	c := cache.New[fakeRow]()
	c.Upsert(fakeRow{id: 1})
	c.Remove(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestLive_KeysReturnsLiveCacheKeySet(t *testing.T) {
	c := cache.New[fakeRow]()
	c.Refresh([]fakeRow{{id: 1}, {id: 2}, {id: 3}})

	assert.ElementsMatch(t, []int64{1, 2, 3}, c.Keys())
}
