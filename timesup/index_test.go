// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timesup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_EarliestOnEmpty(t *testing.T) {
	idx := New()
	_, _, ok := idx.Earliest()
	assert.False(t, ok)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_InsertOrdersByDeadline(t *testing.T) {
	idx := New()
	base := time.Now()

	idx.Insert(base.Add(3*time.Second), "third")
	idx.Insert(base.Add(1*time.Second), "first")
	idx.Insert(base.Add(2*time.Second), "second")

	require.Equal(t, 3, idx.Len())

	d, v, ok := idx.Earliest()
	require.True(t, ok)
	assert.Equal(t, "first", v)
	assert.True(t, d.Equal(base.Add(1*time.Second)))
}

func TestIndex_TiesPreserveInsertionOrder(t *testing.T) {
	idx := New()
	deadline := time.Now()

	idx.Insert(deadline, "a")
	idx.Insert(deadline, "b")

	var order []string
	idx.ExpireDue(deadline, func(v interface{}) {
		order = append(order, v.(string))
	})
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestIndex_RemoveByToken(t *testing.T) {
	idx := New()
	base := time.Now()

	tokA := idx.Insert(base.Add(time.Second), "a")
	idx.Insert(base.Add(2*time.Second), "b")

	idx.Remove(tokA)
	assert.Equal(t, 1, idx.Len())

	_, v, ok := idx.Earliest()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestIndex_RemoveIsIdempotent(t *testing.T) {
	idx := New()
	tok := idx.Insert(time.Now(), "a")

	idx.Remove(tok)
	assert.NotPanics(t, func() { idx.Remove(tok) })

	var zero Token
	assert.NotPanics(t, func() { idx.Remove(zero) })
}

func TestIndex_ExpireDueOnlyRemovesDueEntries(t *testing.T) {
	idx := New()
	now := time.Now()

	idx.Insert(now.Add(-time.Second), "due")
	idx.Insert(now.Add(time.Hour), "notdue")

	var visited []string
	idx.ExpireDue(now, func(v interface{}) {
		visited = append(visited, v.(string))
	})

	assert.Equal(t, []string{"due"}, visited)
	assert.Equal(t, 1, idx.Len())

	_, v, ok := idx.Earliest()
	require.True(t, ok)
	assert.Equal(t, "notdue", v)
}

func TestIndex_ExpireDueSafeToResubmitDuringVisit(t *testing.T) {
	idx := New()
	now := time.Now()

	var tokens []Token
	tokens = append(tokens, idx.Insert(now.Add(-2*time.Second), "first"))
	tokens = append(tokens, idx.Insert(now.Add(-time.Second), "second"))
	_ = tokens

	var reinserted bool
	idx.ExpireDue(now, func(v interface{}) {
		if v == "first" && !reinserted {
			reinserted = true
			idx.Insert(now.Add(time.Hour), "resubmitted")
		}
	})

	assert.Equal(t, 1, idx.Len())
	_, v, ok := idx.Earliest()
	require.True(t, ok)
	assert.Equal(t, "resubmitted", v)
}
