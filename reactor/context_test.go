// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_CancelThenAwaitTwoPhase(t *testing.T) {
	p := NewContextPool(4)
	c := p.Acquire(1)

	awaitDone := make(chan struct{})
	go func() {
		c.Await()
		close(awaitDone)
	}()

	select {
	case <-awaitDone:
		t.Fatal("Await returned before MarkDone")
	case <-time.After(20 * time.Millisecond):
	}

	c.Cancel()
	assert.Error(t, c.Ctx().Err())

	c.MarkDone()
	select {
	case <-awaitDone:
	case <-time.After(time.Second):
		t.Fatal("Await did not return after MarkDone")
	}
}

func TestContext_MarkDoneIdempotent(t *testing.T) {
	p := NewContextPool(4)
	c := p.Acquire(1)
	assert.NotPanics(t, func() {
		c.MarkDone()
		c.MarkDone()
	})
}

func TestContextPool_RecyclesAfterRelease(t *testing.T) {
	p := NewContextPool(1)
	c1 := p.Acquire(1)
	c1.MarkDone()
	p.Release(c1)

	c2 := p.Acquire(2)
	require.Same(t, c1, c2)
	assert.Equal(t, uintptr(2), c2.ID)

	// A recycled Context must have a fresh done channel, not the
	// already-closed one from its previous occupant.
	select {
	case <-c2.done:
		t.Fatal("recycled Context reused a closed done channel")
	default:
	}
}
