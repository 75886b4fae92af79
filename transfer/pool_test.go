// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_ReservesWarmHandles(t *testing.T) {
	p := NewPool(2, 4)
	h1 := p.Acquire()
	h2 := p.Acquire()
	require.NotNil(t, h1)
	require.NotNil(t, h2)
	assert.NotSame(t, h1, h2)
}

func TestPool_AcquireBeyondReserveStillWorks(t *testing.T) {
	p := NewPool(1, 1)
	h1 := p.Acquire()
	h2 := p.Acquire() // free list is empty; must fall back to newHandle
	require.NotNil(t, h1)
	require.NotNil(t, h2)
}

func TestPool_ReleaseThenAcquireReusesHandle(t *testing.T) {
	p := NewPool(0, 2)
	h1 := p.Acquire()
	p.Release(h1)
	h2 := p.Acquire()
	assert.Same(t, h1, h2)
}

func TestPool_ReleaseBeyondCapacityIsDropped(t *testing.T) {
	p := NewPool(0, 1)
	h1 := p.Acquire()
	h2 := p.Acquire()
	p.Release(h1)
	p.Release(h2) // capacity is 1; this one should be silently dropped
	assert.NotPanics(t, func() {
		p.Release(h2)
	})
}
