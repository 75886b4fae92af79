// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transfer provides the reusable *http.Client handles that back
// every in-flight request, and the Engine abstraction that turns a
// request.Request into a goroutine performing that request and
// reporting its Outcome back to the event loop.
package transfer

import (
	"net/http"
	"time"
)

// A Handle wraps a reusable *http.Client, keeping its underlying
// *http.Transport (and therefore its idle connection pool) alive across
// requests the way a libcurl easy handle keeps its connection cache
// alive across reuses of the handle.
type Handle struct {
	Client    *http.Client
	Transport *http.Transport
}

func newHandle() *Handle {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Handle{
		Client:    &http.Client{Transport: tr},
		Transport: tr,
	}
}

// A Pool is a FIFO free list of Handle values, backed by a buffered
// channel and warmed on construction to avoid paying transport setup
// cost on the hot path of the first requests submitted to the event
// loop. Acquire returns the handle that has been idle longest, not the
// most recently released one.
//
// Pool is safe for concurrent use.
type Pool struct {
	free chan *Handle
	max  int
}

// NewPool returns a Pool pre-populated with reserve idle handles. max
// bounds the total number of handles the pool will hold onto; handles
// acquired beyond max are still served (a Pool never blocks or fails an
// Acquire), they are simply discarded on Release rather than recycled.
func NewPool(reserve, max int) *Pool {
	if max < reserve {
		max = reserve
	}
	if max <= 0 {
		max = 1
	}
	p := &Pool{
		free: make(chan *Handle, max),
		max:  max,
	}
	for i := 0; i < reserve; i++ {
		p.free <- newHandle()
	}
	return p
}

// Acquire returns a Handle from the free list, or a freshly constructed
// one if the free list is empty.
func (p *Pool) Acquire() *Handle {
	select {
	case h := <-p.free:
		return h
	default:
		return newHandle()
	}
}

// Release returns h to the free list. If the free list is already at
// capacity, h is dropped and its idle connections will be reclaimed by
// the transport's own idle timeout.
func (p *Pool) Release(h *Handle) {
	select {
	case p.free <- h:
	default:
	}
}
