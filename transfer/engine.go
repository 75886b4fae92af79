// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/gophercurl/curlmux/request"
)

// A Job is one unit of work an Engine dispatches to a goroutine: perform
// the transfer described by Token and report the result on the Engine's
// Outcomes channel. Token is opaque to the engine; it is round-tripped
// back on the matching Outcome so the caller can find the executor that
// owns it.
type Job struct {
	Token int64
	Run   func(ctx context.Context) (*request.Response, error)
}

// An Outcome reports the result of a Job the Engine has finished
// running.
type Outcome struct {
	Token    int64
	Response *request.Response
	Err      error
}

// An Engine runs Jobs concurrently, subject to a maximum concurrency
// limit, and reports their Outcomes on a channel. It plays the role
// libcurl's multi handle plays in fanning transfers out across a bounded
// number of concurrent connections, except that Go's scheduler, not a
// socket-readiness reactor, decides when each Job's goroutine runs.
type Engine struct {
	sem     *semaphore.Weighted
	limit   int64
	outcome chan Outcome
	active  int64
}

// NewEngine returns an Engine that will not run more than maxConcurrent
// Jobs at once. A maxConcurrent of 0 or less means unlimited.
func NewEngine(maxConcurrent int) *Engine {
	e := &Engine{
		outcome: make(chan Outcome, 64),
	}
	e.SetMaxConnections(maxConcurrent)
	return e
}

// SetMaxConnections changes the concurrency limit for Jobs submitted
// after the call returns. Jobs already running are unaffected.
func (e *Engine) SetMaxConnections(maxConcurrent int) {
	if maxConcurrent <= 0 {
		e.sem = nil
		e.limit = 0
		return
	}
	e.limit = int64(maxConcurrent)
	e.sem = semaphore.NewWeighted(e.limit)
}

// Outcomes returns the channel Outcomes are delivered on. The channel is
// never closed; callers select on it alongside their other event
// sources for the lifetime of the Engine.
func (e *Engine) Outcomes() <-chan Outcome {
	return e.outcome
}

// ActiveJobs returns the number of Jobs currently running or waiting on
// Add's goroutine for a concurrency slot to free up.
func (e *Engine) ActiveJobs() int64 {
	return atomic.LoadInt64(&e.active)
}

// Add starts j on its own goroutine and returns immediately without
// blocking, even if the engine's concurrency limit is currently
// exhausted: the caller is the event loop's own goroutine, which must
// never suspend anywhere but inside its reactor's poll, so any wait for
// a concurrency slot happens on j's own goroutine instead of here.
func (e *Engine) Add(ctx context.Context, j Job) {
	atomic.AddInt64(&e.active, 1)
	go func() {
		defer atomic.AddInt64(&e.active, -1)
		if e.sem != nil {
			if err := e.sem.Acquire(ctx, 1); err != nil {
				e.outcome <- Outcome{Token: j.Token, Err: ctx.Err()}
				return
			}
			defer e.sem.Release(1)
		}
		resp, err := j.Run(ctx)
		e.outcome <- Outcome{Token: j.Token, Response: resp, Err: err}
	}()
}
