// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package curlmux

import (
	"context"
	"fmt"
	"time"

	"github.com/gophercurl/curlmux/executor"
	"github.com/gophercurl/curlmux/request"
	"github.com/gophercurl/curlmux/transfer"
)

// Perform runs req to completion on the calling goroutine and returns
// its Response. Perform does not require an EventLoop; it is meant for
// callers who want the same request semantics (TLS options, host
// overrides, proxying, timeouts) without paying for asynchronous
// dispatch.
//
// If req.Timesup elapses before the underlying HTTP round trip
// finishes, Perform returns a Response with Status status.Timesup
// immediately, the same way an EventLoop-driven request finalizes early
// on Timesup: the round trip is not cancelled, it simply continues
// unobserved in the background.
//
// Perform returns a non-nil error only when req could not be prepared
// at all (for example, an unreadable client certificate file); every
// other kind of failure is reported through the returned Response's
// Status and Err.
func Perform(req *request.Request) (*request.Response, error) {
	ex := executor.New(req)
	ex.SetStart(time.Now())

	pool := transfer.NewPool(1, 1)
	if err := ex.Prepare(pool); err != nil {
		return nil, fmt.Errorf("curlmux: preparing request: %w", err)
	}

	ctx := context.Background()
	cancel := func() {}
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
	}

	if req.Timesup <= 0 {
		defer cancel()
		return ex.PerformSync(ctx), nil
	}

	resultCh := make(chan *request.Response, 1)
	go func() {
		defer cancel()
		resultCh <- ex.PerformSync(ctx)
	}()

	timer := time.NewTimer(req.Timesup)
	defer timer.Stop()

	select {
	case resp := <-resultCh:
		return resp, nil
	case <-timer.C:
		// FinalizeTimesup invokes req.OnComplete when it is set; Perform
		// reports through its return value only.
		onComplete := req.OnComplete
		req.OnComplete = nil
		resp := ex.FinalizeTimesup()
		req.OnComplete = onComplete
		return resp, nil
	}
}
