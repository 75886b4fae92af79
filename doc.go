// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package curlmux provides an asynchronous HTTP client built around a
single long-lived EventLoop that fans requests out across a bounded
pool of connections.

Build a request.Request and submit it to an EventLoop for asynchronous
completion:

	loop, err := curlmux.New(config.Default())
	...
	req, err := request.New("GET", "https://www.example.com")
	req.OnComplete = func(req *request.Request, resp *request.Response) {
		if err := resp.Err(); err != nil {
			log.Printf("request failed: %v", err)
			return
		}
		log.Printf("%d %s", resp.StatusCode, resp.Body)
	}
	loop.Submit(req)

Or perform a request synchronously on the calling goroutine without an
EventLoop at all:

	resp, err := curlmux.Perform(req)

A Request carries two independent deadlines. Timeout bounds a single
transport attempt the way an http.Client's Timeout does. Timesup bounds
the entire attempt's wall-clock duration, including time spent queued
behind MaxConnections, and is enforced by the EventLoop itself rather
than by the underlying transport: when Timesup elapses, OnComplete (or
Perform's return) fires immediately with status.Timesup, but the
underlying HTTP round trip is not cancelled and continues unobserved in
the background, the same way libcurl's multi handle does not abort a
transfer just because a caller stopped polling for it.

Package curlmux provides the request/response data model in package
request, the terminal status taxonomy in package status, and the
constituent pieces of the EventLoop (transfer.Pool and transfer.Engine,
timesup.Index, reactor.Reactor and executor.Executor) as separate
packages for callers who want to assemble their own event loop variant.
*/
package curlmux
