// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package request contains the request/response data model consumed by
// curlmux's event loop and synchronous Perform entry point.
//
// A Request describes a single logical HTTP request attempt, including
// everything an easy handle would need in a libcurl-based client:
// method, URL, headers, a body or a set of mime fields (mutually
// exclusive), TLS options, an optional client certificate, an optional
// proxy, accept-encodings, host overrides, and the two independent
// timeout disciplines (Timeout and Timesup) described in the package
// documentation of curlmux itself.
//
// Request is meant to be built once and handed to
// curlmux.EventLoop.Submit or curlmux.Perform; ownership passes to the
// executor for the duration of the attempt and is handed back, via the
// OnComplete callback (for Submit) or the return value (for Perform),
// once the attempt concludes.
package request
