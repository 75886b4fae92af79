// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"time"

	"github.com/gophercurl/curlmux/status"
)

// A Response is produced by an executor for every request attempt,
// whether it was submitted asynchronously or performed synchronously.
//
// A Response is always non-nil once an attempt has concluded, even when
// Status is not status.Success. Body and Header are nil until the
// attempt has a value for them; in particular Header remains nil on a
// Timesup or a pre-response Timeout, and Body on a Timesup holds a
// synthetic "timed out after N ms" marker rather than the real response,
// which may still be in flight when the Timesup fires.
type Response struct {
	// StatusCode is the HTTP response status code, or zero if no HTTP
	// response was ever received.
	StatusCode int

	// StatusLine is the HTTP status line, e.g. "200 OK", or empty if no
	// HTTP response was ever received.
	StatusLine string

	// Header contains the HTTP response header fields, or nil if no
	// HTTP response was ever received.
	Header http.Header

	// Body is the fully buffered, and if applicable decompressed,
	// response body. It is nil if no response body was read, either
	// because the attempt failed before receiving one or because a
	// HEAD request was made.
	Body []byte

	// Total is the wall-clock duration of the entire attempt, from
	// submission (or the start of Perform) to finalization.
	Total time.Duration

	// Status is the library-level terminal status of the attempt.
	Status status.Code
}

// Err returns a non-nil error describing the failure if Status is
// anything other than status.Success, and nil otherwise.
//
// The returned error's message names the status; it does not preserve
// the original transport-level error, which curlmux never surfaces
// past the Response (see the package documentation of status).
func (r *Response) Err() error {
	if r.Status == status.Success {
		return nil
	}
	return statusError(r.Status)
}

type statusError status.Code

func (e statusError) Error() string {
	return "curlmux: request failed: " + status.Code(e).String()
}
