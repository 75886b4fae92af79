// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "net/url"

// A Proxy describes an HTTP or HTTPS proxy to route a request through.
type Proxy struct {
	// URL is the proxy's address, e.g. "http://proxy.example.com:8080".
	URL *url.URL

	// Username and Password, if set, authenticate to the proxy with
	// HTTP Basic authentication, the only scheme this library
	// implements.
	Username string
	Password string
}
