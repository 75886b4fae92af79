// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net/http"
	urlpkg "net/url"
	"time"

	"golang.org/x/net/http/httpguts"
)

// ErrConfigurationConflict is returned by SetBody and AddMimeField when
// the other, mutually exclusive, request body representation has
// already been set on the Request.
//
// The Request is left unmodified when this error is returned.
var ErrConfigurationConflict = errors.New("curlmux/request: body and mime fields are mutually exclusive")

// bodyKind tags which of the two mutually exclusive body representations,
// if any, a Request currently holds.
type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyRaw
	bodyMime
)

// A ProgressHandler is invoked periodically as a request attempt
// uploads and downloads data. Returning false aborts the attempt with
// status.RequestAborted.
type ProgressHandler func(downloadTotal, downloadNow, uploadTotal, uploadNow int64) bool

// A CompleteHandler receives the final Request and Response once an
// asynchronous attempt submitted via EventLoop.Submit concludes, by
// whatever means (success, error, Timeout, or Timesup).
//
// The handler takes ownership of both arguments; neither the Request
// nor the Response will be touched again by curlmux after the handler
// returns.
type CompleteHandler func(*Request, *Response)

// A Request describes a single HTTP request attempt.
//
// The zero value is not directly usable; construct a Request with New.
// Fields may be set directly up until the Request is submitted to an
// EventLoop or passed to Perform, except for the body, which must be
// set through SetBody or AddMimeField because the two are mutually
// exclusive and that invariant must be enforced.
type Request struct {
	// Method is the HTTP method. An empty string means GET.
	Method string

	// URL is the address to request.
	URL *urlpkg.URL

	// Version optionally pins the HTTP protocol version to negotiate:
	// "" lets the transfer engine decide (the usual case), "HTTP/1.1"
	// forces HTTP/1.1, and "HTTP/2" forces HTTP/2 (h2c is not
	// supported).
	Version string

	// Header contains the request header fields to send.
	Header http.Header

	// Timeout bounds a single transport attempt, from connecting through
	// reading the whole response body. A zero value means no transport
	// timeout is applied. Timeout is independent of Timesup; see the
	// package documentation of curlmux for how the two interact.
	Timeout time.Duration

	// Timesup bounds the total wall-clock duration of the request,
	// independent of Timeout. A zero value means no wall-clock
	// deadline is applied. Unlike Timeout, Timesup is enforced by the
	// event loop itself, not by the transfer engine, so it applies
	// even while the attempt is queued waiting for a free slot under
	// MaxConnections.
	Timesup time.Duration

	// FollowRedirects controls whether the transfer engine follows
	// HTTP redirects. Defaults to true when constructed via New.
	FollowRedirects bool

	// MaxRedirects caps the number of redirects followed when
	// FollowRedirects is true. A negative value means unlimited.
	MaxRedirects int

	// VerifySSLPeer controls whether the peer certificate is
	// validated against the trusted root pool. Defaults to true.
	VerifySSLPeer bool

	// VerifySSLHost controls whether the peer certificate's subject
	// is checked against the request hostname. Defaults to true.
	VerifySSLHost bool

	// ClientCert optionally presents a client certificate during the
	// TLS handshake.
	ClientCert *ClientCert

	// Proxy optionally routes the request through an HTTP or HTTPS
	// proxy. When nil, the transfer engine's default proxy behavior
	// (typically environment-variable based) applies.
	Proxy *Proxy

	// AcceptEncodings lists the content codings to advertise in the
	// Accept-Encoding header and to automatically decode in the
	// response (see status.ContentEncodingError). Supported values are
	// "gzip", "br", and "deflate". Setting this is mutually exclusive
	// with manually setting an Accept-Encoding header.
	AcceptEncodings []string

	// HostOverrides bypasses DNS resolution for specific host:port
	// pairs, resolving them to fixed addresses instead.
	HostOverrides HostOverrideList

	// HappyEyeballsTimeout sets net.Dialer.FallbackDelay for this
	// request's dial, controlling how long the dialer waits for an
	// IPv6 connection attempt before also trying IPv4 (RFC 8305). A
	// zero value uses the transfer engine's default delay.
	HappyEyeballsTimeout time.Duration

	// OnComplete is invoked exactly once when a request submitted via
	// EventLoop.Submit concludes. It is not used by Perform, which
	// returns the Response directly instead.
	OnComplete CompleteHandler

	// OnProgress, if set, is invoked periodically during the attempt
	// with cumulative transfer counts.
	OnProgress ProgressHandler

	body       []byte
	mimeFields []MimeField
	bodyKind   bodyKind
}

// New constructs a Request for the given method and URL.
//
// An empty method means GET. FollowRedirects and both SSL verification
// flags default to true, matching the conservative defaults of the
// transfer engines this library wraps.
func New(method, url string) (*Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	if !httpguts.ValidHeaderFieldName(method) {
		return nil, errors.New("curlmux/request: invalid method " + method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method:          method,
		URL:             u,
		Header:          make(http.Header),
		FollowRedirects: true,
		MaxRedirects:    -1,
		VerifySSLPeer:   true,
		VerifySSLHost:   true,
	}, nil
}

// Body returns the raw request body previously set with SetBody, or nil
// if no body is set (including if mime fields are set instead).
func (r *Request) Body() []byte {
	if r.bodyKind != bodyRaw {
		return nil
	}
	return r.body
}

// SetBody sets the request body to data and switches Method to POST if
// it is currently GET or HEAD.
//
// SetBody fails with ErrConfigurationConflict if mime fields have
// already been added via AddMimeField.
func (r *Request) SetBody(data []byte) error {
	if r.bodyKind == bodyMime {
		return ErrConfigurationConflict
	}
	r.body = data
	r.bodyKind = bodyRaw
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == "" {
		r.Method = http.MethodPost
	}
	return nil
}

// SetBodyValue is like SetBody, but accepts any of the types BodyBytes
// converts: nil, string, []byte, io.Reader, or io.ReadCloser. It exists
// for callers building a request body from something other than an
// already-materialized []byte, for example a file opened for reading.
//
// SetBodyValue fails with the same error BodyBytes would if body is of
// an unsupported type, or with ErrConfigurationConflict under the same
// condition as SetBody.
func (r *Request) SetBodyValue(body interface{}) error {
	data, err := BodyBytes(body)
	if err != nil {
		return err
	}
	return r.SetBody(data)
}

// MimeFields returns the mime fields previously added with
// AddMimeField, or nil if none have been added (including if a raw
// body is set instead).
func (r *Request) MimeFields() []MimeField {
	if r.bodyKind != bodyMime {
		return nil
	}
	return r.mimeFields
}

// AddMimeField appends a multipart/form-data field to the request and
// switches Method to POST if it is currently GET or HEAD.
//
// AddMimeField fails with ErrConfigurationConflict if a raw body has
// already been set via SetBody.
func (r *Request) AddMimeField(f MimeField) error {
	if r.bodyKind == bodyRaw {
		return ErrConfigurationConflict
	}
	r.mimeFields = append(r.mimeFields, f)
	r.bodyKind = bodyMime
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == "" {
		r.Method = http.MethodPost
	}
	return nil
}
