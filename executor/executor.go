// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package executor turns a single request.Request into an HTTP
// round trip and reports the outcome exactly once, matching the
// prepare-once, complete-once lifecycle of an Executor in the
// libcurl-based library this package's design is grounded on.
package executor

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/crypto/pkcs12"

	"github.com/gophercurl/curlmux/request"
	"github.com/gophercurl/curlmux/status"
	"github.com/gophercurl/curlmux/transfer"
)

// An Executor drives a single request.Request to completion. It is
// prepared once, performed once (synchronously or on a transfer.Engine
// goroutine), and finalized exactly once, regardless of whether it
// finishes normally or is finalized early because its Timesup deadline
// elapsed.
type Executor struct {
	req     *request.Request
	pool    *transfer.Pool
	handle  *transfer.Handle
	httpReq *http.Request

	start time.Time

	mu               sync.Mutex
	prepared         bool
	completionCalled bool
}

// New returns an Executor for req. req must not be reused across more
// than one Executor.
func New(req *request.Request) *Executor {
	return &Executor{req: req}
}

// Request returns the Executor's underlying request.
func (e *Executor) Request() *request.Request {
	return e.req
}

// Prepare builds the *http.Request and acquires a transfer.Handle from
// pool, applying every per-request transport setting (TLS, proxy, host
// overrides, happy-eyeballs delay, redirect policy). Prepare is a no-op
// if already called.
func (e *Executor) Prepare(pool *transfer.Pool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prepared {
		return nil
	}
	e.prepared = true
	e.pool = pool
	e.handle = pool.Acquire()

	if err := e.prepareLocked(); err != nil {
		pool.Release(e.handle)
		e.handle = nil
		return err
	}
	return nil
}

func (e *Executor) prepareLocked() error {
	body, contentType, err := e.buildBody()
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(e.req.Method, e.req.URL.String(), body)
	if err != nil {
		return err
	}
	httpReq.Header = e.req.Header.Clone()
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if len(e.req.AcceptEncodings) > 0 && httpReq.Header.Get("Accept-Encoding") == "" {
		httpReq.Header.Set("Accept-Encoding", joinCommas(e.req.AcceptEncodings))
	}

	if err := e.configureTransport(); err != nil {
		return err
	}
	e.configureRedirects()

	e.httpReq = httpReq
	return nil
}

func joinCommas(ss []string) string {
	out := ss[0]
	for _, s := range ss[1:] {
		out += ", " + s
	}
	return out
}

func (e *Executor) buildBody() (io.Reader, string, error) {
	if b := e.req.Body(); b != nil {
		return bytes.NewReader(b), "", nil
	}
	fields := e.req.MimeFields()
	if fields == nil {
		return nil, "", nil
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range fields {
		if f.IsFile() {
			fh, err := os.Open(f.FilePath)
			if err != nil {
				return nil, "", fmt.Errorf("curlmux/executor: opening mime field file: %w", err)
			}
			name := f.FileName
			if name == "" {
				name = filepath.Base(f.FilePath)
			}
			part, err := createMimePart(w, f.Name, name, f.ContentType)
			if err != nil {
				fh.Close()
				return nil, "", err
			}
			if _, err := io.Copy(part, fh); err != nil {
				fh.Close()
				return nil, "", err
			}
			fh.Close()
		} else if f.ContentType != "" {
			part, err := createMimePart(w, f.Name, "", f.ContentType)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write([]byte(f.Value)); err != nil {
				return nil, "", err
			}
		} else {
			if err := w.WriteField(f.Name, f.Value); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// createMimePart creates a multipart part for field named name, honoring
// an explicit contentType instead of the fixed default
// multipart.Writer.CreateFormFile would apply. An empty contentType
// falls back to that same default, application/octet-stream. If
// filename is non-empty the part is a file attachment, otherwise a
// plain value field.
func createMimePart(w *multipart.Writer, name, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	var disposition string
	if filename != "" {
		disposition = fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(name), escapeQuotes(filename))
	} else {
		disposition = fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name))
	}
	h.Set("Content-Disposition", disposition)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (e *Executor) configureTransport() error {
	tr := e.handle.Transport

	dialer := &net.Dialer{FallbackDelay: e.req.HappyEyeballsTimeout}
	if len(e.req.HostOverrides) > 0 {
		tr.DialContext = e.req.HostOverrides.DialContext(dialer)
	} else {
		tr.DialContext = dialer.DialContext
	}

	tlsCfg := &tls.Config{
		InsecureSkipVerify: !e.req.VerifySSLPeer,
	}
	if e.req.VerifySSLPeer && !e.req.VerifySSLHost {
		// A peer cert must still chain to a trusted root, but the
		// hostname match is skipped by verifying manually without
		// x509.VerifyOptions.DNSName.
		tlsCfg.InsecureSkipVerify = true
		tlsCfg.VerifyPeerCertificate = verifyChainOnly
	}
	if e.req.ClientCert != nil {
		cert, err := loadClientCert(e.req.ClientCert)
		if err != nil {
			return fmt.Errorf("curlmux/executor: loading client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	tr.TLSClientConfig = tlsCfg

	if e.req.Proxy != nil {
		proxyURL := e.req.Proxy.URL
		if e.req.Proxy.Username != "" {
			// The transport sends credentials carried in the proxy URL as
			// a Basic Proxy-Authorization header, both on CONNECT and on
			// requests forwarded through a plain HTTP proxy.
			withAuth := *proxyURL
			withAuth.User = url.UserPassword(e.req.Proxy.Username, e.req.Proxy.Password)
			proxyURL = &withAuth
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	} else {
		tr.Proxy = http.ProxyFromEnvironment
	}

	if e.req.Version == "HTTP/1.1" {
		tr.ForceAttemptHTTP2 = false
	} else {
		tr.ForceAttemptHTTP2 = true
	}

	return nil
}

func basicAuth(user, pass string) string {
	auth := user + ":" + pass
	return "Basic " + base64Std(auth)
}

func (e *Executor) configureRedirects() {
	if !e.req.FollowRedirects {
		e.handle.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return
	}
	max := e.req.MaxRedirects
	if max < 0 {
		// A nil CheckRedirect would fall back to net/http's default
		// limit of 10, so unlimited needs an explicit always-allow.
		e.handle.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return nil
		}
		return
	}
	e.handle.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("curlmux/executor: stopped after %d redirects", max)
		}
		return nil
	}
}

func loadClientCert(cc *request.ClientCert) (tls.Certificate, error) {
	switch cc.Type {
	case request.CertPKCS12:
		data, err := os.ReadFile(cc.CertFile)
		if err != nil {
			return tls.Certificate{}, err
		}
		key, cert, err := pkcs12.Decode(data, cc.Password)
		if err != nil {
			return tls.Certificate{}, err
		}
		return tls.Certificate{Certificate: [][]byte{cert.Raw}, PrivateKey: key}, nil
	default:
		if cc.Password != "" {
			// Encrypted PEM keys are not supported by tls.LoadX509KeyPair
			// directly; callers needing an encrypted PEM key should
			// decrypt it themselves and use CertPKCS12 or an
			// unencrypted KeyFile instead.
			log.Printf("curlmux/executor: ignoring Password for a PEM client certificate; it only applies to CertPKCS12")
		}
		return tls.LoadX509KeyPair(cc.CertFile, cc.KeyFile)
	}
}

func verifyChainOnly(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	certs := make([]*x509.Certificate, len(rawCerts))
	for i, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return err
		}
		certs[i] = cert
	}
	if len(certs) == 0 {
		return nil
	}
	pool := x509.NewCertPool()
	for _, cert := range certs[1:] {
		pool.AddCert(cert)
	}
	_, err := certs[0].Verify(x509.VerifyOptions{Intermediates: pool})
	return err
}

// PerformSync runs the prepared request to completion on the calling
// goroutine and always returns a non-nil Response, recording ctx's
// cancellation or any transport failure in Response.Status rather than
// returning an error.
//
// Prepare must have been called first.
func (e *Executor) PerformSync(ctx context.Context) *request.Response {
	defer e.pool.Release(e.handle)

	resp := &request.Response{}
	httpReq := e.httpReq.WithContext(ctx)

	if e.req.OnProgress != nil && httpReq.Body != nil {
		httpReq.Body = &progressReader{
			inner:   httpReq.Body,
			total:   contentLength(httpReq),
			onEvent: e.req.OnProgress,
		}
	}

	httpResp, err := e.handle.Client.Do(httpReq)
	if err != nil {
		resp.Status = status.FromError(err)
		resp.Total = time.Since(e.start)
		return resp
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode
	resp.StatusLine = httpResp.Status
	resp.Header = httpResp.Header

	body, err := readBody(httpResp, e.req.OnProgress)
	if err != nil {
		var cee *contentEncodingError
		if errors.As(err, &cee) {
			resp.Status = status.ContentEncodingError
		} else {
			resp.Status = status.FromError(err)
		}
		resp.Total = time.Since(e.start)
		return resp
	}
	resp.Body = body
	resp.Status = status.Success
	resp.Total = time.Since(e.start)
	return resp
}

func contentLength(r *http.Request) int64 {
	if r.ContentLength > 0 {
		return r.ContentLength
	}
	return -1
}

func readBody(resp *http.Response, onProgress request.ProgressHandler) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	reader, err := decodingReader(resp)
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		total := resp.ContentLength
		var read int64
		countingReader := &progressWriterReader{inner: reader, onEvent: func(n int) bool {
			read += int64(n)
			return onProgress(total, read, 0, 0)
		}}
		if _, err := io.Copy(buf, countingReader); err != nil {
			return nil, err
		}
	} else if _, err := io.Copy(buf, reader); err != nil {
		return nil, err
	}

	if buf.Len() == 0 {
		return nil, nil
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decodingReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &contentEncodingError{err: err}
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, &contentEncodingError{err: err}
		}
		return zr, nil
	case "", "identity":
		return resp.Body, nil
	default:
		return resp.Body, nil
	}
}

// contentEncodingError marks a failure decoding a response body
// according to its Content-Encoding header, so PerformSync can report
// status.ContentEncodingError instead of the less specific code
// status.FromError would otherwise assign.
type contentEncodingError struct{ err error }

func (e *contentEncodingError) Error() string { return "content encoding: " + e.err.Error() }
func (e *contentEncodingError) Unwrap() error { return e.err }

// FinalizeNormal marks the Executor complete and, if it has not already
// been completed by FinalizeTimesup, invokes the request's OnComplete
// callback with resp. It is safe to call more than once; only the first
// finalization, by either FinalizeNormal or FinalizeTimesup, invokes
// OnComplete.
func (e *Executor) FinalizeNormal(resp *request.Response) {
	e.mu.Lock()
	already := e.completionCalled
	e.completionCalled = true
	e.mu.Unlock()

	if already {
		return
	}
	if e.req.OnComplete != nil {
		e.req.OnComplete(e.req, resp)
	}
}

// FinalizeTimesup marks the Executor complete because its wall-clock
// deadline elapsed and invokes OnComplete with a Timesup Response, whose
// Body is replaced by a synthetic marker since the real response body,
// if the transfer produces one at all, will arrive after this call has
// already handed the caller a result. The underlying HTTP round trip
// started by PerformSync, if any, is not cancelled; it runs to
// completion in the background and its eventual outcome is discarded by
// FinalizeNormal's already-completed guard, matching the original
// library's behavior of not aborting the transfer early just because the
// caller stopped waiting for it.
func (e *Executor) FinalizeTimesup() *request.Response {
	resp := &request.Response{
		Status: status.Timesup,
		Total:  e.req.Timesup,
		Body:   []byte(fmt.Sprintf("timed out after %d ms", e.req.Timesup.Milliseconds())),
	}
	e.mu.Lock()
	already := e.completionCalled
	e.completionCalled = true
	e.mu.Unlock()

	if !already && e.req.OnComplete != nil {
		e.req.OnComplete(e.req, resp)
	}
	return resp
}

// Abandon releases a prepared Executor's pool handle without ever
// running the request, for a caller that decided, after a successful
// Prepare, not to dispatch the Executor after all — for example, a
// Submit that lost a race with EventLoop shutdown. It is a no-op if
// Prepare was never called or already failed.
func (e *Executor) Abandon() {
	e.mu.Lock()
	h := e.handle
	e.handle = nil
	e.mu.Unlock()
	if h != nil {
		e.pool.Release(h)
	}
}

// SetStart records t as the moment the attempt began, for Response.Total
// accounting. It must be called before PerformSync.
func (e *Executor) SetStart(t time.Time) {
	e.start = t
}
