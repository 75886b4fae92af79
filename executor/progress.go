// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package executor

import (
	"encoding/base64"
	"io"

	"github.com/gophercurl/curlmux/request"
	"github.com/gophercurl/curlmux/status"
)

func base64Std(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// progressReader wraps an outgoing request body, reporting upload
// progress through onEvent and aborting the read with status.ErrAborted
// if onEvent returns false.
type progressReader struct {
	inner   io.ReadCloser
	total   int64
	sent    int64
	onEvent request.ProgressHandler
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.inner.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if !p.onEvent(0, 0, p.total, p.sent) {
			return n, status.ErrAborted
		}
	}
	return n, err
}

func (p *progressReader) Close() error {
	return p.inner.Close()
}

// progressWriterReader wraps an incoming response body reader, invoking
// onEvent with the number of bytes read on each successful Read and
// aborting the read with status.ErrAborted if onEvent returns false.
type progressWriterReader struct {
	inner   io.Reader
	onEvent func(n int) bool
}

func (p *progressWriterReader) Read(b []byte) (int, error) {
	n, err := p.inner.Read(b)
	if n > 0 && !p.onEvent(n) {
		return n, status.ErrAborted
	}
	return n, err
}
