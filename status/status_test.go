// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package status

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError_NilIsSuccess(t *testing.T) {
	assert.Equal(t, Success, FromError(nil))
}

func TestFromError_Unknown(t *testing.T) {
	assert.Equal(t, Unknown, FromError(errors.New("boom")))
	assert.Equal(t, Unknown, FromError(wrapper{errors.New("boom")}))
}

func TestFromError_Aborted(t *testing.T) {
	assert.Equal(t, RequestAborted, FromError(ErrAborted))
	assert.Equal(t, RequestAborted, FromError(fmt.Errorf("progress: %w", ErrAborted)))
}

func TestFromError_DNS(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "example.invalid"}
	assert.Equal(t, DNSError, FromError(err))
	assert.Equal(t, DNSError, FromError(wrapper{err}))
}

func TestFromError_Timeout(t *testing.T) {
	assert.Equal(t, Timeout, FromError(timeoutErr{}))
	assert.Equal(t, Timeout, FromError(wrapper{timeoutErr{}}))
}

func TestFromError_ConnectErrno(t *testing.T) {
	assert.Equal(t, ConnectError, FromError(syscall.ECONNREFUSED))
	assert.Equal(t, ConnectError, FromError(syscall.ECONNRESET))
	assert.Equal(t, ConnectError, FromError(wrapper{syscall.ECONNREFUSED}))
}

func TestFromError_DialOpError(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: errors.New("refused")}
	assert.Equal(t, ConnectError, FromError(err))
	readErr := &net.OpError{Op: "read", Err: errors.New("reset")}
	assert.Equal(t, RecvError, FromError(readErr))
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "SUCCESS", Success.String())
	assert.Equal(t, "TIMESUP", Timesup.String())
	assert.Equal(t, "UNKNOWN", Code(999).String())
}

type wrapper struct {
	wrapped error
}

func (w wrapper) Error() string { return fmt.Sprintf("wrapper: %v", w.wrapped) }
func (w wrapper) Unwrap() error { return w.wrapped }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
