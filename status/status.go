// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package status defines the canonical, total mapping from the outcome
// of a transfer attempt to a library-level status code. Every terminal
// condition an executor can reach maps to exactly one Code.
package status

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// A Code is the library-level terminal status of a request attempt.
//
// Code is reported on request.Response.Status. It never appears as a Go
// error value; the underlying error, if any, is available separately
// during FromError for logging purposes only.
type Code int

const (
	// Unknown is returned when an error cannot be categorized into any
	// more specific code. It is also the zero value, so a Response that
	// was never finalized reports Unknown rather than a false Success.
	Unknown Code = iota
	// Success indicates the attempt completed and a response was read
	// without error, regardless of HTTP status code.
	Success
	// ConnectError indicates failure to establish the TCP connection,
	// or a connection refused, reset, or unreachable errno anywhere in
	// the error chain.
	ConnectError
	// DNSError indicates failure to resolve the request host.
	DNSError
	// SSLConnectError indicates a failure during the TLS handshake other
	// than certificate verification (protocol mismatch, record errors).
	SSLConnectError
	// SSLCertError indicates the peer certificate failed verification.
	SSLCertError
	// Timeout indicates the individual transport attempt exceeded its
	// per-attempt deadline (request.Request.Timeout).
	Timeout
	// Timesup indicates the total wall-clock deadline
	// (request.Request.Timesup) elapsed before the attempt finished.
	Timesup
	// SendError indicates the request could not be dispatched at all,
	// for example because the transfer engine rejected it outright.
	SendError
	// RecvError indicates a network operation other than dial failed
	// (a *net.OpError whose Op is not "dial"), for example a read that
	// could not complete. A connection reset reports ConnectError.
	RecvError
	// RequestAborted indicates the progress callback returned false.
	RequestAborted
	// DownloadError indicates a failure specific to reading or
	// buffering the response body after headers were received.
	DownloadError
	// ContentEncodingError indicates the response body could not be
	// decoded according to its Content-Encoding header.
	ContentEncodingError
)

var names = map[Code]string{
	Unknown:              "UNKNOWN",
	Success:              "SUCCESS",
	ConnectError:         "CONNECT_ERROR",
	DNSError:             "DNS_ERROR",
	SSLConnectError:      "SSL_CONNECT_ERROR",
	SSLCertError:         "SSL_CERT_ERROR",
	Timeout:              "TIMEOUT",
	Timesup:              "TIMESUP",
	SendError:            "SEND_ERROR",
	RecvError:            "RECV_ERROR",
	RequestAborted:       "REQUEST_ABORTED",
	DownloadError:        "DOWNLOAD_ERROR",
	ContentEncodingError: "CONTENT_ENCODING_ERROR",
}

// String returns the canonical upper-snake-case name of the code.
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// ErrAborted is the sentinel error a progress callback's abort request is
// wrapped in before it reaches FromError. Transfer engines that support
// aborting an in-flight transfer (see transfer.Engine) should make sure
// the error they hand back on an aborted transfer wraps ErrAborted, for
// example via fmt.Errorf("progress: %w", status.ErrAborted).
var ErrAborted = errors.New("curlmux/status: request aborted by progress callback")

type hasTimeout interface {
	Timeout() bool
}

// FromError categorizes a transport-level error into a status Code.
//
// A nil error categorizes as Success. FromError inspects the wrapped
// error chain (via errors.As/errors.Is), the same way the teacher
// repo's transient.Categorize inspects net.Error and syscall.Errno, but
// extended to distinguish DNS, TLS handshake, and TLS verification
// failures, since those distinctions are part of this library's status
// taxonomy where the teacher's was not.
func FromError(err error) Code {
	if err == nil {
		return Success
	}
	if errors.Is(err, ErrAborted) {
		return RequestAborted
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNSError
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return SSLCertError
	}
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return SSLCertError
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return SSLCertError
	}
	var certInvalidErr x509.CertificateInvalidError
	if errors.As(err, &certInvalidErr) {
		return SSLCertError
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return SSLConnectError
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return SSLConnectError
	}

	var timeoutErr hasTimeout
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return ConnectError
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return ConnectError
		}
		return RecvError
	}

	return Unknown
}
