// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package reactor supplies the event-loop's readiness-multiplexing
// abstraction and its channel-based default implementation.
//
// A libcurl-based event loop drives a raw poller (epoll, kqueue, IOCP)
// through CURL_POLL_IN/OUT/INOUT/REMOVE actions keyed by a private-data
// pointer stashed on the socket. Go's net/http already owns the sockets
// for every in-flight transfer and reports readiness to its own runtime
// poller internally, so this package's Reactor does not multiplex file
// descriptors at all; instead it multiplexes transfer *completions*,
// giving the event loop the same "register a handle, later be told it's
// ready" shape without reimplementing what the runtime already does.
package reactor

// An Event reports that the transfer identified by UserData has
// finished and is ready to be finalized.
type Event struct {
	// ID is the identifier the caller passed to Register.
	ID uintptr
	// UserData is the opaque value the caller associated with ID.
	UserData uintptr
}

// A Reactor multiplexes readiness notifications for registered
// identifiers. Register associates an identifier with an opaque value;
// Wait blocks until at least one registered identifier is ready (or the
// Reactor is closed) and reports as many ready Events as fit in the
// supplied slice.
type Reactor interface {
	// Register associates id with userData so a later readiness
	// notification for id can be resolved back to userData by Wait.
	Register(id uintptr, userData uintptr) error

	// Deregister removes id's association, if present. It does not
	// cancel any readiness notification already queued for id.
	Deregister(id uintptr)

	// Wait blocks until at least one Event is available, the Reactor is
	// closed, or n Events have been written into events, whichever
	// comes first. It returns the number of Events written.
	Wait(events []Event) (int, error)

	// Notify enqueues a readiness notification for id. It is the
	// producer-side counterpart to Wait, called by whatever completes
	// the work registered under id (in curlmux, a transfer.Engine
	// goroutine).
	Notify(id uintptr) error

	// Close unblocks any Wait in progress and cleans up the Reactor's
	// resources. A Reactor is not usable after Close.
	Close() error
}
