// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net"
)

// A HostOverride resolves a specific host:port pair to a fixed address,
// bypassing DNS. This is the equivalent of the "resolve hosts" feature
// found in libcurl-based clients (CURLOPT_RESOLVE): useful for pinning
// a request to a specific IP during testing, or for talking to a
// service by name before its DNS record exists.
type HostOverride struct {
	// Host is the request hostname to match, without a port.
	Host string
	// Port is the request port to match.
	Port string
	// Addr is the address (host or host:port) to dial instead.
	Addr string
}

// A HostOverrideList is a set of HostOverride entries applied to a
// single Request or shared, via EventLoop's configuration, across every
// request an EventLoop handles.
type HostOverrideList []HostOverride

// resolve returns the override address for addr ("host:port"), or addr
// unchanged if no override matches.
func (l HostOverrideList) resolve(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	for _, o := range l {
		if o.Host == host && o.Port == port {
			if _, _, err := net.SplitHostPort(o.Addr); err != nil {
				return net.JoinHostPort(o.Addr, port)
			}
			return o.Addr
		}
	}
	return addr
}

// DialContext returns a dial function suitable for
// http.Transport.DialContext that applies the host overrides in l
// before delegating to dialer.
func (l HostOverrideList) DialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, l.resolve(addr))
	}
}
