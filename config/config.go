// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads the settings an EventLoop needs at construction
// time from YAML, the same way the rest of this library's ecosystem
// favors a real parsing library over hand-rolled flag or env parsing.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/gophercurl/curlmux/request"
)

// A Config configures an EventLoop's resource limits and default
// per-request behavior.
type Config struct {
	// ReserveConnections is the number of transfer handles to warm on
	// construction. Defaults to 0.
	ReserveConnections int `yaml:"reserve_connections"`

	// MaxConnections bounds the number of concurrently in-flight
	// requests. Zero or negative means unlimited.
	MaxConnections int `yaml:"max_connections"`

	// HostOverrides applies to every request the EventLoop handles, in
	// addition to any overrides set on the individual request.
	HostOverrides request.HostOverrideList `yaml:"host_overrides"`

	// DefaultTimeout is applied to a request's Timeout field when the
	// request does not set one itself. Zero means no default.
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// DefaultTimesup is applied to a request's Timesup field when the
	// request does not set one itself. Zero means no default.
	DefaultTimesup time.Duration `yaml:"default_timesup"`
}

// Default returns a Config with reasonable out-of-the-box limits: eight
// reserved connections and sixty-four maximum concurrent requests.
func Default() Config {
	return Config{
		ReserveConnections: 8,
		MaxConnections:     64,
	}
}

// Load reads and parses a YAML Config from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults sets req.Timeout and req.Timesup from c's defaults if
// they are currently zero on req.
func (c Config) ApplyDefaults(req *request.Request) {
	if req.Timeout == 0 {
		req.Timeout = c.DefaultTimeout
	}
	if req.Timesup == 0 {
		req.Timesup = c.DefaultTimesup
	}
}
