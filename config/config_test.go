// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophercurl/curlmux/request"
)

const testYAML = `
reserve_connections: 4
max_connections: 16
default_timeout: 5s
default_timesup: 30s
host_overrides:
  - host: api.example.com
    port: "443"
    addr: 10.0.0.1:443
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curlmux.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.ReserveConnections)
	assert.Equal(t, 16, cfg.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.DefaultTimeout)
	assert.Equal(t, 30*time.Second, cfg.DefaultTimesup)
	require.Len(t, cfg.HostOverrides, 1)
	assert.Equal(t, "api.example.com", cfg.HostOverrides[0].Host)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/curlmux.yaml")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8, cfg.ReserveConnections)
	assert.Equal(t, 64, cfg.MaxConnections)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{DefaultTimeout: time.Second, DefaultTimesup: 2 * time.Second}
	req, err := request.New("", "https://example.com")
	require.NoError(t, err)

	cfg.ApplyDefaults(req)
	assert.Equal(t, time.Second, req.Timeout)
	assert.Equal(t, 2*time.Second, req.Timesup)

	req.Timeout = 500 * time.Millisecond
	cfg.ApplyDefaults(req)
	assert.Equal(t, 500*time.Millisecond, req.Timeout, "ApplyDefaults must not override an explicit value")
}
