// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToGet(t *testing.T) {
	r, err := New("", "https://example.com/foo")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, r.Method)
	assert.True(t, r.FollowRedirects)
	assert.Equal(t, -1, r.MaxRedirects)
	assert.True(t, r.VerifySSLPeer)
	assert.True(t, r.VerifySSLHost)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("GET", "://bad")
	assert.Error(t, err)
}

func TestSetBody_SwitchesToPost(t *testing.T) {
	r, err := New("", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, r.SetBody([]byte("hello")))
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, []byte("hello"), r.Body())
}

func TestSetBodyValue_AcceptsReader(t *testing.T) {
	r, err := New("", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, r.SetBodyValue(strings.NewReader("hello")))
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, []byte("hello"), r.Body())
}

func TestSetBodyValue_RejectsUnsupportedType(t *testing.T) {
	r, err := New("", "https://example.com")
	require.NoError(t, err)
	assert.Error(t, r.SetBodyValue(10))
}

func TestAddMimeField_SwitchesToPost(t *testing.T) {
	r, err := New("", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, r.AddMimeField(NewMimeField("a", "1")))
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Len(t, r.MimeFields(), 1)
}

func TestSetBody_AfterMimeField_Conflicts(t *testing.T) {
	r, err := New("GET", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, r.AddMimeField(NewMimeField("a", "1")))

	err = r.SetBody([]byte("x"))
	assert.ErrorIs(t, err, ErrConfigurationConflict)
	assert.Nil(t, r.Body())
	assert.Len(t, r.MimeFields(), 1)
}

func TestAddMimeField_AfterSetBody_Conflicts(t *testing.T) {
	r, err := New("GET", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, r.SetBody([]byte("x")))

	err = r.AddMimeField(NewMimeField("a", "1"))
	assert.ErrorIs(t, err, ErrConfigurationConflict)
	assert.Nil(t, r.MimeFields())
	assert.Equal(t, []byte("x"), r.Body())
}
