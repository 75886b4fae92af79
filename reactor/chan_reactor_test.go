// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanReactor_RegisterNotifyWait(t *testing.T) {
	r := NewChanReactor(4)
	require.NoError(t, r.Register(1, 100))

	done := make(chan error, 1)
	go func() { done <- r.Notify(1) }()

	events := make([]Event, 1)
	n, err := r.Wait(events)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uintptr(1), events[0].ID)
	assert.Equal(t, uintptr(100), events[0].UserData)

	require.NoError(t, <-done)
}

func TestChanReactor_WaitDrainsMultipleWithoutBlocking(t *testing.T) {
	r := NewChanReactor(4)
	require.NoError(t, r.Register(1, 10))
	require.NoError(t, r.Register(2, 20))
	require.NoError(t, r.Notify(1))
	require.NoError(t, r.Notify(2))

	events := make([]Event, 4)
	n, err := r.Wait(events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChanReactor_DeregisterClearsUserData(t *testing.T) {
	r := NewChanReactor(4)
	require.NoError(t, r.Register(1, 100))
	r.Deregister(1)
	require.NoError(t, r.Notify(1))

	events := make([]Event, 1)
	n, err := r.Wait(events)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uintptr(0), events[0].UserData)
}

func TestChanReactor_CloseUnblocksWait(t *testing.T) {
	r := NewChanReactor(4)
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Wait(make([]Event, 1))
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, r.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Close")
	}
}

func TestChanReactor_NotifyAfterCloseFails(t *testing.T) {
	r := NewChanReactor(4)
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Notify(1), ErrClosed)
}

func TestChanReactor_RegisterAfterCloseFails(t *testing.T) {
	r := NewChanReactor(4)
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Register(1, 1), ErrClosed)
}
