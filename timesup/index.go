// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timesup implements the ordered deadline index that drives the
// event loop's wall-clock ("timesup") timer.
//
// Index is deliberately loop-thread-private: none of its methods are
// safe for concurrent use, matching the rest of the event loop's
// single-goroutine-owns-this-state design.
package timesup

import (
	"container/list"
	"time"
)

// A Token is an opaque handle to a live entry in an Index. It is issued
// by Insert and consumed by Remove.
//
// A Token is stable across insertions and removals of other entries,
// including entries sharing the same deadline, unlike a raw iterator or
// pointer into an ordered container, which the distilled specification
// this package implements explicitly warns against relying on.
type Token struct {
	id uint64
}

// Valid reports whether the token was ever issued by an Index. It does
// not report whether the token's entry is still present.
func (t Token) Valid() bool {
	return t.id != 0
}

type entry struct {
	id       uint64
	deadline time.Time
	value    interface{}
}

// An Index is an ordered multiset mapping absolute deadlines to
// arbitrary values (in practice, the event loop's int64 transfer
// tokens). Duplicate deadlines are permitted.
type Index struct {
	order  *list.List // *entry, ascending by deadline
	byID   map[uint64]*list.Element
	nextID uint64
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		order: list.New(),
		byID:  make(map[uint64]*list.Element),
	}
}

// Len returns the number of live entries.
func (idx *Index) Len() int {
	return len(idx.byID)
}

// Insert adds value with the given absolute deadline and returns a
// Token identifying the new entry.
func (idx *Index) Insert(deadline time.Time, value interface{}) Token {
	idx.nextID++
	e := &entry{id: idx.nextID, deadline: deadline, value: value}

	// Find the first element whose deadline is after e's, preserving
	// ascending order; ties are broken by insertion order (FIFO).
	var elem *list.Element
	for cur := idx.order.Front(); cur != nil; cur = cur.Next() {
		if cur.Value.(*entry).deadline.After(deadline) {
			elem = idx.order.InsertBefore(e, cur)
			break
		}
	}
	if elem == nil {
		elem = idx.order.PushBack(e)
	}
	idx.byID[e.id] = elem
	return Token{id: e.id}
}

// Remove deletes the entry identified by tok, if it is still present.
// Removing an already-removed or zero Token is a no-op.
func (idx *Index) Remove(tok Token) {
	if !tok.Valid() {
		return
	}
	elem, ok := idx.byID[tok.id]
	if !ok {
		return
	}
	idx.order.Remove(elem)
	delete(idx.byID, tok.id)
}

// Earliest returns the deadline and value of the entry with the
// smallest deadline, and true, or the zero Time, nil, and false if the
// index is empty.
func (idx *Index) Earliest() (time.Time, interface{}, bool) {
	front := idx.order.Front()
	if front == nil {
		return time.Time{}, nil, false
	}
	e := front.Value.(*entry)
	return e.deadline, e.value, true
}

// ExpireDue removes every entry whose deadline is at or before now, in
// ascending deadline order, invoking visit with each entry's value
// before removing it.
//
// ExpireDue is safe to call from within visit for a different value
// than the one currently being visited (for example, visit may complete
// an executor that later gets resubmitted), because ExpireDue always
// re-reads the front of the list rather than holding a stale iterator.
func (idx *Index) ExpireDue(now time.Time, visit func(value interface{})) {
	for {
		front := idx.order.Front()
		if front == nil {
			return
		}
		e := front.Value.(*entry)
		if e.deadline.After(now) {
			return
		}
		visit(e.value)
		idx.order.Remove(front)
		delete(idx.byID, e.id)
	}
}
