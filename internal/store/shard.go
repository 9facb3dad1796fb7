// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store implements the process-lifetime shared state: three
// independent collections (flat string->Frame, string->(string->Frame),
// string->set-of-Frame) with fine-grained per-key concurrency.
//
// Concurrency is sharded rather than a single global mutex: each
// collection is split into a fixed number of shards selected by a hash of
// the key, mirroring the double-checked-locking find-or-create pattern
// cc-backend's internal/memorystore uses for its Level tree, generalized
// here from a hierarchical selector to a single flat key.
package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/wirekv/wirekv/internal/frame"
)

const shardCount = 32

func shardFor(key string) uint32 {
	return uint32(xxhash.Sum64String(key) % shardCount)
}

// kvShard guards one slice of the flat string->Frame collection.
type kvShard struct {
	lock sync.RWMutex
	data map[string]frame.Frame
}

// hashShard guards one slice of the string->(string->Frame) collection.
// Each entry owns its own lock so that two HSET calls against different
// outer keys in the same shard never block each other.
type hashShard struct {
	lock sync.RWMutex
	data map[string]*hashEntry
}

type hashEntry struct {
	lock sync.RWMutex
	data map[string]frame.Frame
}

// findOrCreate returns the *hashEntry for key, creating it if absent.
// Double-checked locking: an RLock first to serve the common case where
// the entry already exists, falling back to a Lock only on first write.
func (s *hashShard) findOrCreate(key string) *hashEntry {
	s.lock.RLock()
	e, ok := s.data[key]
	s.lock.RUnlock()
	if ok {
		return e
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if e, ok = s.data[key]; ok {
		return e
	}
	e = &hashEntry{data: make(map[string]frame.Frame)}
	s.data[key] = e
	return e
}

func (s *hashShard) find(key string) (*hashEntry, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.data[key]
	return e, ok
}

// setShard guards one slice of the string->set-of-Frame collection.
type setShard struct {
	lock sync.RWMutex
	data map[string]*setEntry
}

// setEntry stores members bucketed by Frame.Hash to support Frame
// equality that isn't Go's native `==` (Double needs bit-pattern
// semantics, Array/Map/Set members compare structurally).
type setEntry struct {
	lock    sync.RWMutex
	buckets map[uint64][]frame.Frame
}

func (s *setShard) findOrCreate(key string) *setEntry {
	s.lock.RLock()
	e, ok := s.data[key]
	s.lock.RUnlock()
	if ok {
		return e
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if e, ok = s.data[key]; ok {
		return e
	}
	e = &setEntry{buckets: make(map[uint64][]frame.Frame)}
	s.data[key] = e
	return e
}

func (s *setShard) find(key string) (*setEntry, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.data[key]
	return e, ok
}
