package store

import (
	"sort"

	"github.com/wirekv/wirekv/internal/frame"
)

// Store holds the three independent collections described by the wire
// protocol: a flat string map, a string-keyed hash of hashes, and a
// string-keyed hash of sets. A key may simultaneously name an entry in
// all three; each operation only ever consults its own collection.
type Store struct {
	kv   [shardCount]*kvShard
	hmap [shardCount]*hashShard
	sets [shardCount]*setShard
}

// New returns an empty Store, ready to be shared across connection
// goroutines via a single pointer.
func New() *Store {
	s := &Store{}
	for i := range s.kv {
		s.kv[i] = &kvShard{data: make(map[string]frame.Frame)}
	}
	for i := range s.hmap {
		s.hmap[i] = &hashShard{data: make(map[string]*hashEntry)}
	}
	for i := range s.sets {
		s.sets[i] = &setShard{data: make(map[string]*setEntry)}
	}
	return s
}

func (s *Store) kvShardFor(key string) *kvShard     { return s.kv[shardFor(key)] }
func (s *Store) hashShardFor(key string) *hashShard { return s.hmap[shardFor(key)] }
func (s *Store) setShardFor(key string) *setShard   { return s.sets[shardFor(key)] }

// Get returns a clone of the value stored under key, or false if absent.
func (s *Store) Get(key string) (frame.Frame, bool) {
	sh := s.kvShardFor(key)
	sh.lock.RLock()
	defer sh.lock.RUnlock()
	v, ok := sh.data[key]
	if !ok {
		return frame.Frame{}, false
	}
	return v.Clone(), true
}

// Set unconditionally stores value under key, overwriting any prior
// value. The store keeps its own clone so later mutation of value by the
// caller cannot be observed.
func (s *Store) Set(key string, value frame.Frame) {
	sh := s.kvShardFor(key)
	sh.lock.Lock()
	defer sh.lock.Unlock()
	sh.data[key] = value.Clone()
}

// Del removes key from the flat map and reports whether it was present.
func (s *Store) Del(key string) bool {
	sh := s.kvShardFor(key)
	sh.lock.Lock()
	defer sh.lock.Unlock()
	_, ok := sh.data[key]
	delete(sh.data, key)
	return ok
}

// HGet returns a clone of field's value within key's hash, or false if
// either the outer key or the field is absent.
func (s *Store) HGet(key, field string) (frame.Frame, bool) {
	e, ok := s.hashShardFor(key).find(key)
	if !ok {
		return frame.Frame{}, false
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	v, ok := e.data[field]
	if !ok {
		return frame.Frame{}, false
	}
	return v.Clone(), true
}

// HSet creates the inner hash for key on first write, then inserts or
// overwrites field.
func (s *Store) HSet(key, field string, value frame.Frame) {
	e := s.hashShardFor(key).findOrCreate(key)
	e.lock.Lock()
	defer e.lock.Unlock()
	e.data[field] = value.Clone()
}

// HDel removes field from key's hash and reports whether it was present.
// Removing the last field does not delete the outer key binding (per
// store invariant 3): a later HGetAll on the same key still returns an
// empty, not absent, snapshot.
func (s *Store) HDel(key, field string) bool {
	e, ok := s.hashShardFor(key).find(key)
	if !ok {
		return false
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	_, ok = e.data[field]
	delete(e.data, field)
	return ok
}

// HashPair is one field/value entry of a snapshot returned by HGetAll.
type HashPair struct {
	Field string
	Value frame.Frame
}

// HGetAll returns a point-in-time snapshot of key's inner hash, or false
// if the outer key has never been written. When sorted is true, pairs are
// ordered by field name ascending; the wire-reachable HGETALL command
// always passes sorted=false (see internal/command), leaving the sorted
// path reachable only from tests and the debug admin endpoint.
func (s *Store) HGetAll(key string, sorted bool) ([]HashPair, bool) {
	e, ok := s.hashShardFor(key).find(key)
	if !ok {
		return nil, false
	}
	e.lock.RLock()
	pairs := make([]HashPair, 0, len(e.data))
	for f, v := range e.data {
		pairs = append(pairs, HashPair{Field: f, Value: v.Clone()})
	}
	e.lock.RUnlock()

	if sorted {
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Field < pairs[j].Field })
	}
	return pairs, true
}

// HKeys returns a snapshot of key's field names, or false if absent.
func (s *Store) HKeys(key string) ([]string, bool) {
	e, ok := s.hashShardFor(key).find(key)
	if !ok {
		return nil, false
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	keys := make([]string, 0, len(e.data))
	for f := range e.data {
		keys = append(keys, f)
	}
	return keys, true
}

// SAdd inserts member into key's set and reports whether it was newly
// added (false if an equal member was already present).
func (s *Store) SAdd(key string, member frame.Frame) bool {
	e := s.setShardFor(key).findOrCreate(key)
	h := member.Hash()

	e.lock.Lock()
	defer e.lock.Unlock()
	bucket := e.buckets[h]
	for _, m := range bucket {
		if m.Equal(member) {
			return false
		}
	}
	e.buckets[h] = append(bucket, member.Clone())
	return true
}

// SRem removes member from key's set and reports whether it was present.
func (s *Store) SRem(key string, member frame.Frame) bool {
	e, ok := s.setShardFor(key).find(key)
	if !ok {
		return false
	}
	h := member.Hash()

	e.lock.Lock()
	defer e.lock.Unlock()
	bucket := e.buckets[h]
	for i, m := range bucket {
		if m.Equal(member) {
			e.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

// SIsMember reports whether member is present in key's set.
func (s *Store) SIsMember(key string, member frame.Frame) bool {
	e, ok := s.setShardFor(key).find(key)
	if !ok {
		return false
	}
	h := member.Hash()

	e.lock.RLock()
	defer e.lock.RUnlock()
	for _, m := range e.buckets[h] {
		if m.Equal(member) {
			return true
		}
	}
	return false
}

// SMembers returns a snapshot of key's set members, or false if absent.
func (s *Store) SMembers(key string) ([]frame.Frame, bool) {
	e, ok := s.setShardFor(key).find(key)
	if !ok {
		return nil, false
	}
	e.lock.RLock()
	defer e.lock.RUnlock()

	members := make([]frame.Frame, 0, len(e.buckets))
	for _, bucket := range e.buckets {
		for _, m := range bucket {
			members = append(members, m.Clone())
		}
	}
	return members, true
}
