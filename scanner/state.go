// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scanner

import (
	"slices"
	"sync"

	"github.com/blinklabs-io/zklicense/ledger"
)

// State holds the owned entries found by scanning: a set of the hashes of queued entries
// and the queue itself. Taking an entry forgets its hash. State has a single writer; the
// mutex only makes the read accessors safe to call concurrently
type State[T Entry] struct {
	mutex  sync.RWMutex
	hashes map[ledger.Blake2b256]struct{}
	queue  []T
}

func NewState[T Entry]() *State[T] {
	return &State[T]{
		hashes: make(map[ledger.Blake2b256]struct{}),
	}
}

// Insert adds an entry. It returns false if an entry with the same hash was seen before
func (s *State[T]) Insert(entry T) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	hash := entry.Hash()
	if _, ok := s.hashes[hash]; ok {
		return false
	}
	s.hashes[hash] = struct{}{}
	s.queue = append(s.queue, entry)
	return true
}

// Contains reports whether an entry with the hash is queued
func (s *State[T]) Contains(hash ledger.Blake2b256) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.hashes[hash]
	return ok
}

// Take removes the queued entry with the hash
func (s *State[T]) Take(hash ledger.Blake2b256) (T, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i, entry := range s.queue {
		if entry.Hash() == hash {
			s.queue = slices.Delete(s.queue, i, i+1)
			delete(s.hashes, hash)
			return entry, true
		}
	}
	var zero T
	return zero, false
}

// Pop removes the most recently inserted queued entry
func (s *State[T]) Pop() (T, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	ret := s.queue[len(s.queue)-1]
	s.queue[len(s.queue)-1] = zero
	s.queue = s.queue[:len(s.queue)-1]
	delete(s.hashes, ret.Hash())
	return ret, true
}

// Find returns the queued entry with the hash without removing it
func (s *State[T]) Find(hash ledger.Blake2b256) (T, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, entry := range s.queue {
		if entry.Hash() == hash {
			return entry, true
		}
	}
	var zero T
	return zero, false
}

// Last returns the most recently inserted queued entry without removing it
func (s *State[T]) Last() (T, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if len(s.queue) == 0 {
		var zero T
		return zero, false
	}
	return s.queue[len(s.queue)-1], true
}

// Len returns the number of queued entries
func (s *State[T]) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.queue)
}

// Entries returns the queued entries in insertion order
func (s *State[T]) Entries() []T {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Clone(s.queue)
}

// Restore puts a previously taken entry back on the queue
func (s *State[T]) Restore(entry T) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	hash := entry.Hash()
	if _, ok := s.hashes[hash]; ok {
		return
	}
	s.hashes[hash] = struct{}{}
	s.queue = append(s.queue, entry)
}
