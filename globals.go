// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"fmt"
	"sync"
)

// GlobalStore holds workflow-level values shared by every resolution context
// in a run
//
// Values are either seeded before the workflow starts or computed at most once
// via GetOrCompute, concurrent readers always observe the same completed value.
type GlobalStore struct {
	mu      sync.Mutex
	entries map[string]*globalEntry
}

type globalEntry struct {
	once sync.Once
	done bool
	val  any
	err  error
}

// NewGlobalStore creates an empty store
func NewGlobalStore() *GlobalStore {
	return &GlobalStore{entries: map[string]*globalEntry{}}
}

// Set seeds a value before the workflow starts, re-seeding an existing key is
// an error
func (s *GlobalStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		return fmt.Errorf("global %q is already set", key)
	}

	entry := &globalEntry{done: true, val: value}
	entry.once.Do(func() {})
	s.entries[key] = entry
	return nil
}

// Get returns a completed value, in-flight computations do not count
func (s *GlobalStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !entry.done || entry.err != nil {
		return nil, false
	}
	return entry.val, true
}

// GetOrCompute returns the value for key, computing it at most once across
// all callers, concurrent callers block until the single computation finishes
func (s *GlobalStore) GetOrCompute(key string, compute func() (any, error)) (any, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &globalEntry{}
		s.entries[key] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.val, entry.err = compute()
		s.mu.Lock()
		entry.done = true
		s.mu.Unlock()
	})

	return entry.val, entry.err
}
