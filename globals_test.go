// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalStoreSetAndGet(t *testing.T) {
	store := NewGlobalStore()

	_, ok := store.Get("region")
	assert.False(t, ok)

	require.NoError(t, store.Set("region", "eu-west-1"))

	value, ok := store.Get("region")
	assert.True(t, ok)
	assert.Equal(t, "eu-west-1", value)

	require.ErrorContains(t, store.Set("region", "us-east-1"), "already set")

	value, _ = store.Get("region")
	assert.Equal(t, "eu-west-1", value)
}

func TestGlobalStoreGetOrComputeSingleFlight(t *testing.T) {
	store := NewGlobalStore()

	var computations atomic.Int64
	compute := func() (any, error) {
		computations.Add(1)
		return "computed", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 16)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := store.GetOrCompute("shared", compute)
			assert.NoError(t, err)
			results[i] = value
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), computations.Load())
	for _, r := range results {
		assert.Equal(t, "computed", r)
	}

	value, ok := store.Get("shared")
	assert.True(t, ok)
	assert.Equal(t, "computed", value)
}

func TestGlobalStoreGetOrComputeError(t *testing.T) {
	store := NewGlobalStore()

	boom := errors.New("boom")
	_, err := store.GetOrCompute("bad", func() (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// failed computations do not surface through Get
	_, ok := store.Get("bad")
	assert.False(t, ok)

	// and the error is memoized like a value
	_, err = store.GetOrCompute("bad", func() (any, error) {
		return "never", nil
	})
	require.ErrorIs(t, err, boom)
}
