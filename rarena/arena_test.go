// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rarena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocReturnsDistinctSlots(t *testing.T) {
	a := New(64)
	s1 := a.Alloc()
	s2 := a.Alloc()
	assert.NotEqual(t, s1, s2)
	assert.Equal(t, 2, a.InUse())
}

func TestAllocGrowsWhenExhausted(t *testing.T) {
	a := New(64)
	seen := make(map[int]bool)
	for i := 0; i < 300; i++ {
		s := a.Alloc()
		assert.False(t, seen[s], "slot %d reused while still allocated", s)
		seen[s] = true
	}
	assert.Equal(t, 300, a.InUse())
}

func TestFreeDoesNotReclaimUntilFramesInFlightElapse(t *testing.T) {
	a := New(64)
	s := a.Alloc()
	a.Free(s, 10)

	assert.Equal(t, 0, a.Collect(10, 3), "freed this frame: too soon")
	assert.Equal(t, 0, a.Collect(12, 3), "only 2 frames elapsed")
	assert.Equal(t, 1, a.Collect(13, 3), "3 frames elapsed: reclaimable")
	assert.Equal(t, 0, a.InUse())
}

func TestReclaimedSlotIsReusable(t *testing.T) {
	a := New(64)
	s := a.Alloc()
	a.Free(s, 0)
	a.Collect(3, 3)

	s2 := a.Alloc()
	assert.Equal(t, s, s2, "reclaimed slot is the lowest free index again")
}
