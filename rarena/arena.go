// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package rarena implements §4.6's resource allocator: process-
// wide slot arenas, one per material-data size, each returning
// a stable small integer that the object-data record stores.
// Freed slots are reclaimed only once every frame-in-flight
// that could still reference them has completed, tracked here
// by a simple frame counter rather than rgraph's timelines (an
// arena outlives any one Tracker/Graph and is shared by every
// mesh pass).
package rarena

import (
	"iter"

	"github.com/ardenne/forgeplus/internal/bitvec"
)

// retired records a slot freed at a given frame, pending
// reclamation once enough later frames have completed.
type retired struct {
	slot  int
	frame uint64
}

// Arena allocates small integer slots for fixed-size records
// (one material-instance-data block, or one texture-handle
// group). The zero value is not usable; call New.
type Arena struct {
	bits   bitvec.V[uint64]
	Stride int
	freed  []retired
}

// New returns an empty Arena for records of the given byte
// stride. Stride is informational only — rarena doesn't move
// bytes, it only hands out slot indices.
func New(stride int) *Arena {
	return &Arena{Stride: stride}
}

// Alloc returns a free slot index, growing the underlying bit
// vector if none is available.
func (a *Arena) Alloc() int {
	const growWords = 4 // 256 slots per growth, matching bitvec's uint64 granularity
	idx, ok := a.bits.Search()
	if !ok {
		idx = a.bits.Grow(growWords)
	}
	a.bits.Set(idx)
	return idx
}

// Free marks slot for reclamation once frame (the frame it was
// freed on) is at least framesInFlight frames in the past — see
// Collect.
func (a *Arena) Free(slot int, frame uint64) {
	a.freed = append(a.freed, retired{slot: slot, frame: frame})
}

// Collect reclaims every slot freed at least framesInFlight
// frames before currentFrame, returning how many were reclaimed.
// Call this once per frame, after waiting on that frame's
// in-flight fence, so every command buffer that could still
// read a freed slot has finished executing.
func (a *Arena) Collect(currentFrame uint64, framesInFlight int) int {
	if framesInFlight < 0 {
		framesInFlight = 0
	}
	cutoff := uint64(framesInFlight)
	n := 0
	kept := a.freed[:0]
	for _, r := range a.freed {
		if currentFrame >= r.frame+cutoff {
			a.bits.Unset(r.slot)
			n++
		} else {
			kept = append(kept, r)
		}
	}
	a.freed = kept
	return n
}

// InUse returns the number of slots currently allocated
// (including those pending reclamation).
func (a *Arena) InUse() int { return a.bits.Len() - a.bits.Rem() }

// Live iterates every currently allocated slot in ascending
// order, without materializing a slice. No other package in
// this module calls it; rframe.Metrics does not report arena
// occupancy.
func (a *Arena) Live() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, set := range a.bits.All() {
			if set && !yield(i) {
				return
			}
		}
	}
}
