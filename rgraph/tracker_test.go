// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rgraph

import (
	"testing"

	"github.com/ardenne/forgeplus/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThenReadProducesNoBarrier(t *testing.T) {
	tr := NewTracker()
	sub := SubResource{Resource: 1}
	tr.BeginSubmit(QMain)
	d1 := tr.Record(Use{Sub: sub, Queue: QMain, Stage: driver.SVertexShading, Access: driver.AShaderRead})
	assert.Equal(t, BarrierNone, d1.Kind)
	d2 := tr.Record(Use{Sub: sub, Queue: QMain, Stage: driver.SFragmentShading, Access: driver.AShaderRead})
	assert.Equal(t, BarrierNone, d2.Kind)
}

func TestWriteThenReadProducesOneMemoryBarrier(t *testing.T) {
	tr := NewTracker()
	sub := SubResource{Resource: 1}
	tr.BeginSubmit(QMain)
	d1 := tr.Record(Use{Sub: sub, Queue: QMain, Stage: driver.SComputeShading, Access: driver.AShaderWrite})
	assert.Equal(t, BarrierNone, d1.Kind) // first use: nothing to synchronize against
	d2 := tr.Record(Use{Sub: sub, Queue: QMain, Stage: driver.SVertexShading, Access: driver.AShaderRead})
	require.Equal(t, BarrierMemory, d2.Kind)
	assert.Equal(t, driver.SComputeShading, d2.Barrier.SyncBefore)
	assert.Equal(t, driver.SVertexShading, d2.Barrier.SyncAfter)
	assert.Equal(t, driver.AShaderWrite, d2.Barrier.AccessBefore)
	assert.Equal(t, driver.AShaderRead, d2.Barrier.AccessAfter)
}

func TestLayoutChangeProducesExactlyOneImageBarrier(t *testing.T) {
	tr := NewTracker()
	sub := SubResource{Resource: 2}
	tr.BeginSubmit(QMain)
	tr.Record(Use{Sub: sub, Queue: QMain, IsImage: true, Stage: driver.SColorOutput, Access: driver.AColorWrite, Layout: driver.LColorTarget})
	d := tr.Record(Use{Sub: sub, Queue: QMain, IsImage: true, Stage: driver.SFragmentShading, Access: driver.AShaderRead, Layout: driver.LShaderRead})
	require.Equal(t, BarrierLayout, d.Kind)
	assert.Equal(t, driver.LColorTarget, d.Transition.LayoutBefore)
	assert.Equal(t, driver.LShaderRead, d.Transition.LayoutAfter)
}

// TestCrossQueueOwnership mirrors spec scenario 5: a buffer is
// populated on the transfer queue, then consumed on the main
// queue. The transfer submit's use produces no barrier (first
// use); the main queue's subsequent use must produce a release
// recorded against the transfer queue and an acquire against
// main, plus a wait on the transfer queue's timeline value.
func TestCrossQueueOwnership(t *testing.T) {
	tr := NewTracker()
	buf := ResourceID(7)
	tr.SetSharing(buf, Exclusive)
	sub := SubResource{Resource: buf}

	transferTL := tr.BeginSubmit(QTransfer)
	d0 := tr.Record(Use{Sub: sub, Queue: QTransfer, Stage: driver.SCopy, Access: driver.ACopyWrite})
	assert.Equal(t, BarrierNone, d0.Kind)

	tr.BeginSubmit(QMain)
	d1 := tr.Record(Use{Sub: sub, Queue: QMain, Stage: driver.SVertexShading, Access: driver.AShaderRead})
	require.Equal(t, BarrierOwnership, d1.Kind)
	assert.Equal(t, QTransfer, d1.Ownership.Release.Queue)
	assert.Equal(t, QMain, d1.Ownership.Acquire.Queue)
	require.True(t, d1.HasWait)
	assert.Equal(t, QTransfer, d1.WaitQueue)
	assert.Equal(t, transferTL, d1.WaitValue)
}

// TestImageWriteThenWriteSameLayoutIsNotPromoted guards against a
// precedence bug where the buffer-only promotion branch fired for
// images too: an image written twice in the same layout, inside a
// pass with a depth attachment, must still get a plain memory
// barrier carrying the real producer stage/access, not the
// all-memory promotion that branch applies to buffers.
func TestImageWriteThenWriteSameLayoutIsNotPromoted(t *testing.T) {
	tr := NewTracker()
	sub := SubResource{Resource: 3}
	tr.BeginSubmit(QMain)
	tr.Record(Use{Sub: sub, Queue: QMain, IsImage: true, Stage: driver.SColorOutput, Access: driver.AColorWrite, Layout: driver.LColorTarget, HasDepthAttachment: true})
	d := tr.Record(Use{Sub: sub, Queue: QMain, IsImage: true, Stage: driver.SColorOutput, Access: driver.AColorWrite, Layout: driver.LColorTarget, HasDepthAttachment: true})
	require.Equal(t, BarrierMemory, d.Kind)
	assert.Equal(t, driver.SColorOutput, d.Barrier.SyncBefore)
	assert.Equal(t, driver.AColorWrite, d.Barrier.AccessBefore)
}

func TestConcurrentSharingNeverTransfers(t *testing.T) {
	tr := NewTracker()
	buf := ResourceID(9)
	tr.SetSharing(buf, Concurrent) // default, but explicit here
	sub := SubResource{Resource: buf}

	tr.BeginSubmit(QTransfer)
	tr.Record(Use{Sub: sub, Queue: QTransfer, Stage: driver.SCopy, Access: driver.ACopyWrite})

	tr.BeginSubmit(QCompute)
	d := tr.Record(Use{Sub: sub, Queue: QCompute, Stage: driver.SComputeShading, Access: driver.AShaderRead})
	assert.NotEqual(t, BarrierOwnership, d.Kind)
}
