// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rgraph

import "github.com/ardenne/forgeplus/driver"

// ResourceID identifies a buffer or image that the tracker
// manages. Callers assign these (e.g. as indices into their
// own resource tables); the tracker treats them as opaque keys.
type ResourceID int

// SubResource is the unit of barrier tracking: a buffer as a
// whole, or a single (array-layer, mip-level) pair of an image.
// Buffers always use Layer == Level == 0.
type SubResource struct {
	Resource ResourceID
	Layer    int
	Level    int
}

// usageRecord is the global usage record for one subresource:
// the last queue, timeline value, stage mask, access mask,
// layout and command index that touched it.
type usageRecord struct {
	valid    bool
	queue    Queue
	timeline Timeline
	stage    driver.Sync
	access   driver.Access
	layout   driver.Layout
	cmdIndex int
}

// Use describes a new access to a subresource, to be recorded
// via Tracker.Record.
type Use struct {
	Sub      SubResource
	Queue    Queue
	Stage    driver.Sync
	Access   driver.Access
	Layout   driver.Layout // meaningless (ignored) for buffers
	IsImage  bool
	CmdIndex int
	// HasDepthAttachment is true when the pass recording this
	// use includes a depth-stencil attachment; it decides
	// whether a buffer access difference promotes to a
	// per-pass all-memory barrier rather than a targeted
	// buffer memory barrier (per the barrier preference
	// order in the tracking design).
	HasDepthAttachment bool
}

// BarrierKind classifies the Decision the tracker produced for
// a Use.
type BarrierKind int

const (
	// BarrierNone: no synchronization is required (e.g. a
	// read following a read).
	BarrierNone BarrierKind = iota
	// BarrierLayout: an image layout transition is required.
	BarrierLayout
	// BarrierOwnership: a queue-family ownership transfer is
	// required (Release must be recorded on the source
	// queue's submit, Acquire on the destination's).
	BarrierOwnership
	// BarrierMemory: a plain memory barrier (buffer-scoped or
	// promoted to an all-memory barrier) is required.
	BarrierMemory
)

// OwnershipTransfer is a release/acquire barrier pair emitted
// around a submit boundary when an Exclusive-sharing resource
// migrates between queues.
type OwnershipTransfer struct {
	Release struct {
		Queue   Queue
		Barrier driver.Barrier
	}
	Acquire struct {
		Queue   Queue
		Barrier driver.Barrier
	}
}

// Decision is the result of recording a Use: the kind of
// synchronization required, plus the concrete driver-level
// barrier(s) to record.
type Decision struct {
	Kind       BarrierKind
	Barrier    driver.Barrier
	Transition driver.Transition
	Ownership  OwnershipTransfer
	// WaitQueue/WaitValue are set when the new use requires
	// the recording queue to wait on a Timeline value from a
	// different queue before proceeding (a cross-queue
	// dependency discovered by this Use).
	WaitQueue Queue
	WaitValue Timeline
	HasWait   bool
}

// Tracker holds the global usage record for every subresource
// it has seen, plus the sharing mode of every resource.
//
// A single Tracker instance is not safe for concurrent use; the
// render graph's single driver thread owns it.
type Tracker struct {
	usage   map[SubResource]usageRecord
	sharing map[ResourceID]Sharing
	tl      timelines
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		usage:   make(map[SubResource]usageRecord),
		sharing: make(map[ResourceID]Sharing),
	}
}

// SetSharing records the sharing mode of a resource. Resources
// not registered default to Concurrent (never transfer).
func (t *Tracker) SetSharing(id ResourceID, s Sharing) {
	t.sharing[id] = s
}

// BeginSubmit bumps q's timeline and returns the value
// assigned to q's new submit; other queues are unchanged. Call once per
// GPU.Commit.
func (t *Tracker) BeginSubmit(q Queue) Timeline {
	return t.tl.bump(q)
}

func writes(a driver.Access) bool {
	return a&(driver.AColorWrite|driver.ADSWrite|driver.AResolveWrite|driver.ACopyWrite|driver.AShaderWrite|driver.AAnyWrite) != 0
}

// isWrite reports whether either side of a transition carries
// write semantics, the first trigger for barrier derivation.
func isWrite(prev, next driver.Access) bool { return writes(prev) || writes(next) }

// Record computes the synchronization required for u against
// the subresource's prior recorded use, updates the global
// usage record, and returns the Decision. Submit must have
// already been opened via BeginSubmit for u.Queue.
func (t *Tracker) Record(u Use) Decision {
	prev, had := t.usage[u.Sub]
	timeline := t.tl.current(u.Queue)

	next := usageRecord{
		valid:    true,
		queue:    u.Queue,
		timeline: timeline,
		stage:    u.Stage,
		access:   u.Access,
		layout:   u.Layout,
		cmdIndex: u.CmdIndex,
	}
	defer func() { t.usage[u.Sub] = next }()

	if !had {
		// First use: only an image needs a layout transition,
		// out of driver.LUndefined.
		if u.IsImage && u.Layout != driver.LUndefined {
			return Decision{
				Kind: BarrierLayout,
				Transition: driver.Transition{
					Barrier: driver.Barrier{
						SyncBefore:   driver.SNone,
						SyncAfter:    u.Stage,
						AccessBefore: driver.ANone,
						AccessAfter:  u.Access,
					},
					LayoutBefore: driver.LUndefined,
					LayoutAfter:  u.Layout,
				},
			}
		}
		return Decision{Kind: BarrierNone}
	}

	needsSync := isWrite(prev.access, u.Access) || (u.IsImage && prev.layout != u.Layout) || prev.queue != u.Queue
	if !needsSync {
		return Decision{Kind: BarrierNone}
	}

	base := driver.Barrier{
		SyncBefore:   prev.stage,
		SyncAfter:    u.Stage,
		AccessBefore: prev.access,
		AccessAfter:  u.Access,
	}

	// Preference 1: layout-changing image barrier.
	if u.IsImage && prev.layout != u.Layout {
		return Decision{
			Kind: BarrierLayout,
			Transition: driver.Transition{
				Barrier:      base,
				LayoutBefore: prev.layout,
				LayoutAfter:  u.Layout,
			},
		}
	}

	// Preference 2: queue-family ownership transfer.
	if prev.queue != u.Queue && t.sharing[u.Sub.Resource] == Exclusive {
		d := Decision{Kind: BarrierOwnership, HasWait: true, WaitQueue: prev.queue, WaitValue: prev.timeline}
		d.Ownership.Release.Queue = prev.queue
		d.Ownership.Release.Barrier = base
		d.Ownership.Acquire.Queue = u.Queue
		d.Ownership.Acquire.Barrier = base
		return d
	}
	if prev.queue != u.Queue {
		// Concurrent-sharing resource: no transfer, but the
		// consuming queue still waits on the producer's
		// timeline value so the access is ordered.
		return Decision{Kind: BarrierMemory, Barrier: base, HasWait: true, WaitQueue: prev.queue, WaitValue: prev.timeline}
	}

	// Preference 3/4: buffer memory barrier, promoted to an
	// all-memory barrier when the pass has a depth attachment.
	if !u.IsImage && (writes(prev.access) != writes(u.Access) || writes(prev.access) && writes(u.Access)) {
		if u.HasDepthAttachment {
			base.SyncBefore = driver.SAll
			base.AccessBefore = driver.AAnyWrite | driver.AAnyRead
		}
		return Decision{Kind: BarrierMemory, Barrier: base}
	}

	// Preference 4: same resource, new stage/access pair.
	return Decision{Kind: BarrierMemory, Barrier: base}
}

// Forget drops the recorded usage of a subresource, e.g. when
// its backing resource is destroyed. Safe to call on an unseen
// subresource.
func (t *Tracker) Forget(sub SubResource) {
	delete(t.usage, sub)
}
