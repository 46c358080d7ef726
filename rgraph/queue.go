// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package rgraph implements the render graph: resource usage
// tracking and automatic barrier/ownership-transfer derivation
// (per-subresource global usage records), and a declarative
// pass DAG that builds per-pass barriers, render-pass objects
// and framebuffers, then drives execution.
package rgraph

// Queue identifies one of the engine's four logical GPU queues.
// Submits on the same Queue serialize in submission order;
// cross-queue dependencies are expressed as waits on another
// queue's Timeline value.
type Queue int

const (
	QMain Queue = iota
	QTransfer
	QCompute
	QPresent
	nqueue
)

func (q Queue) String() string {
	switch q {
	case QMain:
		return "main"
	case QTransfer:
		return "transfer"
	case QCompute:
		return "compute"
	case QPresent:
		return "present"
	default:
		return "queue(?)"
	}
}

// Sharing is the sharing mode a buffer or image was created
// with, which determines whether it requires queue-family
// ownership transfer barriers when used from multiple queues.
type Sharing int

const (
	// Concurrent resources are readable on any queue without
	// an ownership transfer.
	Concurrent Sharing = iota
	// Exclusive resources require paired release/acquire
	// barriers when migrating between queue families.
	Exclusive
)

// Timeline is a monotonically increasing counter that names a
// submit boundary on a single Queue.
type Timeline uint64

// timelines tracks, per queue, the value assigned to the most
// recent submit; bump assigns the next one. Submit completion
// is not tracked.
type timelines struct {
	next [nqueue]Timeline
}

func (t *timelines) bump(q Queue) Timeline {
	t.next[q]++
	return t.next[q]
}

func (t *timelines) current(q Queue) Timeline {
	return t.next[q]
}
