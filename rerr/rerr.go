// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package rerr defines the sentinel error kinds used across the
// render core, per the error handling design: fatal errors that
// abort the frame driver, recoverable errors that flow up
// through ordinary result values, and invariant violations that
// abort the frame.
package rerr

import "errors"

// Fatal errors. The frame driver tears down on these; the host
// application decides whether to restart.
var (
	ErrDeviceLost  = errors.New("device lost")
	ErrSurfaceLost = errors.New("surface lost")
)

// Recoverable errors. The frame driver reconfigures the surface
// and skips the current frame.
var (
	ErrOutOfDate  = errors.New("surface out of date")
	ErrSuboptimal = errors.New("surface suboptimal")
)

// ErrMeshNotReady means that a mesh's GPU upload has not
// completed. It is never propagated as a hard failure: the
// draw loop skips the offending draw call silently.
var ErrMeshNotReady = errors.New("mesh not ready")

// ErrInvariant means that a data-model invariant was violated,
// e.g. a mismatched material/mesh handle pair written by a
// prior frame, or a race between the CPU preparation stage and
// a concurrent resource free. Every site in this module that
// detects one returns it, aborting the frame; there is no
// separate release-build path that logs and skips the key.
var ErrInvariant = errors.New("invariant violation")

// Is reports whether err wraps target, per errors.Is. Exported
// for callers that want to avoid importing the stdlib errors
// package purely to check a render-core error kind.
func Is(err, target error) bool { return errors.Is(err, target) }
