// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import (
	"fmt"

	"github.com/ardenne/forgeplus/rclus"
	"github.com/ardenne/forgeplus/robj"
	"golang.org/x/sync/errgroup"
)

// Registry holds every mesh pass sharing a frame's dynamic-
// entity and light snapshots, and drives them through each
// Stage in lock-step: every pass finishes StageCameraSetup
// before any pass starts StageHZBRender, and so on. Dispatch is
// a switch over Stage (see MeshPass.Run) rather than a per-pass
// vtable, since the set of stages is fixed and known at compile
// time.
type Registry struct {
	passes []*MeshPass
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Add registers a pass to be driven by future RunFrame calls.
func (r *Registry) Add(mp *MeshPass) { r.passes = append(r.passes, mp) }

// Passes returns the registered passes, in registration order.
func (r *Registry) Passes() []*MeshPass { return r.passes }

// RunFrame drives every registered pass through all stages for
// one frame. dynamic and lights are shared across every pass;
// a pass restricts which of them it actually draws/clusters via
// its own LayerMask and Grid.
//
// StagePrepareInputs and StageGenerateDrawCalls are pure CPU
// work (object-data write, per-pass input-ID preparation, and
// draw-call write) with no cross-pass dependency, so every
// pass's call is fanned out across an errgroup and the stage
// only advances once all of them return; every other stage
// touches shared GPU-command state and stays driven in-order.
func (r *Registry) RunFrame(dynamic []robj.DynamicObject, lights []rclus.Light) error {
	for stage := Stage(0); stage < numStages; stage++ {
		if stage == StagePrepareInputs || stage == StageGenerateDrawCalls {
			if err := r.runStageParallel(stage, dynamic, lights); err != nil {
				return err
			}
			continue
		}
		for _, mp := range r.passes {
			if err := mp.Run(stage, dynamic, lights); err != nil {
				return fmt.Errorf("meshpass: pass failed at stage %s: %w", stage, err)
			}
		}
	}
	return nil
}

// runStageParallel runs stage for every registered pass
// concurrently, one goroutine per pass (the errgroup has no
// limit set, so the Go scheduler spreads them over threads),
// and returns the first error once all of them have returned.
func (r *Registry) runStageParallel(stage Stage, dynamic []robj.DynamicObject, lights []rclus.Light) error {
	var g errgroup.Group
	for _, mp := range r.passes {
		mp := mp
		g.Go(func() error {
			if err := mp.Run(stage, dynamic, lights); err != nil {
				return fmt.Errorf("meshpass: pass failed at stage %s: %w", stage, err)
			}
			return nil
		})
	}
	return g.Wait()
}
