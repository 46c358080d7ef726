// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import (
	"fmt"

	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/rclus"
	"github.com/ardenne/forgeplus/rerr"
	"github.com/ardenne/forgeplus/robj"
)

// Stage identifies one step of a mesh pass's per-frame
// sequence. The registry drives every pass through each Stage,
// in order, before advancing to the next — passes never choose
// their own order.
type Stage int

// Stages, in the fixed order a frame runs them.
const (
	StageCameraSetup Stage = iota
	StageHZBRender
	StageHZBGenerate
	StagePrepareInputs
	StageGenerateDrawCalls
	StageClusterLights
	StageDepthPrepass
	StageColorPass
	numStages
)

func (s Stage) String() string {
	switch s {
	case StageCameraSetup:
		return "camera-setup"
	case StageHZBRender:
		return "hzb-render"
	case StageHZBGenerate:
		return "hzb-generate"
	case StagePrepareInputs:
		return "prepare-inputs"
	case StageGenerateDrawCalls:
		return "generate-draw-calls"
	case StageClusterLights:
		return "cluster-lights"
	case StageDepthPrepass:
		return "depth-prepass"
	case StageColorPass:
		return "color-pass"
	default:
		return "stage(?)"
	}
}

// Camera is the view the pass renders from.
type Camera struct {
	ViewProj linear.M4
	Frustum  Frustum
}

// Config is the fixed shape of a mesh pass, set at creation.
type Config struct {
	// LayerMask restricts which batches/objects this pass draws.
	LayerMask uint64
	// Grid is the froxel grid for this pass's light clustering.
	// A zero Cap disables clustering (e.g. a shadow pass).
	Grid rclus.Grid
	// HZB enables occlusion culling against a depth pyramid.
	HZB bool
	// ColorOutput is false for depth-only passes (shadow maps).
	ColorOutput bool
}

// HZBRenderHook records whatever GPU commands re-render last
// frame's static draws into the HZB depth target. draws is nil
// when the stage must be skipped this frame (stale geometry or
// a buffer resize).
type HZBRenderHook func(draws []robj.DrawCall)

// HZBGenerateHook reduces the rendered depth target into pyramid.
type HZBGenerateHook func(pyramid *HZBPyramid)

// MeshPass is one node in the mesh-pass registry: a self-
// contained camera setup, optional HZB occlusion state, input-
// ID/draw-call preparation, draw generation, optional light
// clustering, and depth/color draw loops. See Registry for how
// a frame drives many of these in lock-step.
type MeshPass struct {
	cfg    Config
	lookup robj.MeshLookup

	camera      Camera
	cameraDirty bool

	static      []robj.StaticBatch
	staticDirty bool
	resized     bool

	prepared *robj.Prepared

	pyramid        *HZBPyramid
	lastDrawCalls  []robj.DrawCall
	hzbRenderHook  HZBRenderHook
	hzbGenHook     HZBGenerateHook

	froxels []rclus.FroxelAABB
	lights  *rclus.Table

	DepthHooks DrawLoopHooks
	ColorHooks DrawLoopHooks
}

// New creates a mesh pass. lookup resolves mesh handles during
// input-ID preparation and draw generation.
func New(cfg Config, lookup robj.MeshLookup) *MeshPass {
	mp := &MeshPass{cfg: cfg, lookup: lookup, staticDirty: true}
	if cfg.HZB {
		mp.pyramid = &HZBPyramid{}
	}
	if cfg.ColorOutput && cfg.Grid.Cap > 0 {
		mp.lights = rclus.NewTable(cfg.Grid)
	}
	return mp
}

// SetCamera updates the pass's view and froxel bounds. Changing
// ViewProj sets the pass's unexported camera dirty flag, which
// StageCameraSetup clears; froxels is used as given and is not
// regenerated by the pass.
func (mp *MeshPass) SetCamera(cam Camera, froxels []rclus.FroxelAABB) {
	if cam.ViewProj != mp.camera.ViewProj {
		mp.cameraDirty = true
	}
	mp.camera = cam
	mp.froxels = froxels
}

// SetStaticBatches replaces the pass's static geometry
// snapshot, already sorted by draw-key as §4.5 requires, and
// marks it dirty so the next StagePrepareInputs rewrites the
// static prefix.
func (mp *MeshPass) SetStaticBatches(batches []robj.StaticBatch) {
	mp.static = batches
	mp.staticDirty = true
}

// MarkResized flags that an object-data/input-ID/output-ID/
// draw-call buffer grew this frame, forcing StageHZBRender to
// skip (it would otherwise read now-invalid draw calls from the
// shadow copy).
func (mp *MeshPass) MarkResized() { mp.resized = true }

// SetHZBHooks installs the render/generate callbacks used while
// cfg.HZB is set.
func (mp *MeshPass) SetHZBHooks(render HZBRenderHook, gen HZBGenerateHook) {
	mp.hzbRenderHook = render
	mp.hzbGenHook = gen
}

// Prepared exposes the last StagePrepareInputs result, valid
// from that stage through the end of the frame.
func (mp *MeshPass) Prepared() *robj.Prepared { return mp.prepared }

// Run advances the pass through stage. dynamic and lights are
// this frame's dynamic-entity and point-light snapshots; both
// are ignored by stages that do not need them.
func (mp *MeshPass) Run(stage Stage, dynamic []robj.DynamicObject, lights []rclus.Light) error {
	switch stage {
	case StageCameraSetup:
		mp.runCameraSetup()
	case StageHZBRender:
		mp.runHZBRender()
	case StageHZBGenerate:
		mp.runHZBGenerate()
	case StagePrepareInputs:
		return mp.runPrepareInputs(dynamic)
	case StageGenerateDrawCalls:
		return mp.runGenerateDrawCalls()
	case StageClusterLights:
		mp.runClusterLights(lights)
	case StageDepthPrepass:
		return mp.runDepthPrepass()
	case StageColorPass:
		return mp.runColorPass()
	default:
		return fmt.Errorf("meshpass: unknown stage %d: %w", stage, rerr.ErrInvariant)
	}
	return nil
}

func (mp *MeshPass) runCameraSetup() {
	// No froxel generation is dispatched here: this stage only
	// clears the dirty flag, which nothing outside the pass can
	// read. Froxel bounds come from the caller via SetCamera.
	mp.cameraDirty = false
}

func (mp *MeshPass) runHZBRender() {
	if !mp.cfg.HZB || mp.hzbRenderHook == nil {
		return
	}
	if mp.staticDirty || mp.resized || mp.lastDrawCalls == nil {
		mp.hzbRenderHook(nil)
		return
	}
	mp.hzbRenderHook(mp.lastDrawCalls)
}

func (mp *MeshPass) runHZBGenerate() {
	if !mp.cfg.HZB || mp.hzbGenHook == nil {
		return
	}
	mp.hzbGenHook(mp.pyramid)
}

func (mp *MeshPass) runPrepareInputs(dynamic []robj.DynamicObject) error {
	p, err := robj.Prepare(mp.cfg.LayerMask, mp.static, dynamic, mp.lookup)
	if err != nil {
		return fmt.Errorf("meshpass: prepare inputs: %w", err)
	}
	mp.prepared = p
	mp.staticDirty = false
	mp.resized = false
	return nil
}

func (mp *MeshPass) runGenerateDrawCalls() error {
	if mp.prepared == nil {
		return fmt.Errorf("meshpass: generate draw calls before prepare inputs: %w", rerr.ErrInvariant)
	}
	var pyramid *HZBPyramid
	if mp.cfg.HZB {
		pyramid = mp.pyramid
	}
	RunCull(mp.prepared, mp.prepared.ObjectData, mp.camera.Frustum, pyramid, mp.camera.ViewProj)
	return nil
}

func (mp *MeshPass) runClusterLights(lights []rclus.Light) {
	if mp.lights == nil {
		return
	}
	mp.lights.Reset()
	mp.lights.Assign(mp.froxels, lights)
}

func (mp *MeshPass) runDepthPrepass() error {
	if mp.prepared == nil {
		return fmt.Errorf("meshpass: depth prepass before prepare inputs: %w", rerr.ErrInvariant)
	}
	RunDrawLoop(mp.prepared.Keys, mp.DepthHooks)
	return nil
}

func (mp *MeshPass) runColorPass() error {
	if mp.prepared == nil {
		return fmt.Errorf("meshpass: color pass before prepare inputs: %w", rerr.ErrInvariant)
	}
	if mp.cfg.ColorOutput {
		RunDrawLoop(mp.prepared.Keys, mp.ColorHooks)
	}
	mp.lastDrawCalls = append(mp.lastDrawCalls[:0], mp.prepared.DrawCalls...)
	return nil
}
