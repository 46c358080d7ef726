// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import (
	"testing"

	"github.com/ardenne/forgeplus/robj"
	"github.com/stretchr/testify/assert"
)

func key(material uint32, layout uint8, mesh uint16) robj.DrawKey {
	return robj.MakeKey(material, layout, mesh, 0)
}

func TestDrawLoopCoalescesSharedMaterialAndLayout(t *testing.T) {
	keys := []robj.KeyEntry{
		{Key: key(1, 0, 1), Ready: true},
		{Key: key(1, 0, 2), Ready: true}, // same material+layout, different mesh: still coalesces
		{Key: key(2, 0, 3), Ready: true}, // different material: new run
	}
	var materialBinds, layoutBinds int
	var draws [][2]int
	hooks := DrawLoopHooks{
		BindMaterialData: func(uint32) { materialBinds++ },
		BindVertexLayout: func(uint8) { layoutBinds++ },
		IndirectDraw:     func(first, count int) { draws = append(draws, [2]int{first, count}) },
	}

	RunDrawLoop(keys, hooks)

	assert.Equal(t, [][2]int{{0, 2}, {2, 1}}, draws)
	assert.Equal(t, 2, materialBinds)
	assert.Equal(t, 1, layoutBinds, "layout never changes across the whole loop")
}

// TestDrawLoopFlushesThenSkipsNotReadyMesh exercises Open
// Question (a): the run is flushed before the not-ready key is
// skipped, and the run counter does not include it.
func TestDrawLoopFlushesThenSkipsNotReadyMesh(t *testing.T) {
	keys := []robj.KeyEntry{
		{Key: key(1, 0, 1), Ready: true},
		{Key: key(1, 0, 2), Ready: false}, // not ready: flush run [0,1), skip this key
		{Key: key(1, 0, 3), Ready: true},  // new run starting here
	}
	var draws [][2]int
	hooks := DrawLoopHooks{
		BindMaterialData: func(uint32) {},
		BindVertexLayout: func(uint8) {},
		IndirectDraw:     func(first, count int) { draws = append(draws, [2]int{first, count}) },
	}

	RunDrawLoop(keys, hooks)

	assert.Equal(t, [][2]int{{0, 1}, {2, 1}}, draws)
}

func TestDrawLoopRebindsOnlyOnChange(t *testing.T) {
	keys := []robj.KeyEntry{
		{Key: key(1, 0, 1), Ready: true},
		{Key: key(2, 0, 2), Ready: true},
		{Key: key(2, 1, 3), Ready: true},
	}
	var materials []uint32
	var layouts []uint8
	hooks := DrawLoopHooks{
		BindMaterialData: func(m uint32) { materials = append(materials, m) },
		BindVertexLayout: func(l uint8) { layouts = append(layouts, l) },
		IndirectDraw:     func(int, int) {},
	}

	RunDrawLoop(keys, hooks)

	assert.Equal(t, []uint32{1, 2}, materials)
	assert.Equal(t, []uint8{0, 1}, layouts)
}

func TestDrawLoopAllNotReadyProducesNoDraws(t *testing.T) {
	keys := []robj.KeyEntry{{Key: key(1, 0, 1), Ready: false}}
	var draws int
	RunDrawLoop(keys, DrawLoopHooks{
		BindMaterialData: func(uint32) {},
		BindVertexLayout: func(uint8) {},
		IndirectDraw:     func(int, int) { draws++ },
	})
	assert.Equal(t, 0, draws)
}
