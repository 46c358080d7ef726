// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posComp struct{ x, y, z float32 }
type velComp struct{ x, y, z float32 }
type tagComp struct{}

// checkInvariant asserts that, for every archetype and every
// entity in it, entities[location(e).index] == e.
func checkInvariant(t *testing.T, w *World) {
	t.Helper()
	for _, arch := range w.archetypes {
		for i, e := range arch.entities {
			rec := w.resolve(e)
			require.NotNil(t, rec, "entity %v in archetype column has no live record", e)
			assert.Same(t, arch, rec.arch)
			assert.Equal(t, i, rec.row)
		}
	}
}

func TestCreateDestroy(t *testing.T) {
	var w World
	e := w.Create()
	assert.True(t, w.Alive(e))
	assert.Equal(t, 1, w.Len())
	w.Destroy(e)
	assert.False(t, w.Alive(e))
	assert.Equal(t, 0, w.Len())
	checkInvariant(t, &w)
}

func TestDestroyIsIdempotent(t *testing.T) {
	var w World
	e := w.Create()
	w.Destroy(e)
	w.Destroy(e) // no panic, no-op
	assert.False(t, w.Alive(e))
}

func TestStaleEntityResolvesToDead(t *testing.T) {
	var w World
	e1 := w.Create()
	w.Destroy(e1)
	e2 := w.Create() // reuses e1's index with a bumped generation
	assert.Equal(t, e1.index(), e2.index())
	assert.NotEqual(t, e1, e2)
	assert.False(t, w.Alive(e1))
	assert.True(t, w.Alive(e2))
}

func TestAddGetRemoveComponent(t *testing.T) {
	var w World
	e := w.Create()
	assert.False(t, Has[posComp](&w, e))

	ok := Add(&w, e, posComp{1, 2, 3})
	require.True(t, ok)
	assert.True(t, Has[posComp](&w, e))
	p, ok := Get[posComp](&w, e)
	require.True(t, ok)
	assert.Equal(t, posComp{1, 2, 3}, *p)

	Add(&w, e, velComp{4, 5, 6})
	// Adding a second component type must not disturb the first.
	p, ok = Get[posComp](&w, e)
	require.True(t, ok)
	assert.Equal(t, posComp{1, 2, 3}, *p)
	v, ok := Get[velComp](&w, e)
	require.True(t, ok)
	assert.Equal(t, velComp{4, 5, 6}, *v)

	ok = Remove[posComp](&w, e)
	require.True(t, ok)
	assert.False(t, Has[posComp](&w, e))
	assert.True(t, Has[velComp](&w, e))

	checkInvariant(t, &w)
}

func TestRemoveMissingComponentIsNoOp(t *testing.T) {
	var w World
	e := w.Create()
	Add(&w, e, posComp{})
	ok := Remove[velComp](&w, e) // never had a velComp
	assert.True(t, ok)
	assert.True(t, Has[posComp](&w, e))
}

// TestSwapRemoveAddComponent mirrors the spec scenario: a world
// with entities e1,e2,e3 in archetype {A,B}; add component C
// to e1. e1 moves to {A,B,C} at index 0; e3 moves into e1's
// old slot; e2 is undisturbed; the location map is updated for
// e1 and e3.
func TestSwapRemoveAddComponent(t *testing.T) {
	var w World
	e1 := w.Create()
	Add(&w, e1, posComp{x: 1})
	Add(&w, e1, velComp{x: 1})
	e2 := w.Create()
	Add(&w, e2, posComp{x: 2})
	Add(&w, e2, velComp{x: 2})
	e3 := w.Create()
	Add(&w, e3, posComp{x: 3})
	Add(&w, e3, velComp{x: 3})

	srcArch := w.resolve(e1).arch
	require.Equal(t, 3, srcArch.len())

	Add(&w, e1, tagComp{})

	assert.True(t, Has[tagComp](&w, e1))
	assert.False(t, Has[tagComp](&w, e2))
	assert.False(t, Has[tagComp](&w, e3))

	// e2 must be untouched.
	p2, _ := Get[posComp](&w, e2)
	assert.Equal(t, float32(2), p2.x)

	// e3 must have been swap-moved into e1's old row.
	require.Equal(t, 2, srcArch.len())
	assert.Equal(t, e3, srcArch.entities[0])

	checkInvariant(t, &w)
}

func TestQuery2(t *testing.T) {
	var w World
	e1 := w.Create()
	Add(&w, e1, posComp{x: 1})
	Add(&w, e1, velComp{x: 1})
	e2 := w.Create()
	Add(&w, e2, posComp{x: 2}) // no velComp: excluded from Query2

	seen := map[Entity]bool{}
	Query2(&w, func(e Entity, p *posComp, v *velComp) bool {
		seen[e] = true
		return true
	})
	assert.True(t, seen[e1])
	assert.False(t, seen[e2])
}

func TestQueryEarlyExit(t *testing.T) {
	var w World
	for range 5 {
		e := w.Create()
		Add(&w, e, posComp{})
	}
	n := 0
	Query1(&w, func(e Entity, p *posComp) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}

func TestResources(t *testing.T) {
	var r Resources
	_, ok := Resource[int](&r)
	assert.False(t, ok)
	SetResource(&r, 42)
	v, ok := Resource[int](&r)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}
