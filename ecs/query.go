// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package ecs

// Query1 visits every live entity that carries a component of
// type A, calling f with the entity and a pointer to its A.
// Iteration stops early if f returns false. Entities within a
// single archetype are visited in storage (insertion) order;
// the order archetypes are visited in is unspecified.
func Query1[A any](w *World, f func(e Entity, a *A) bool) {
	idA := componentIDFor[A](w)
	for _, arch := range w.archetypes {
		colA, ok := arch.columns[idA]
		if !ok {
			continue
		}
		ca := colA.(*typedColumn[A])
		for i, e := range arch.entities {
			if !f(e, &ca.data[i]) {
				return
			}
		}
	}
}

// Query2 visits every live entity that carries components of
// both type A and type B. See Query1 for iteration order.
func Query2[A, B any](w *World, f func(e Entity, a *A, b *B) bool) {
	idA := componentIDFor[A](w)
	idB := componentIDFor[B](w)
	for _, arch := range w.archetypes {
		colA, ok := arch.columns[idA]
		if !ok {
			continue
		}
		colB, ok := arch.columns[idB]
		if !ok {
			continue
		}
		ca := colA.(*typedColumn[A])
		cb := colB.(*typedColumn[B])
		for i, e := range arch.entities {
			if !f(e, &ca.data[i], &cb.data[i]) {
				return
			}
		}
	}
}

// Query3 visits every live entity that carries components of
// type A, B and C. See Query1 for iteration order.
func Query3[A, B, C any](w *World, f func(e Entity, a *A, b *B, c *C) bool) {
	idA := componentIDFor[A](w)
	idB := componentIDFor[B](w)
	idC := componentIDFor[C](w)
	for _, arch := range w.archetypes {
		colA, ok := arch.columns[idA]
		if !ok {
			continue
		}
		colB, ok := arch.columns[idB]
		if !ok {
			continue
		}
		colC, ok := arch.columns[idC]
		if !ok {
			continue
		}
		ca := colA.(*typedColumn[A])
		cb := colB.(*typedColumn[B])
		cc := colC.(*typedColumn[C])
		for i, e := range arch.entities {
			if !f(e, &ca.data[i], &cb.data[i], &cc.data[i]) {
				return
			}
		}
	}
}
