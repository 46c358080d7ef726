// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package ecs

import "sort"

// componentID identifies a registered component type within
// a World. IDs are assigned in first-seen order and are not
// stable across different World instances.
type componentID int

// typeKey is the unordered set of component types that define
// an archetype, canonicalized as a sorted slice so it can be
// turned into a comparable map key.
type typeKey []componentID

func newTypeKey(ids ...componentID) typeKey {
	k := append(typeKey(nil), ids...)
	sort.Slice(k, func(i, j int) bool { return k[i] < k[j] })
	return k
}

// with returns the key formed by adding id, if not already present.
func (k typeKey) with(id componentID) typeKey {
	for _, x := range k {
		if x == id {
			return k
		}
	}
	nk := make(typeKey, len(k)+1)
	copy(nk, k)
	nk[len(k)] = id
	sort.Slice(nk, func(i, j int) bool { return nk[i] < nk[j] })
	return nk
}

// without returns the key formed by removing id, if present.
func (k typeKey) without(id componentID) typeKey {
	nk := make(typeKey, 0, len(k))
	for _, x := range k {
		if x != id {
			nk = append(nk, x)
		}
	}
	return nk
}

func (k typeKey) has(id componentID) bool {
	for _, x := range k {
		if x == id {
			return true
		}
	}
	return false
}

// superset reports whether k contains every id in ids.
func (k typeKey) superset(ids []componentID) bool {
	for _, id := range ids {
		if !k.has(id) {
			return false
		}
	}
	return true
}

// String renders a canonical map key for k.
// Keys are small (component counts per entity rarely exceed a
// few dozen), so a simple fixed-width encoding is sufficient
// and avoids allocating through fmt.
func (k typeKey) String() string {
	buf := make([]byte, 0, len(k)*8)
	for _, id := range k {
		buf = append(buf,
			byte(id>>24), byte(id>>16), byte(id>>8), byte(id),
			'|',
		)
	}
	return string(buf)
}

// archetype groups entities that share an identical set of
// component types. Columns and the entity column always have
// the same length.
type archetype struct {
	key      typeKey
	columns  map[componentID]column
	entities []Entity
}

func newArchetype(key typeKey, makeColumn map[componentID]func() column) *archetype {
	a := &archetype{
		key:     key,
		columns: make(map[componentID]column, len(key)),
	}
	for _, id := range key {
		a.columns[id] = makeColumn[id]()
	}
	return a
}

func (a *archetype) len() int { return len(a.entities) }

// appendZero appends a new row with zero-valued components
// for every column, plus e in the entity column. It returns
// the new row index.
func (a *archetype) appendZero(e Entity) int {
	for _, c := range a.columns {
		c.appendZero()
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// swapRemove removes row i, swapping the last row into its
// place. It returns the Entity that was moved into i, or Nil
// if i was already the last row.
func (a *archetype) swapRemove(i int) Entity {
	last := len(a.entities) - 1
	var moved Entity
	if i != last {
		moved = a.entities[last]
	}
	for _, c := range a.columns {
		c.swapRemove(i)
	}
	a.entities[i] = a.entities[last]
	a.entities = a.entities[:last]
	return moved
}
