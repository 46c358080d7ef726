// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package ecs

import "reflect"

// Resources is a side table of singleton, non-entity values
// attached to a World — the camera, the static-geometry
// snapshot, the per-frame light list, and similar globally
// shared state that every mesh pass reads.
//
// The zero value is ready to use.
type Resources struct {
	vals map[reflect.Type]any
}

// SetResource stores value as the singleton resource of its
// dynamic type, replacing any previous value of that type.
func SetResource[T any](r *Resources, value T) {
	if r.vals == nil {
		r.vals = make(map[reflect.Type]any)
	}
	r.vals[reflect.TypeOf(value)] = value
}

// Resource returns the singleton resource of type T, and
// whether one has been set.
func Resource[T any](r *Resources) (T, bool) {
	var zero T
	if r.vals == nil {
		return zero, false
	}
	t := reflect.TypeOf(zero)
	if t == nil {
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	v, ok := r.vals[t]
	if !ok {
		return zero, false
	}
	return v.(T), true
}
