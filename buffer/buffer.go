// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package buffer provides a flat, reflect-typed output buffer
// addressed by a colmap.Mapping's flat offsets. A buffer is always a
// single densely packed vector: the destination of a
// Mapping's scatter pass has no row/column structure of its own, only
// the shape the Mapping itself describes.
package buffer

import (
	"fmt"
	"reflect"

	"colmap"
)

// Buffer is a flat vector of values, represented as a reflect.Value
// so that a single implementation serves every element type a column
// might hold.
type Buffer struct {
	v reflect.Value // a slice
}

// Make allocates a Buffer of elemType with length n.
func Make(elemType reflect.Type, n uint64) Buffer {
	return Buffer{v: reflect.MakeSlice(reflect.SliceOf(elemType), int(n), int(n))}
}

// MakeFor allocates a Buffer sized to hold every element m.NElements
// describes.
func MakeFor(m *colmap.Mapping, elemType reflect.Type) Buffer {
	return Make(elemType, m.NElements())
}

// Of wraps an existing slice as a Buffer.
func Of(slice interface{}) Buffer {
	v := reflect.ValueOf(slice)
	if v.Kind() != reflect.Slice {
		panic(fmt.Sprintf("buffer: Of expects a slice, got %T", slice))
	}
	return Buffer{v: v}
}

// Len returns the buffer's length.
func (b Buffer) Len() int { return b.v.Len() }

// ElemType returns the buffer's element type.
func (b Buffer) ElemType() reflect.Type { return b.v.Type().Elem() }

// Interface returns the buffer's backing slice as an empty interface.
func (b Buffer) Interface() interface{} { return b.v.Interface() }

// Index returns the value at flat offset i.
func (b Buffer) Index(i uint64) reflect.Value { return b.v.Index(int(i)) }

// Set sets the value at flat offset i.
func (b Buffer) Set(i uint64, val reflect.Value) { b.v.Index(int(i)).Set(val) }

// Scatter stores the single value src at the buffer position named by
// a Mapping's flat offset.
// It is the single-element primitive a Gather-style driver calls once
// per element of a colmap.MapIterator's walk.
func (b Buffer) Scatter(flatOffset uint64, src reflect.Value) {
	b.v.Index(int(flatOffset)).Set(src)
}

// Reshape returns the buffer's contents as a nested slice matching
// shape, in row-major (dim 0 fastest) order, the same convention
// Mapping.FlatOffset uses. Reshape panics if the buffer's length does
// not equal the product of shape.
func (b Buffer) Reshape(shape []uint64) interface{} {
	want := uint64(1)
	for _, s := range shape {
		want *= s
	}
	if uint64(b.Len()) != want {
		panic(fmt.Sprintf("buffer: Reshape: buffer has %d elements, shape %v wants %d", b.Len(), shape, want))
	}
	return reshape(b.v, shape)
}

// reshape builds nested slices outside-in: shape's last entry is the
// outermost (slowest-varying) dimension, matching FlatOffset's
// convention that dimension 0 is fastest-varying.
func reshape(flat reflect.Value, shape []uint64) interface{} {
	if len(shape) <= 1 {
		return flat.Interface()
	}
	outer := shape[len(shape)-1]
	inner := shape[:len(shape)-1]
	innerLen := uint64(1)
	for _, s := range inner {
		innerLen *= s
	}
	elemType := flat.Type()
	for i := 1; i < len(inner); i++ {
		elemType = reflect.SliceOf(elemType)
	}
	sliceType := reflect.SliceOf(elemType)
	out := reflect.MakeSlice(sliceType, int(outer), int(outer))
	for i := uint64(0); i < outer; i++ {
		sub := flat.Slice(int(i*innerLen), int((i+1)*innerLen))
		out.Index(int(i)).Set(reflect.ValueOf(reshape(sub, inner)))
	}
	return out.Interface()
}
