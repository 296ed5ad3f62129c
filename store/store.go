// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package store provides a reference, in-memory implementation of the
// column collaborator consumed by package colmap, along with a
// Gather helper that drives a Mapping's iteration protocol to fill a
// flat output buffer.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"golang.org/x/sync/errgroup"

	"colmap"
)

// rowItem is a btree.Item naming a single defined row id.
type rowItem uint64

func (r rowItem) Less(than btree.Item) bool { return r < than.(rowItem) }

// Column is an in-memory, float64-valued column. Fixed-shape columns
// store their cells in one contiguous row-major array, mirroring how
// a fixed-shape column is packed on disk; variable-shape columns
// store one packed array per row, since rows are never contiguous
// with each other in that case.
//
// Column tracks which rows are defined in a btree ordered by row id,
// so Gather and IsDefined never need to scan every row.
//
// Column is safe for concurrent reads; Put must not race with reads
// or with other Puts.
type Column struct {
	name string

	mu         sync.RWMutex
	fixedShape []uint64 // nil if the column declares a variable shape
	cellSize   uint64   // product of fixedShape, 0 for a variable column
	nrow       uint64
	defined    *btree.BTree
	shapes     map[uint64][]uint64 // set only for variable columns
	fixedData  []float64           // set only for fixed columns, length nrow*cellSize
	varCells   map[uint64][]float64
}

// NewFixed creates a Column with nrow rows, every one of the given
// fixed cell shape.
func NewFixed(name string, nrow uint64, shape []uint64) *Column {
	size := uint64(1)
	for _, s := range shape {
		size *= s
	}
	return &Column{
		name:       name,
		fixedShape: append([]uint64(nil), shape...),
		cellSize:   size,
		nrow:       nrow,
		defined:    btree.New(32),
		fixedData:  make([]float64, nrow*size),
	}
}

// NewVariable creates a Column with nrow rows and a per-row variable
// cell shape, set by later Put calls.
func NewVariable(name string, nrow uint64) *Column {
	return &Column{
		name:     name,
		nrow:     nrow,
		defined:  btree.New(32),
		shapes:   make(map[uint64][]uint64),
		varCells: make(map[uint64][]float64),
	}
}

// Put stores the cell data for row, packed row-major (innermost
// dimension fastest-varying) according to shape. For a fixed-shape
// column, shape must equal the column's declared shape.
func (c *Column) Put(row uint64, shape []uint64, data []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row >= c.nrow {
		return errors.E(errors.Invalid, fmt.Sprintf("store: row %d exceeds column %s size %d", row, c.name, c.nrow))
	}
	n := uint64(1)
	for _, s := range shape {
		n *= s
	}
	if uint64(len(data)) != n {
		return errors.E(errors.Invalid, fmt.Sprintf("store: row %d has %d cells, data has %d elements", row, n, len(data)))
	}

	if c.fixedShape != nil {
		if !shapeEqual(shape, c.fixedShape) {
			return errors.E(errors.Invalid, fmt.Sprintf("store: row %d shape %v does not match fixed shape %v", row, shape, c.fixedShape))
		}
		copy(c.fixedData[row*c.cellSize:(row+1)*c.cellSize], data)
	} else {
		c.shapes[row] = append([]uint64(nil), shape...)
		c.varCells[row] = append([]float64(nil), data...)
	}
	c.defined.ReplaceOrInsert(rowItem(row))
	return nil
}

func shapeEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Name implements colmap.Column.
func (c *Column) Name() string { return c.name }

// IsFixedShape implements colmap.Column.
func (c *Column) IsFixedShape() bool { return c.fixedShape != nil }

// NDim implements colmap.Column.
func (c *Column) NDim() int { return len(c.fixedShape) }

// FixedShape implements colmap.Column.
func (c *Column) FixedShape() []uint64 { return c.fixedShape }

// NRow implements colmap.Column.
func (c *Column) NRow() uint64 { return c.nrow }

// IsDefined implements colmap.Column.
func (c *Column) IsDefined(row uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defined.Has(rowItem(row))
}

// Shape implements colmap.Column.
func (c *Column) Shape(row uint64) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fixedShape != nil {
		return c.fixedShape
	}
	return c.shapes[row]
}

// DefinedRows returns every defined row id in ascending order.
func (c *Column) DefinedRows() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows := make([]uint64, 0, c.defined.Len())
	c.defined.Ascend(func(it btree.Item) bool {
		rows = append(rows, uint64(it.(rowItem)))
		return true
	})
	return rows
}

// naturalOffset computes the row-major (dim 0 fastest) flat offset of
// coord within shape.
func naturalOffset(shape []uint64, coord []uint64) uint64 {
	var result, product uint64 = 0, 1
	for dim := 0; dim < len(shape); dim++ {
		result += coord[dim] * product
		product *= shape[dim]
	}
	return result
}

// Gather drives m's disjoint-range and scatter iteration protocol to
// fill out, a flat buffer of length m.NElements() addressed by
// Mapping.FlatOffset. Disjoint ranges are read concurrently, bounded
// by parallelism.
func Gather(ctx context.Context, m *colmap.Mapping, col *Column, out []float64, parallelism int) error {
	if want := m.NElements(); uint64(len(out)) != want {
		return errors.E(errors.Invalid, fmt.Sprintf("store: output buffer has %d elements, mapping wants %d", len(out), want))
	}

	if parallelism < 1 {
		parallelism = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, parallelism)

	for it := m.RangeBegin(); !it.Done(); it.Next() {
		snapshot := it.Clone()
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			return gatherRange(ctx, col, snapshot, out)
		})
	}
	return g.Wait()
}

// gatherRange resolves every element of the disjoint range it is
// positioned at, reading source data directly out of col's natural
// storage layout at the element's disk coordinate and scattering it
// to out at the element's flat offset.
func gatherRange(ctx context.Context, col *Column, it *colmap.RangeIterator, out []float64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rowDim := it.RowDim()
	mi := it.MapBegin()
	for !mi.Done() {
		row := it.DiskStart(rowDim) + mi.ChunkIndex(rowDim)
		if !col.IsDefined(row) {
			log.Error.Printf("store: row %d in column %s is not defined, skipping", row, col.Name())
			mi.Next()
			continue
		}
		out[mi.GlobalOffset()] = col.readElement(row, it, mi)
		mi.Next()
	}
	return nil
}

// readElement returns the source value at the disk coordinate named
// by it and mi for row.
func (c *Column) readElement(row uint64, it *colmap.RangeIterator, mi *colmap.MapIterator) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rowDim := it.RowDim()
	coord := make([]uint64, rowDim)
	for dim := 0; dim < rowDim; dim++ {
		coord[dim] = it.DiskStart(dim) + mi.ChunkIndex(dim)
	}

	if c.fixedShape != nil {
		return c.fixedData[row*c.cellSize+naturalOffset(c.fixedShape, coord)]
	}
	return c.varCells[row][naturalOffset(c.shapes[row], coord)]
}
