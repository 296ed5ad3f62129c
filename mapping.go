// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Mapping is the immutable result of planning reads for one
// (Column, Selection) pair. It is built once by Make, read
// concurrently by any number of iterator instances, and holds no
// reference back to the store beyond what Column itself retains.
type Mapping struct {
	column Column
	maps   ColumnMaps
	ranges ColumnRanges
	shape  *ShapeProvider
	// outputShape is nil when any dimension carries an Unconstrained
	// range: no single dense output shape exists in that case.
	outputShape []uint64
}

// Make builds a Mapping for col under sel. order describes the
// dimension order sel was supplied in; it defaults to OuterFirst.
//
// Make fails fast on the first shape or validity error: a Mapping
// either constructs fully or not at all, and iteration performs no
// further validation.
func Make(col Column, sel Selection, order InputOrder) (*Mapping, error) {
	sel = normalize(sel, order)

	shape, err := NewShapeProvider(col, sel)
	if err != nil {
		return nil, err
	}
	if len(sel) > shape.NDim() {
		return nil, errf(Invalid, "selection has %d dimensions, column %s has %d", len(sel), col.Name(), shape.NDim())
	}
	maps := makeMaps(shape, sel)
	ranges, err := makeRanges(shape, maps)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, errf(ExecutionError, "zero ranges generated for column %s", col.Name())
	}
	outputShape, ok := maybeOutputShape(ranges)
	if !ok {
		outputShape = nil
	}

	return &Mapping{
		column:      col,
		maps:        maps,
		ranges:      ranges,
		shape:       shape,
		outputShape: outputShape,
	}, nil
}

// NDim returns the total dimensionality of the mapping, including
// the row dimension.
func (m *Mapping) NDim() int { return m.shape.NDim() }

// RowDim returns the index of the (always last) row dimension.
func (m *Mapping) RowDim() int { return m.shape.RowDim() }

// DimMaps returns the ColumnMap for dimension dim.
func (m *Mapping) DimMaps(dim int) ColumnMap { return m.maps[dim] }

// DimRanges returns the ColumnRange for dimension dim.
func (m *Mapping) DimRanges(dim int) ColumnRange { return m.ranges[dim] }

// IsFixedShape reports whether the mapping has a fixed shape in
// practice (see ShapeProvider.IsActuallyFixed).
func (m *Mapping) IsFixedShape() bool { return m.shape.IsActuallyFixed() }

// OutputShape returns the per-dimension output sizes, and ok=false if
// the column's variable shape means no single dense shape exists (the
// caller must then consume per-row buffers instead).
func (m *Mapping) OutputShape() (shape []uint64, ok bool) {
	return m.outputShape, m.outputShape != nil
}

// RowDimSize returns the size of dimension dim for a specific row.
// Only meaningful for varying columns.
func (m *Mapping) RowDimSize(row uint64, dim int) uint64 {
	return m.shape.RowDimSize(row, dim)
}

// NRanges returns the number of disjoint disk-side read requests this
// mapping plans: the product of each dimension's range count.
func (m *Mapping) NRanges() int {
	n := 1
	for _, rs := range m.ranges {
		n *= len(rs)
	}
	return n
}

// NElements returns the total number of logical elements the mapping
// will produce.
func (m *Mapping) NElements() uint64 {
	rowDim := m.RowDim()
	rowRanges := m.ranges[rowDim]
	var elements uint64

	for rr, rowRange := range rowRanges {
		rowElements := rowRange.Len()
		for dim := 0; dim < rowDim; dim++ {
			var dimElements uint64
			for _, r := range m.ranges[dim] {
				if r.Kind == Unconstrained {
					dimElements += m.shape.RowDimSize(uint64(rr), dim)
				} else {
					dimElements += r.Len()
				}
			}
			rowElements *= dimElements
		}
		elements += rowElements
	}
	return elements
}

// IsSimple reports whether the entire selection collapses to a single
// contiguous read whose destination is also contiguous, letting the
// caller bypass the scatter loop for a single bulk copy.
func (m *Mapping) IsSimple() bool {
	for dim := 0; dim < m.NDim(); dim++ {
		cm := m.maps[dim]
		cr := m.ranges[dim]
		if len(cr) > 1 {
			return false
		}
		for _, r := range cr {
			if r.Kind != Map {
				continue
			}
			for i := r.Start + 1; i < r.End; i++ {
				if cm[i].Mem-cm[i-1].Mem != 1 || cm[i].Disk-cm[i-1].Disk != 1 {
					return false
				}
			}
		}
	}
	return true
}

// FlatOffset computes the position in the flat output buffer named by
// index, a global (per-dimension) index in storage order.
func (m *Mapping) FlatOffset(index []uint64) uint64 {
	rowDim := m.RowDim()
	if m.outputShape != nil {
		var result, product uint64 = 0, 1
		for dim := 0; dim < rowDim; dim++ {
			result += index[dim] * product
			product *= m.outputShape[dim]
		}
		return result + product*index[rowDim]
	}

	// Offsets are indexed by position in the disk-sorted row map, while
	// row is a destination (selection-order) coordinate: find row's
	// position, and sum the sizes of every row placed before it.
	offsets := m.shape.varData.Offsets
	row := index[rowDim]
	rowOffsets := offsets[len(offsets)-1]
	pos := row
	var sum uint64
	if rowMap := m.maps[rowDim]; len(rowMap) > 0 {
		for p, e := range rowMap {
			if e.Mem == row {
				pos = uint64(p)
			} else if e.Mem < row {
				sum += rowOffsets[p]
			}
		}
	} else {
		for _, o := range rowOffsets[:row] {
			sum += o
		}
	}
	result := index[0]
	for dim := 1; dim < rowDim; dim++ {
		result += index[dim] * offsets[dim-1][pos]
	}
	return result + sum
}

// Fingerprint returns a content hash of the mapping's maps and
// ranges. Two Mappings built from structurally equal (column state,
// selection) pairs produce the same fingerprint; it is intended as a
// cheap memoization key for callers that build the same Mapping
// repeatedly.
func (m *Mapping) Fingerprint() uint64 {
	h := murmur3.New64()
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	for _, cm := range m.maps {
		putU64(uint64(len(cm)))
		for _, e := range cm {
			putU64(e.Disk)
			putU64(e.Mem)
		}
	}
	for _, cr := range m.ranges {
		putU64(uint64(len(cr)))
		for _, r := range cr {
			putU64(r.Start)
			putU64(r.End)
			putU64(uint64(r.Kind))
		}
	}
	return h.Sum64()
}
