// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

import "sort"

// Column is the store collaborator consumed by this package. A
// concrete implementation (see package store for a reference one)
// exposes just enough column metadata and range-read capability for
// Make to plan a Mapping; colmap never persists state of its own and
// never writes back to the store.
type Column interface {
	// Name identifies the column, for error messages.
	Name() string
	// IsFixedShape reports whether the column declares a single fixed
	// cell shape shared by every row.
	IsFixedShape() bool
	// NDim returns the column's declared cell dimensionality,
	// excluding the row dimension. Only meaningful when IsFixedShape.
	NDim() int
	// FixedShape returns the column's declared fixed cell shape.
	// Only meaningful when IsFixedShape.
	FixedShape() []uint64
	// NRow returns the column's row count.
	NRow() uint64
	// IsDefined reports whether row is defined in the store.
	IsDefined(row uint64) bool
	// Shape returns the cell shape of row. Only called on varying
	// columns, and only for defined rows.
	Shape(row uint64) []uint64
}

// VariableShapeData holds the per-row shape information collected for
// a column that declares a variable cell shape.
type VariableShapeData struct {
	// RowShapes holds the clipped shape of every row in scope, inner
	// dimensions only (row excluded).
	RowShapes [][]uint64
	// Offsets[d][r] is the partial product prod_{i<=d} RowShapes[r][i],
	// used by Mapping.FlatOffset to compute offsets into a variably
	// shaped output.
	Offsets [][]uint64
	// ndim is len(RowShapes[0]); every row has the same dimensionality
	// or construction would have failed.
	ndim int
	// uniform, when non-nil, is the shape shared by every row: the
	// column is "effectively fixed" despite its variable declaration.
	uniform []uint64
}

// IsActuallyFixed reports whether every row in scope happens to share
// the same clipped shape.
func (v *VariableShapeData) IsActuallyFixed() bool { return v.uniform != nil }

// NDim returns the number of inner dimensions, excluding row.
func (v *VariableShapeData) NDim() int { return v.ndim }

// clipShape clips shape, the declared cell shape of some row, against
// sel. Inner dimensions (every dimension but the row dimension, which
// is last) with a non-empty selection are validated and resized to
// the selection's length; id's out of bounds are an Invalid error.
// A selection of at most the row dimension (len(sel) <= 1) needs no
// clipping.
func clipShape(shape []uint64, sel Selection) ([]uint64, error) {
	if len(sel) <= 1 {
		return shape, nil
	}
	clipped := append([]uint64(nil), shape...)
	ndim := len(shape) + 1
	for dim := 0; dim < len(shape); dim++ {
		ids, ok := dimSelection(sel, dim, ndim)
		if !ok {
			continue
		}
		for _, i := range ids {
			if i >= clipped[dim] {
				return nil, errf(Invalid, "selection index %d exceeds dimension %d of shape %v", i, dim, shape)
			}
		}
		clipped[dim] = uint64(len(ids))
	}
	return clipped, nil
}

func shapesEqual(a, b []uint64) bool {
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

// makeVariableShapeData reads and clips the shape of every row in
// scope for a variably-shaped column, and derives the offset tables
// used for flat-offset computation.
func makeVariableShapeData(col Column, sel Selection) (*VariableShapeData, error) {
	rowDim := len(sel) - 1

	var rows []uint64
	if len(sel) == 0 || len(sel[rowDim]) == 0 {
		n := col.NRow()
		rows = make([]uint64, n)
		for i := range rows {
			rows[i] = uint64(i)
		}
	} else {
		// Sort ahead of makeMaps's own sort on the same id list, so
		// RowShapes[r] names the same row as the r'th entry of the
		// sorted row ColumnMap: both the variable-shape row ranges
		// (ranges.go) and the row map (idmap.go) index rows by
		// ascending disk id, not by selection order.
		rows = append(RowIDs(nil), sel[rowDim]...)
		sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
	}

	rowShapes := make([][]uint64, 0, len(rows))
	fixedShape := true
	fixedDims := true

	for i, r := range rows {
		if !col.IsDefined(r) {
			return nil, errf(NotImplemented, "row %d in column %s is not defined", r, col.Name())
		}
		shape, err := clipShape(col.Shape(r), sel)
		if err != nil {
			return nil, err
		}
		rowShapes = append(rowShapes, shape)
		if i == 0 {
			continue
		}
		fixedShape = fixedShape && shapesEqual(rowShapes[i], rowShapes[0])
		fixedDims = fixedDims && len(rowShapes[i]) == len(rowShapes[0])
	}

	if !fixedDims {
		return nil, errf(NotImplemented, "column %s dimensions vary per row", col.Name())
	}

	nrow := len(rowShapes)
	ndim := 0
	if nrow > 0 {
		ndim = len(rowShapes[0])
	}

	offsets := make([][]uint64, ndim)
	for d := range offsets {
		offsets[d] = make([]uint64, nrow)
	}
	for r := 0; r < nrow; r++ {
		product := uint64(1)
		for dim := 0; dim < ndim; dim++ {
			product *= rowShapes[r][dim]
			offsets[dim][r] = product
		}
	}

	var uniform []uint64
	if fixedShape && nrow > 0 {
		uniform = rowShapes[0]
	}

	return &VariableShapeData{
		RowShapes: rowShapes,
		Offsets:   offsets,
		ndim:      ndim,
		uniform:   uniform,
	}, nil
}

// ShapeProvider answers shape questions about a (Column, Selection)
// pair: whether the shape is statically fixed, dynamically uniform,
// or varying, and what size each dimension resolves to.
type ShapeProvider struct {
	column  Column
	sel     Selection
	varData *VariableShapeData // nil for a declared-fixed column
}

// NewShapeProvider constructs a ShapeProvider for col under sel,
// reading per-row shapes from the store if col declares a variable
// shape.
func NewShapeProvider(col Column, sel Selection) (*ShapeProvider, error) {
	if col.IsFixedShape() {
		return &ShapeProvider{column: col, sel: sel}, nil
	}
	varData, err := makeVariableShapeData(col, sel)
	if err != nil {
		return nil, err
	}
	return &ShapeProvider{column: col, sel: sel, varData: varData}, nil
}

// IsDefinitelyFixed reports whether the column declares a fixed
// shape.
func (p *ShapeProvider) IsDefinitelyFixed() bool { return p.varData == nil }

// IsVarying is the negation of IsDefinitelyFixed.
func (p *ShapeProvider) IsVarying() bool { return !p.IsDefinitelyFixed() }

// IsActuallyFixed reports whether the column has a fixed shape in
// practice: either it is declared fixed, or it declares a variable
// shape but every row in scope happens to share one.
func (p *ShapeProvider) IsActuallyFixed() bool {
	return p.IsDefinitelyFixed() || p.varData.IsActuallyFixed()
}

// NDim returns the total dimensionality exposed, including the
// appended row dimension.
func (p *ShapeProvider) NDim() int {
	if p.IsDefinitelyFixed() {
		return p.column.NDim() + 1
	}
	return p.varData.NDim() + 1
}

// RowDim returns the index of the row dimension: always the last,
// slowest-varying one.
func (p *ShapeProvider) RowDim() int { return p.NDim() - 1 }

// DimSize resolves the size of dimension dim.
func (p *ShapeProvider) DimSize(dim int) (uint64, error) {
	ndim := p.NDim()
	if ids, ok := dimSelection(p.sel, dim, ndim); ok {
		return uint64(len(ids)), nil
	}
	if dim == p.RowDim() {
		return p.column.NRow(), nil
	}
	if p.IsDefinitelyFixed() {
		return p.column.FixedShape()[dim], nil
	}
	if !p.varData.IsActuallyFixed() {
		return 0, errf(IndexError, "dimension %d in column %s is not fixed", dim, p.column.Name())
	}
	return p.varData.uniform[dim], nil
}

// RowDimSize returns the size of dimension dim for a specific row.
// Only defined for varying columns.
func (p *ShapeProvider) RowDimSize(row uint64, dim int) uint64 {
	return p.varData.RowShapes[row][dim]
}
