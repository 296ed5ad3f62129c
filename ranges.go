// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

// RangeKind tags how a Range's [Start, End) bounds should be read.
type RangeKind int

const (
	// Free is a natural contiguous span on disk; Start/End are disk
	// coordinates.
	Free RangeKind = iota
	// Map is a contiguous run within a sorted ColumnMap; Start/End are
	// indices into that map, not disk coordinates.
	Map
	// Unconstrained is a range whose size is unknown until a specific
	// row is chosen. It is only legal on a non-row dimension when
	// shapes vary row by row and the companion row-dimension range is a
	// single row.
	Unconstrained
)

// Range is a contiguous span, tagged with how it was derived, along
// one dimension. End is exclusive.
type Range struct {
	Start uint64
	End   uint64
	Kind  RangeKind
}

// Len returns End - Start.
func (r Range) Len() uint64 { return r.End - r.Start }

// SingleRow reports whether this range spans exactly one row.
func (r Range) SingleRow() bool { return r.Len() == 1 }

// ColumnRange is the list of Ranges covering one dimension.
type ColumnRange []Range

// ColumnRanges holds one ColumnRange per dimension, in storage order;
// it is never empty for a successfully constructed Mapping.
type ColumnRanges []ColumnRange

// coalesce scans a sorted ColumnMap and emits Map ranges covering
// runs of consecutive disk ids.
func coalesce(m ColumnMap) ColumnRange {
	out := ColumnRange{}
	cur := Range{Start: 0, End: 1, Kind: Map}
	for i := 1; i < len(m); i++ {
		if m[i].Disk-m[i-1].Disk == 1 {
			cur.End++
			continue
		}
		out = append(out, cur)
		cur = Range{Start: uint64(i), End: uint64(i + 1), Kind: Map}
	}
	return append(out, cur)
}

// makeFixedRanges builds ranges for a column whose shape is (or has
// turned out to be) fixed: every row has the same shape, so ranges
// may span multiple rows.
func makeFixedRanges(prov *ShapeProvider, maps ColumnMaps) (ColumnRanges, error) {
	ndim := prov.NDim()
	ranges := make(ColumnRanges, ndim)
	for dim := 0; dim < ndim; dim++ {
		if dim >= len(maps) || len(maps[dim]) == 0 {
			size, err := prov.DimSize(dim)
			if err != nil {
				return nil, err
			}
			ranges[dim] = ColumnRange{{Start: 0, End: size, Kind: Free}}
			continue
		}
		ranges[dim] = coalesce(maps[dim])
	}
	return ranges, nil
}

// makeVariableRanges builds ranges for a column whose shape varies
// row by row. Non-row dimensions with no selection become a single
// Unconstrained range (size resolved per row); the row dimension is
// always split into single-row ranges, which is what makes that
// Unconstrained range unambiguous.
func makeVariableRanges(prov *ShapeProvider, maps ColumnMaps) (ColumnRanges, error) {
	ndim := prov.NDim()
	rowDim := ndim - 1
	ranges := make(ColumnRanges, ndim)

	for dim := 0; dim < rowDim; dim++ {
		if dim >= len(maps) || len(maps[dim]) == 0 {
			ranges[dim] = ColumnRange{{Start: 0, End: 0, Kind: Unconstrained}}
			continue
		}
		ranges[dim] = coalesce(maps[dim])
	}

	var rowRange ColumnRange
	if len(maps) == 0 || len(maps[rowDim]) == 0 {
		size, err := prov.DimSize(rowDim)
		if err != nil {
			return nil, err
		}
		rowRange = make(ColumnRange, size)
		for r := uint64(0); r < size; r++ {
			rowRange[r] = Range{Start: r, End: r + 1, Kind: Free}
		}
	} else {
		rowMaps := maps[rowDim]
		rowRange = make(ColumnRange, len(rowMaps))
		for r := range rowMaps {
			rowRange[r] = Range{Start: uint64(r), End: uint64(r + 1), Kind: Map}
		}
	}
	ranges[rowDim] = rowRange

	return ranges, nil
}

// makeRanges dispatches to the fixed or variable range planner
// depending on whether prov's shape is fixed in practice.
func makeRanges(prov *ShapeProvider, maps ColumnMaps) (ColumnRanges, error) {
	if prov.IsActuallyFixed() {
		return makeFixedRanges(prov, maps)
	}
	return makeVariableRanges(prov, maps)
}

// maybeOutputShape sums per-range lengths per dimension. It returns
// (nil, false) if any dimension contains an Unconstrained range: in
// that case no single dense output shape exists.
func maybeOutputShape(ranges ColumnRanges) ([]uint64, bool) {
	shape := make([]uint64, len(ranges))
	for dim, rs := range ranges {
		var size uint64
		for _, r := range rs {
			if r.Kind == Unconstrained {
				return nil, false
			}
			size += r.Len()
		}
		shape[dim] = size
	}
	return shape, true
}
