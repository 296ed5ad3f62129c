// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

// Slicer is an inclusive [Start, End] multi-index naming a rectangular
// region against the store, in the store's own (innermost-first)
// dimension order.
type Slicer struct {
	Start []uint64
	End   []uint64
}

// RangeIterator walks the Cartesian product of a Mapping's
// per-dimension range lists, innermost-first, yielding one disk-side
// read request (a row Slicer plus a section Slicer) per step.
//
// A RangeIterator holds a non-owning reference to its Mapping and
// must not outlive it. It is not safe for concurrent use by multiple
// goroutines, but independent RangeIterators over the same Mapping
// are.
type RangeIterator struct {
	m      *Mapping
	index  []int
	// diskStart/rangeLen are the current range resolved to disk
	// coordinates; memStart is the running total of previously emitted
	// lengths in each dimension, reset to zero on rollover.
	diskStart  []uint64
	memStart   []uint64
	rangeLen   []uint64
	done       bool
}

// RangeBegin returns an iterator positioned at the first disjoint
// range.
func (m *Mapping) RangeBegin() *RangeIterator {
	it := &RangeIterator{
		m:         m,
		index:     make([]int, m.NDim()),
		diskStart: make([]uint64, m.NDim()),
		memStart:  make([]uint64, m.NDim()),
		rangeLen:  make([]uint64, m.NDim()),
	}
	it.updateState()
	return it
}

// Done reports whether the iterator has been advanced past the last
// disjoint range.
func (it *RangeIterator) Done() bool { return it.done }

// currentRange returns the Range currently selected in dimension dim.
func (it *RangeIterator) currentRange(dim int) Range {
	return it.m.ranges[dim][it.index[dim]]
}

func (it *RangeIterator) updateState() {
	for dim := 0; dim < it.m.NDim(); dim++ {
		r := it.currentRange(dim)
		switch r.Kind {
		case Free:
			it.diskStart[dim] = r.Start
			it.rangeLen[dim] = r.End - r.Start
		case Map:
			dimMaps := it.m.maps[dim]
			start := dimMaps[r.Start].Disk
			it.diskStart[dim] = start
			it.rangeLen[dim] = dimMaps[r.End-1].Disk - start + 1
		case Unconstrained:
			rr := it.currentRange(it.m.RowDim())
			if !rr.SingleRow() {
				panic("colmap: Unconstrained range requires a single-row row dimension")
			}
			it.diskStart[dim] = 0
			it.rangeLen[dim] = it.m.RowDimSize(rr.Start, dim)
		default:
			panic("colmap: unhandled RangeKind")
		}
	}
}

// Next advances the iterator to the next disjoint range, in
// innermost-first order. It panics if the iterator is already Done:
// out-of-contract iterator use is a programming bug, not a runtime
// error.
func (it *RangeIterator) Next() {
	if it.done {
		panic("colmap: Next called on a done RangeIterator")
	}
	rowDim := it.m.RowDim()
	for dim := 0; ; {
		it.index[dim]++
		it.memStart[dim] += it.rangeLen[dim]

		if it.index[dim] < len(it.m.ranges[dim]) {
			break
		}
		if dim < rowDim {
			it.index[dim] = 0
			it.memStart[dim] = 0
			dim++
			continue
		}
		it.done = true
		return
	}
	it.updateState()
}

// RowSlicer returns the 1-D inclusive slicer for the row dimension of
// the current disjoint range.
func (it *RangeIterator) RowSlicer() Slicer {
	if it.done {
		panic("colmap: RowSlicer called on a done RangeIterator")
	}
	rowDim := it.m.RowDim()
	start := it.diskStart[rowDim]
	length := it.rangeLen[rowDim]
	return Slicer{Start: []uint64{start}, End: []uint64{start + length - 1}}
}

// SectionSlicer returns the inclusive slicer for the inner (non-row)
// dimensions of the current disjoint range, in storage order.
func (it *RangeIterator) SectionSlicer() Slicer {
	if it.done {
		panic("colmap: SectionSlicer called on a done RangeIterator")
	}
	rowDim := it.m.RowDim()
	s := Slicer{Start: make([]uint64, rowDim), End: make([]uint64, rowDim)}
	for dim := 0; dim < rowDim; dim++ {
		s.Start[dim] = it.diskStart[dim]
		s.End[dim] = s.Start[dim] + it.rangeLen[dim] - 1
	}
	return s
}

// MemStart returns the running memory-buffer offset in dimension dim
// for the current disjoint range.
func (it *RangeIterator) MemStart(dim int) uint64 { return it.memStart[dim] }

// RangeLen returns the resolved disk-coordinate length of dimension
// dim for the current disjoint range.
func (it *RangeIterator) RangeLen(dim int) uint64 { return it.rangeLen[dim] }

// DiskStart returns the resolved disk-coordinate start of dimension
// dim for the current disjoint range.
func (it *RangeIterator) DiskStart(dim int) uint64 { return it.diskStart[dim] }

// RowDim returns the index of the row dimension of it's mapping.
func (it *RangeIterator) RowDim() int { return it.m.RowDim() }

// memIndex resolves the absolute destination ("mem") coordinate for
// chunkIdx, the dim'th element of the current disjoint range, in
// storage order.
//
// A Map range's entries already carry their true destination position
// in IdMap.Mem, which need not be monotonic with disk order when the
// caller's selection was not itself sorted; memStart's running count
// only applies to Free and Unconstrained ranges, where natural and
// destination order always coincide.
func (it *RangeIterator) memIndex(dim int, chunkIdx uint64) uint64 {
	r := it.currentRange(dim)
	if r.Kind == Map {
		return it.m.maps[dim][r.Start+chunkIdx].Mem
	}
	return it.memStart[dim] + chunkIdx
}

// Clone returns an independent copy of it, positioned at the same
// disjoint range. Advancing the clone does not affect it, and vice
// versa; this is what lets a caller fan a Mapping's ranges out across
// goroutines despite RangeIterator itself not being safe for
// concurrent use.
func (it *RangeIterator) Clone() *RangeIterator {
	clone := &RangeIterator{
		m:         it.m,
		index:     append([]int(nil), it.index...),
		diskStart: append([]uint64(nil), it.diskStart...),
		memStart:  append([]uint64(nil), it.memStart...),
		rangeLen:  append([]uint64(nil), it.rangeLen...),
		done:      it.done,
	}
	return clone
}
