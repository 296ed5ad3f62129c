// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

import "sort"

// IdMap pairs a disk-side row id with the position it occupies in the
// output ("memory") along one dimension.
type IdMap struct {
	Disk uint64
	Mem  uint64
}

// ColumnMap is the sorted (by Disk) set of IdMaps for one dimension.
// A nil/empty ColumnMap means the dimension has no selection: it is
// read in full, in natural order.
type ColumnMap []IdMap

// ColumnMaps holds one ColumnMap per dimension, in storage order.
type ColumnMaps []ColumnMap

// makeMaps builds, for every dimension of prov, the sorted
// disk-to-memory association implied by sel. Dimensions with no
// selection get an empty ColumnMap.
//
// Sorting by disk id is what lets makeRanges coalesce adjacent ids
// into a single contiguous read; Mem preserves the caller's requested
// destination position despite the reorder.
func makeMaps(prov *ShapeProvider, sel Selection) ColumnMaps {
	ndim := prov.NDim()
	maps := make(ColumnMaps, ndim)
	for dim := 0; dim < ndim; dim++ {
		ids, ok := dimSelection(sel, dim, ndim)
		if !ok {
			continue
		}
		m := make(ColumnMap, len(ids))
		for i, id := range ids {
			m[i] = IdMap{Disk: id, Mem: uint64(i)}
		}
		sort.SliceStable(m, func(i, j int) bool { return m[i].Disk < m[j].Disk })
		maps[dim] = m
	}
	return maps
}
