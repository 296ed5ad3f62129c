// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

// testColumn is a minimal Column implementation for unit tests: it
// holds declared metadata plus, for variable columns, a per-row shape
// table. It never stores cell data, since these tests exercise
// planning only.
type testColumn struct {
	name    string
	fixed   bool
	shape   []uint64 // fixed cell shape, when fixed
	nrow    uint64
	shapes  map[uint64][]uint64 // per-row shape, when !fixed
	missing map[uint64]bool
}

func (c *testColumn) Name() string         { return c.name }
func (c *testColumn) IsFixedShape() bool   { return c.fixed }
func (c *testColumn) NDim() int            { return len(c.shape) }
func (c *testColumn) FixedShape() []uint64 { return c.shape }
func (c *testColumn) NRow() uint64         { return c.nrow }

func (c *testColumn) IsDefined(row uint64) bool {
	return !c.missing[row]
}

func (c *testColumn) Shape(row uint64) []uint64 {
	return c.shapes[row]
}

func fixedTestColumn(nrow uint64, shape []uint64) *testColumn {
	return &testColumn{name: "DATA", fixed: true, shape: shape, nrow: nrow}
}

func variableTestColumn(shapes [][]uint64) *testColumn {
	c := &testColumn{name: "VAR_DATA", nrow: uint64(len(shapes)), shapes: map[uint64][]uint64{}}
	for i, s := range shapes {
		c.shapes[uint64(i)] = s
	}
	return c
}
