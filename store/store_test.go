// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"testing"

	"colmap"
)

func TestGatherFixedNoSelection(t *testing.T) {
	col := NewFixed("DATA", 3, []uint64{2, 2})
	want := [][]float64{
		{0, 1, 2, 3},
		{10, 11, 12, 13},
		{20, 21, 22, 23},
	}
	for r, data := range want {
		if err := col.Put(uint64(r), []uint64{2, 2}, data); err != nil {
			t.Fatal(err)
		}
	}

	m, err := colmap.Make(col, nil, colmap.OuterFirst)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]float64, m.NElements())
	if err := Gather(context.Background(), m, col, out, 4); err != nil {
		t.Fatal(err)
	}

	// Row-major, row outermost: out[row*4 + local] == want[row][local].
	for r := 0; r < 3; r++ {
		for local := 0; local < 4; local++ {
			got := out[r*4+local]
			want := want[r][local]
			if got != want {
				t.Errorf("row %d local %d: got %v, want %v", r, local, got, want)
			}
		}
	}
}

func TestGatherFixedRowSubset(t *testing.T) {
	col := NewFixed("DATA", 4, []uint64{2})
	for r := uint64(0); r < 4; r++ {
		if err := col.Put(r, []uint64{2}, []float64{float64(r) * 10, float64(r)*10 + 1}); err != nil {
			t.Fatal(err)
		}
	}

	sel := colmap.Selection{{0, 2, 3}}
	m, err := colmap.Make(col, sel, colmap.OuterFirst)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]float64, m.NElements())
	if err := Gather(context.Background(), m, col, out, 2); err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 1, 20, 21, 30, 31}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("offset %d: got %v, want %v", i, out[i], w)
		}
	}
}

func TestGatherVariable(t *testing.T) {
	col := NewVariable("VAR_DATA", 2)
	if err := col.Put(0, []uint64{3}, []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := col.Put(1, []uint64{2}, []float64{4, 5}); err != nil {
		t.Fatal(err)
	}

	m, err := colmap.Make(col, nil, colmap.OuterFirst)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.NElements(), uint64(5); got != want {
		t.Fatalf("NElements: got %v, want %v", got, want)
	}
	out := make([]float64, m.NElements())
	if err := Gather(context.Background(), m, col, out, 2); err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4, 5}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("offset %d: got %v, want %v", i, out[i], w)
		}
	}
}

func TestDefinedRows(t *testing.T) {
	col := NewFixed("DATA", 5, []uint64{1})
	for _, r := range []uint64{4, 1, 3} {
		if err := col.Put(r, []uint64{1}, []float64{float64(r)}); err != nil {
			t.Fatal(err)
		}
	}
	got := col.DefinedRows()
	want := []uint64{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
