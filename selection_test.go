// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package colmap

import "testing"

func TestNormalizeReversesOuterFirst(t *testing.T) {
	sel := Selection{{1, 2}, {3, 4}, {5, 6}}
	got := normalize(sel, OuterFirst)
	want := Selection{{5, 6}, {3, 4}, {1, 2}}
	for i := range want {
		if !shapesEqual(got[i], want[i]) {
			t.Errorf("normalize: dim %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormalizeInnerFirstIsIdentity(t *testing.T) {
	sel := Selection{{1, 2}, {3, 4}}
	got := normalize(sel, InnerFirst)
	for i := range sel {
		if !shapesEqual(got[i], sel[i]) {
			t.Errorf("normalize: dim %d: got %v, want %v", i, got[i], sel[i])
		}
	}
}

func TestDimSelectionRightJustifies(t *testing.T) {
	sel := Selection{{9}}
	if ids, ok := dimSelection(sel, 2, 3); !ok || !shapesEqual(ids, RowIDs{9}) {
		t.Errorf("dim 2 of 3: got (%v, %v), want ({9}, true)", ids, ok)
	}
	if _, ok := dimSelection(sel, 0, 3); ok {
		t.Error("dim 0 of 3: expected no selection present")
	}
	if _, ok := dimSelection(sel, 1, 3); ok {
		t.Error("dim 1 of 3: expected no selection present")
	}
}
