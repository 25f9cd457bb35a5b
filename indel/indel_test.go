// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package indel_test

import (
	"testing"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
)

func tract(minDeact, minCut, maxCut, maxDeact int) indel.TargetTract {
	return indel.TargetTract{
		MinDeact: minDeact,
		MinCut:   minCut,
		MaxCut:   maxCut,
		MaxDeact: maxDeact,
	}
}

// focal returns a singleton for a focal cut
// without trims or insertions.
func focal(m barcode.Meta, tg int) indel.Singleton {
	return indel.Singleton{
		TargetTract: tract(tg, tg, tg, tg),
		Start:       m.CutSites[tg],
	}
}

func TestPossibleTracts(t *testing.T) {
	tests := map[string]struct {
		active []int
		want   []indel.TargetTract
	}{
		"two contiguous": {
			active: []int{0, 1},
			want: []indel.TargetTract{
				tract(0, 0, 0, 0),
				tract(0, 0, 0, 1),
				tract(0, 0, 1, 1),
				tract(0, 1, 1, 1),
				tract(1, 1, 1, 1),
			},
		},
		"with a gap": {
			active: []int{0, 2},
			want: []indel.TargetTract{
				tract(0, 0, 0, 0),
				tract(0, 0, 2, 2),
				tract(2, 2, 2, 2),
			},
		},
		"single": {
			active: []int{3},
			want: []indel.TargetTract{
				tract(3, 3, 3, 3),
			},
		},
	}

	for name, test := range tests {
		got := indel.PossibleTracts(test.active)
		if len(got) != len(test.want) {
			t.Errorf("%s: got %d tracts, want %d: %v", name, len(got), len(test.want), got)
			continue
		}
		for _, w := range test.want {
			found := false
			for _, g := range got {
				if g == w {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("%s: tract %v not found in %v", name, w, got)
			}
		}
	}
}

func TestApply(t *testing.T) {
	tp := indel.Tuple{tract(3, 3, 3, 3)}

	got, ok := tp.Apply(tract(1, 1, 6, 6))
	if !ok {
		t.Fatalf("apply: unexpected failure")
	}
	want := indel.Tuple{tract(1, 1, 6, 6)}
	if !got.Equal(want) {
		t.Errorf("apply: got %v, want %v", got, want)
	}

	got, ok = tp.Apply(tract(5, 5, 5, 5))
	if !ok {
		t.Fatalf("apply: unexpected failure")
	}
	want = indel.Tuple{tract(3, 3, 3, 3), tract(5, 5, 5, 5)}
	if !got.Equal(want) {
		t.Errorf("apply: got %v, want %v", got, want)
	}

	// partial overlap
	tp = indel.Tuple{tract(3, 3, 5, 5)}
	if _, ok := tp.Apply(tract(4, 4, 7, 7)); ok {
		t.Errorf("apply: expecting failure on partial overlap")
	}
}

func TestDiff(t *testing.T) {
	empty := indel.Tuple{}

	// single new event
	child := indel.Tuple{tract(1, 1, 2, 2)}
	d, ok := indel.Diff(empty, child)
	if !ok || len(d) != 1 || d[0] != tract(1, 1, 2, 2) {
		t.Errorf("diff: got %v (%v), want a single event", d, ok)
	}

	// an event covering a previous tract
	parent := indel.Tuple{tract(2, 2, 2, 2)}
	child = indel.Tuple{tract(1, 1, 4, 4)}
	d, ok = indel.Diff(parent, child)
	if !ok || len(d) != 1 || d[0] != tract(1, 1, 4, 4) {
		t.Errorf("diff: got %v (%v), want the covering event", d, ok)
	}

	// two independent events
	child = indel.Tuple{tract(0, 0, 0, 0), tract(2, 2, 2, 2)}
	d, ok = indel.Diff(empty, child)
	if !ok || len(d) != 2 {
		t.Errorf("diff: got %v (%v), want two events", d, ok)
	}

	// edits can not be removed
	parent = indel.Tuple{tract(3, 3, 3, 3)}
	if _, ok := indel.Diff(parent, empty); ok {
		t.Errorf("diff: expecting failure when losing an edit")
	}

	// the cut target is already deactivated
	parent = indel.Tuple{tract(2, 2, 2, 2)}
	child = indel.Tuple{tract(1, 1, 2, 3)}
	if _, ok := indel.Diff(parent, child); ok {
		t.Errorf("diff: expecting failure on a deactivated cut")
	}

	// a long trim over an already deactivated neighbor
	parent = indel.Tuple{tract(1, 1, 1, 1)}
	child = indel.Tuple{tract(1, 2, 3, 3)}
	if _, ok := indel.Diff(parent, child); ok {
		t.Errorf("diff: expecting failure on a long trim over a deactivated target")
	}

	// a tract that no single event can produce
	child = indel.Tuple{tract(0, 2, 3, 3)}
	if _, ok := indel.Diff(empty, child); ok {
		t.Errorf("diff: expecting failure on an invalid tract")
	}
}

func TestTrimMasks(t *testing.T) {
	left, right := indel.Tuple{}.TrimMasks(3)
	wantL := []int{indel.TrimShort, indel.TrimAny, indel.TrimAny}
	wantR := []int{indel.TrimAny, indel.TrimAny, indel.TrimShort}
	for i := range wantL {
		if left[i] != wantL[i] || right[i] != wantR[i] {
			t.Errorf("masks: target %d: got (%d,%d), want (%d,%d)", i, left[i], right[i], wantL[i], wantR[i])
		}
	}

	tp := indel.Tuple{tract(1, 1, 1, 1)}
	left, right = tp.TrimMasks(3)
	wantL = []int{indel.TrimShort, indel.TrimNone, indel.TrimShort}
	wantR = []int{indel.TrimShort, indel.TrimNone, indel.TrimShort}
	for i := range wantL {
		if left[i] != wantL[i] || right[i] != wantR[i] {
			t.Errorf("masks: target %d: got (%d,%d), want (%d,%d)", i, left[i], right[i], wantL[i], wantR[i])
		}
	}
}

func TestAlleleValidate(t *testing.T) {
	m := barcode.Default(3)

	a := indel.Allele{focal(m, 1)}
	if err := a.Validate(m); err != nil {
		t.Errorf("validate: unexpected error: %v", err)
	}

	// a long left trim flagged as short
	bad := indel.Allele{
		{
			TargetTract: tract(1, 1, 1, 1),
			Start:       m.CutSites[1] - m.LeftLongMin[1],
			DelLen:      m.LeftLongMin[1],
		},
	}
	if err := bad.Validate(m); err == nil {
		t.Errorf("validate: expecting error on a mislabeled long trim")
	}

	// deletion out of the barcode
	bad = indel.Allele{
		{
			TargetTract: tract(2, 2, 2, 2),
			Start:       m.CutSites[2],
			DelLen:      m.Len,
		},
	}
	if err := bad.Validate(m); err == nil {
		t.Errorf("validate: expecting error on an out of bounds deletion")
	}
}
