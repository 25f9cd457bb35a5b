// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package indel_test

import (
	"testing"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
)

func TestIntersect(t *testing.T) {
	m := barcode.Default(6)

	sg1 := focal(m, 1)
	sg3 := focal(m, 3)

	a := indel.FromAllele(indel.Allele{sg1, sg3})
	b := indel.FromAllele(indel.Allele{sg1})

	// shared singletons are kept;
	// singletons in only one side are dropped
	got := indel.Intersect(a, b)
	if len(got) != 1 {
		t.Fatalf("intersect: got %d sets, want 1: %v", len(got), got)
	}
	wc, ok := got[0].(indel.SingletonWC)
	if !ok || wc.Singleton != sg1 {
		t.Errorf("intersect: got %v, want singleton %v", got[0], sg1)
	}

	// overlapping but different indels become a wildcard
	// over the union of the ranges
	big := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 1, MinCut: 1, MaxCut: 3, MaxDeact: 3},
		Start:       m.CutSites[1],
		DelLen:      m.CutSites[3] - m.CutSites[1],
	}
	c := indel.FromAllele(indel.Allele{big})
	got = indel.Intersect(a, c)
	if len(got) != 1 {
		t.Fatalf("intersect: got %d sets, want 1: %v", len(got), got)
	}
	w, ok := got[0].(indel.Wildcard)
	if !ok {
		t.Fatalf("intersect: got %T, want a wildcard", got[0])
	}
	if w.From != 1 || w.To != 3 {
		t.Errorf("intersect: wildcard %v, want *1-3", w)
	}

	// intersection with an unedited barcode is empty
	if got := indel.Intersect(a, indel.AncState{}); len(got) != 0 {
		t.Errorf("intersect: got %v, want an empty state", got)
	}
}

func TestTuples(t *testing.T) {
	m := barcode.Default(4)

	sg := focal(m, 1)
	as := indel.FromAllele(indel.Allele{sg})

	// without extra steps:
	// nothing happened,
	// or the singleton is realized
	got := as.Tuples(0)
	if len(got) != 2 {
		t.Fatalf("tuples: got %d tuples, want 2: %v", len(got), got)
	}
	keys := make(map[string]bool, len(got))
	for _, tp := range got {
		keys[tp.Key()] = true
	}
	if !keys[indel.Tuple(nil).Key()] {
		t.Errorf("tuples: empty tuple not found")
	}
	if !keys[(indel.Tuple{sg.Tract()}).Key()] {
		t.Errorf("tuples: realized singleton not found")
	}

	// an empty state is an unedited barcode
	got = indel.AncState{}.Tuples(2)
	if len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("tuples: got %v, want only the empty tuple", got)
	}

	// a wildcard accepts any combination
	// inside its target range
	as = indel.AncState{indel.Wildcard{From: 0, To: 1}}
	got = as.Tuples(1)

	// the empty tuple and the five possible tracts
	if len(got) != 6 {
		t.Errorf("tuples: got %d tuples, want 6: %v", len(got), got)
	}
	for _, tp := range got {
		if len(tp) > 1 {
			t.Errorf("tuples: %v beyond the extra steps limit", tp)
		}
	}
}

func TestMatchingSingletons(t *testing.T) {
	m := barcode.Default(4)

	sg1 := focal(m, 1)
	sg3 := focal(m, 3)
	as := indel.FromAllele(indel.Allele{sg1, sg3})

	got := as.MatchingSingletons([]indel.TargetTract{sg3.Tract()})
	if len(got) != 1 || got[0] != sg3 {
		t.Errorf("matching: got %v, want %v", got, sg3)
	}

	got = as.MatchingSingletons([]indel.TargetTract{
		{MinDeact: 0, MinCut: 0, MaxCut: 0, MaxDeact: 0},
	})
	if len(got) != 0 {
		t.Errorf("matching: got %v, want no singletons", got)
	}
}
