// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"math"
	"testing"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
	"golang.org/x/exp/rand"
)

// newTestTree returns a balanced tree with four terminals
// on a four target barcode.
func newTestTree(t testing.TB) (*Tree, *Params) {
	t.Helper()

	m := barcode.Default(4)
	f1 := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 1, MinCut: 1, MaxCut: 1, MaxDeact: 1},
		Start:       m.CutSites[1],
		InsertLen:   2,
	}
	f2 := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 2, MinCut: 2, MaxCut: 2, MaxDeact: 2},
		Start:       m.CutSites[2],
	}
	f3 := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 3, MinCut: 3, MaxCut: 3, MaxDeact: 3},
		Start:       m.CutSites[3],
	}

	top := NewTopology()
	root, err := top.AddNode(-1)
	if err != nil {
		t.Fatalf("unable to add root: %v", err)
	}
	v1, _ := top.AddNode(root)
	v2, _ := top.AddNode(root)
	la, _ := top.AddNode(v1)
	lb, _ := top.AddNode(v1)
	lc, _ := top.AddNode(v2)
	ld, _ := top.AddNode(v2)

	obs := map[int]indel.Allele{
		la: {f1},
		lb: {f1, f3},
		lc: {f2},
		ld: {},
	}
	for id, a := range obs {
		if err := top.SetObserved(id, "", a); err != nil {
			t.Fatalf("unable to set allele: %v", err)
		}
	}

	tr, err := New(top, Param{Meta: m, MaxExtraSteps: 1})
	if err != nil {
		t.Fatalf("unable to build engine: %v", err)
	}

	p := DefaultParams(top.Len(), 4)
	for i := range p.BranchLens {
		p.BranchLens[i] = 0.5 + 0.1*float64(i)
	}
	return tr, p
}

func TestRateMatrix(t *testing.T) {
	tr, p := newTestTree(t)
	n := tr.meta.Targets()

	for _, nd := range tr.nodes {
		if nd.skel == nil {
			continue
		}
		q, err := rateMatrix(nd.skel, p, n)
		if err != nil {
			t.Fatalf("node %d: unexpected error: %v", nd.id, err)
		}

		s := len(nd.skel.states)
		for i := 0; i <= s; i++ {
			var sum float64
			for j := 0; j <= s; j++ {
				v := q.At(i, j)
				if i != j && v < 0 {
					t.Errorf("node %d: negative rate %.6g at (%d,%d)", nd.id, v, i, j)
				}
				sum += v
			}
			if math.Abs(sum) > 1e-8 {
				t.Errorf("node %d: row %d sums %.6g, want 0", nd.id, i, sum)
			}
		}

		// the unlikely sink is absorbing
		for j := 0; j <= s; j++ {
			if q.At(s, j) != 0 {
				t.Errorf("node %d: sink row entry %.6g at %d, want 0", nd.id, q.At(s, j), j)
			}
		}
	}
}

func TestBranchProbRowStochastic(t *testing.T) {
	tr, p := newTestTree(t)
	n := tr.meta.Targets()

	for _, nd := range tr.nodes {
		if nd.skel == nil {
			continue
		}
		q, err := rateMatrix(nd.skel, p, n)
		if err != nil {
			t.Fatalf("node %d: unexpected error: %v", nd.id, err)
		}

		for _, brLen := range []float64{0, 0.1, 1, 10} {
			pm, err := branchProb(q, brLen)
			if err != nil {
				t.Fatalf("node %d: unexpected error: %v", nd.id, err)
			}
			s := len(nd.skel.states)
			for i := 0; i <= s; i++ {
				var sum float64
				for j := 0; j <= s; j++ {
					sum += pm.At(i, j)
				}
				if math.Abs(sum-1) > 1e-6 {
					t.Errorf("node %d: brLen %.1f: row %d sums %.6g, want 1", nd.id, brLen, i, sum)
				}
				d := pm.At(i, i)
				if d < -1e-6 || d > 1+1e-6 {
					t.Errorf("node %d: brLen %.1f: diagonal %d is %.6g", nd.id, brLen, i, d)
				}
			}
		}
	}
}

func TestTrimProbMatrixBounds(t *testing.T) {
	tr, p := newTestTree(t)

	for _, nd := range tr.nodes {
		if nd.skel == nil {
			continue
		}
		parent := tr.nodes[tr.top.Parent(nd.id)]
		tm := tr.trimProbMatrix(parent, nd, p)
		s := len(nd.skel.states)
		for i := 0; i <= s; i++ {
			for j := 0; j <= s; j++ {
				v := tm.At(i, j)
				if v < 0 || v > 1 {
					t.Errorf("node %d: trim probability %.6g at (%d,%d)", nd.id, v, i, j)
				}
			}
		}
	}
}

func TestHazardAwayMonotone(t *testing.T) {
	tr, p := newTestTree(t)
	n := tr.meta.Targets()

	states := []indel.Tuple{
		nil,
		{{MinDeact: 1, MinCut: 1, MaxCut: 1, MaxDeact: 1}},
		{{MinDeact: 1, MinCut: 1, MaxCut: 1, MaxDeact: 1}, {MinDeact: 3, MinCut: 3, MaxCut: 3, MaxDeact: 3}},
		{{MinDeact: 0, MinCut: 0, MaxCut: 3, MaxDeact: 3}},
	}

	prev := math.Inf(1)
	for _, st := range states {
		h := p.HazardAway(st, n)
		if h >= prev {
			t.Errorf("hazard away from %v is %.6g, not below %.6g", st, h, prev)
		}
		prev = h
	}
	if h := p.HazardAway(states[3], n); h != 0 {
		t.Errorf("hazard away from a saturated barcode is %.6g, want 0", h)
	}
}

// TestLeafProbability checks that on a two node tree
// the likelihood is the branch probability
// from the unedited state to the observation
// times the conditional probability of the observed singleton.
func TestLeafProbability(t *testing.T) {
	m := barcode.Default(3)
	top := NewTopology()
	root, _ := top.AddNode(-1)
	leaf, _ := top.AddNode(root)

	sg := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 1, MinCut: 1, MaxCut: 1, MaxDeact: 1},
		Start:       m.CutSites[1],
	}
	if err := top.SetObserved(leaf, "t1", indel.Allele{sg}); err != nil {
		t.Fatalf("unable to set allele: %v", err)
	}
	tr, err := New(top, Param{Meta: m, MaxExtraSteps: 1})
	if err != nil {
		t.Fatalf("unable to build engine: %v", err)
	}

	p := DefaultParams(top.Len(), 3)
	p.BranchLens[leaf] = 0.75

	ll, err := tr.LogLike(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ln := tr.nodes[leaf]
	q, err := rateMatrix(ln.skel, p, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pm, err := branchProb(q, p.BranchLens[leaf])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i := ln.skel.index[indel.Tuple(nil).Key()]
	j := ln.skel.index[ln.obs.Key()]
	want := math.Log(pm.At(i, j) * p.SingletonProb(m, sg))
	if math.Abs(ll-want) > 1e-10 {
		t.Errorf("log likelihood: got %.10f, want %.10f", ll, want)
	}
}

// TestPermutation checks that the per node numbering
// of the states does not change the likelihood.
func TestPermutation(t *testing.T) {
	tr, p := newTestTree(t)

	ll, err := tr.LogLike(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for it := 0; it < 5; it++ {
		for _, nd := range tr.nodes {
			rng.Shuffle(len(nd.states), func(i, j int) {
				nd.states[i], nd.states[j] = nd.states[j], nd.states[i]
			})
			nd.index = make(map[string]int, len(nd.states))
			for i, s := range nd.states {
				nd.index[s.Key()] = i
			}
			nd.skel = nil
		}
		if err := tr.buildSkeletons(tr.top.Root()); err != nil {
			t.Fatalf("unable to rebuild skeletons: %v", err)
		}

		got, err := tr.LogLike(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got-ll) > 1e-8 {
			t.Errorf("permutation %d: log likelihood %.12f, want %.12f", it, got, ll)
		}
	}
}
