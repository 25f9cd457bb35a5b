// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simulate_test

import (
	"testing"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/simulate"
)

func TestEvolve(t *testing.T) {
	m := barcode.Default(6)
	p := lineage.DefaultParams(1, 6)
	for i := range p.TargetRates {
		p.TargetRates[i] = 0.5
	}

	s := simulate.New(m, p, 1)

	a := s.Evolve(nil, 5)
	if err := a.Validate(m); err != nil {
		t.Errorf("evolve: invalid allele: %v", err)
	}

	// on a long branch every target ends deactivated
	a = s.Evolve(nil, 10_000)
	if err := a.Validate(m); err != nil {
		t.Errorf("evolve: invalid allele: %v", err)
	}
	if act := a.Tuple().ActiveTargets(6); len(act) != 0 {
		t.Errorf("evolve: active targets %v after a saturating branch", act)
	}

	// an evolved allele keeps its previous deactivations
	b := s.Evolve(a, 100)
	if !b.Tuple().Equal(a.Tuple()) {
		t.Errorf("evolve: a saturated allele must be stable: got %v, want %v", b, a)
	}
}

func TestEvolveDeterminism(t *testing.T) {
	m := barcode.Default(4)
	p := lineage.DefaultParams(1, 4)

	a1 := simulate.New(m, p, 42).Evolve(nil, 3)
	a2 := simulate.New(m, p, 42).Evolve(nil, 3)
	if len(a1) != len(a2) {
		t.Fatalf("determinism: got %v and %v with the same seed", a1, a2)
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Errorf("determinism: got %v and %v with the same seed", a1, a2)
		}
	}
}

func TestTopology(t *testing.T) {
	m := barcode.Default(4)

	top := lineage.NewTopology()
	root, err := top.AddNode(-1)
	if err != nil {
		t.Fatalf("unable to add root: %v", err)
	}
	v1, _ := top.AddNode(root)
	l1, _ := top.AddNode(v1)
	l2, _ := top.AddNode(v1)
	l3, _ := top.AddNode(root)

	p := lineage.DefaultParams(top.Len(), 4)
	brLens := []float64{0, 1, 0.5, 0.5, 1.5}

	s := simulate.New(m, p, 7)
	obs := s.Topology(top, brLens)

	for _, leaf := range []int{l1, l2, l3} {
		a, ok := obs[leaf]
		if !ok {
			t.Fatalf("topology: no allele for terminal %d", leaf)
		}
		if err := a.Validate(m); err != nil {
			t.Errorf("topology: terminal %d: invalid allele: %v", leaf, err)
		}
	}
	if _, ok := obs[v1]; ok {
		t.Errorf("topology: allele reported for an internal node")
	}

	// the simulated observations must be usable
	// by the likelihood engine
	for leaf, a := range obs {
		if err := top.SetObserved(leaf, "", a); err != nil {
			t.Fatalf("unable to set allele: %v", err)
		}
	}
	tr, err := lineage.New(top, lineage.Param{Meta: m, MaxExtraSteps: 1})
	if err != nil {
		t.Fatalf("unable to build engine: %v", err)
	}
	np := lineage.DefaultParams(top.Len(), 4)
	copy(np.BranchLens, brLens)
	ll, err := tr.LogLike(np)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ll >= 0 {
		t.Errorf("log likelihood of simulated data: got %.6f", ll)
	}
}
