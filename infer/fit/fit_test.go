// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package fit_test

import (
	"testing"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
	"github.com/js-arias/gestalt/infer/fit"
	"github.com/js-arias/gestalt/infer/lineage"
)

func TestEstimate(t *testing.T) {
	m := barcode.Default(3)

	f1 := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 1, MinCut: 1, MaxCut: 1, MaxDeact: 1},
		Start:       m.CutSites[1],
	}
	f2 := indel.Singleton{
		TargetTract: indel.TargetTract{MinDeact: 2, MinCut: 2, MaxCut: 2, MaxDeact: 2},
		Start:       m.CutSites[2],
	}

	top := lineage.NewTopology()
	root, err := top.AddNode(-1)
	if err != nil {
		t.Fatalf("unable to add root: %v", err)
	}
	l1, _ := top.AddNode(root)
	l2, _ := top.AddNode(root)
	if err := top.SetObserved(l1, "t1", indel.Allele{f1}); err != nil {
		t.Fatalf("unable to set allele: %v", err)
	}
	if err := top.SetObserved(l2, "t2", indel.Allele{f1, f2}); err != nil {
		t.Fatalf("unable to set allele: %v", err)
	}

	tr, err := lineage.New(top, lineage.Param{Meta: m, MaxExtraSteps: 1})
	if err != nil {
		t.Fatalf("unable to build engine: %v", err)
	}

	p0 := lineage.DefaultParams(top.Len(), 3)
	prm := fit.Param{
		LogBarr:       0.001,
		DistToHalfPen: 0.01,
		MaxIter:       25,
	}

	v0, err := tr.Penalized(p0, prm.LogBarr, prm.DistToHalfPen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := fit.Estimate(tr, p0, prm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PenLogLike < v0 {
		t.Errorf("estimate: penalized log likelihood %.6f below the initial %.6f", res.PenLogLike, v0)
	}
	if err := res.Params.Validate(top.Len(), 3); err != nil {
		t.Errorf("estimate: invalid fitted parameters: %v", err)
	}
	if res.Evals == 0 {
		t.Errorf("estimate: no function evaluations reported")
	}
}

func TestJitter(t *testing.T) {
	m := barcode.Default(3)

	top := lineage.NewTopology()
	root, err := top.AddNode(-1)
	if err != nil {
		t.Fatalf("unable to add root: %v", err)
	}
	l1, _ := top.AddNode(root)
	if err := top.SetObserved(l1, "t1", nil); err != nil {
		t.Fatalf("unable to set allele: %v", err)
	}
	tr, err := lineage.New(top, lineage.Param{Meta: m, MaxExtraSteps: 1})
	if err != nil {
		t.Fatalf("unable to build engine: %v", err)
	}

	p := lineage.DefaultParams(top.Len(), 3)
	np := fit.Jitter(tr, p, 0.3, 42)

	if np.BranchLens[root] != p.BranchLens[root] {
		t.Errorf("jitter: root branch changed from %.6f to %.6f", p.BranchLens[root], np.BranchLens[root])
	}
	if np.BranchLens[l1] == p.BranchLens[l1] {
		t.Errorf("jitter: branch of node %d unchanged", l1)
	}
	if np.BranchLens[l1] <= 0 {
		t.Errorf("jitter: negative branch length %.6f", np.BranchLens[l1])
	}
	if err := np.Validate(top.Len(), 3); err != nil {
		t.Errorf("jitter: invalid parameters: %v", err)
	}
}
