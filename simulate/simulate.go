// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package simulate implements a forward simulator
// of the barcode cut and repair process:
// target tract events race by their hazards
// and the winner is repaired into a concrete indel.
package simulate

import (
	"slices"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
	"github.com/js-arias/gestalt/infer/lineage"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Simulator evolves barcode alleles
// under the cut and repair process
// of a parameter set.
type Simulator struct {
	meta barcode.Meta
	p    *lineage.Params

	src rand.Source
	rng *rand.Rand
}

// New creates a new simulator
// for a barcode and a parameter set.
func New(m barcode.Meta, p *lineage.Params, seed uint64) *Simulator {
	src := rand.NewSource(seed)
	return &Simulator{
		meta: m,
		p:    p,
		src:  src,
		rng:  rand.New(src),
	}
}

// Evolve returns the allele that results
// from evolving an initial allele
// during the given time.
func (s *Simulator) Evolve(a indel.Allele, brLen float64) indel.Allele {
	a = slices.Clone(a)
	a.Sort()

	remain := brLen
	n := s.meta.Targets()
	for {
		tp := a.Tuple()
		active := tp.ActiveTargets(n)
		if len(active) == 0 {
			return a
		}

		tracts := indel.PossibleTracts(active)
		haz := make([]float64, len(tracts))
		var total float64
		for i, e := range tracts {
			haz[i] = s.p.EventHazard(e)
			total += haz[i]
		}
		if total <= 0 {
			return a
		}

		remain -= s.rng.ExpFloat64() / total
		if remain < 0 {
			return a
		}

		// pick the winner of the race
		u := s.rng.Float64() * total
		e := tracts[len(tracts)-1]
		for i, h := range haz {
			if u < h {
				e = tracts[i]
				break
			}
			u -= h
		}

		a = s.repair(a, e)
	}
}

// Topology evolves an unedited barcode over a topology
// and returns the alleles observed at its terminals,
// indexed by node identifier.
// Branch lengths are indexed by the node
// at the end of each branch.
func (s *Simulator) Topology(top *lineage.Topology, brLens []float64) map[int]indel.Allele {
	obs := make(map[int]indel.Allele)

	var walk func(id int, a indel.Allele)
	walk = func(id int, a indel.Allele) {
		if id != top.Root() {
			a = s.Evolve(a, brLens[id])
		}
		if top.IsTerm(id) {
			obs[id] = a
			return
		}
		for _, c := range top.Children(id) {
			walk(c, a)
		}
	}
	walk(top.Root(), nil)
	return obs
}

// Boost channels for the length unit reallocated
// on an all short focal repair.
const (
	boostInsert = iota
	boostLeft
	boostRight
)

// repair applies the event e to the allele:
// trim lengths and the insertion length are sampled,
// singletons covered by the event are absorbed,
// and the new singleton is added.
func (s *Simulator) repair(a indel.Allele, e indel.TargetTract) indel.Allele {
	isInter := e.MinCut != e.MaxCut

	doIns := s.rng.Float64() > s.p.InsertZeroProb
	pois := distuv.Poisson{Lambda: s.p.InsertPoisson, Src: s.src}
	insRaw := 1 + int(pois.Rand())

	qi := 0
	if isInter {
		qi = 1
	}
	doLeft := s.rng.Float64() > s.p.TrimZeroProbs[qi]
	doRight := s.rng.Float64() > s.p.TrimZeroProbs[qi]
	leftRaw := s.trimLen(e.IsLeftLong(), s.meta.LeftLongMin[e.MinCut], s.meta.LeftMaxTrim[e.MinCut])
	rightRaw := s.trimLen(e.IsRightLong(), s.meta.RightLongMin[e.MaxCut], s.meta.RightMaxTrim[e.MaxCut])

	var ins, left, right int
	if e.IsLeftLong() || e.IsRightLong() || isInter {
		if doIns {
			ins = insRaw
		}
		if doLeft || e.IsLeftLong() {
			left = leftRaw
		}
		if doRight || e.IsRightLong() {
			right = rightRaw
		}
	} else {
		// reallocate one length unit
		// among the insertion and both trims
		boost := boostInsert
		switch u := s.rng.Float64(); {
		case u < 1.0/3:
			boost = boostLeft
		case u < 2.0/3:
			boost = boostRight
		}

		if doIns || boost == boostInsert {
			ins = insRaw
		}
		if doLeft || boost == boostLeft {
			left = leftRaw
			if boost == boostLeft && left == 0 {
				left = 1
			}
		}
		if doRight || boost == boostRight {
			right = rightRaw
			if boost == boostRight && right == 0 {
				right = 1
			}
		}
	}

	sg := indel.Singleton{
		TargetTract: e,
		Start:       s.meta.CutSites[e.MinCut] - left,
		DelLen:      s.meta.CutSites[e.MaxCut] + right - (s.meta.CutSites[e.MinCut] - left),
		InsertLen:   ins,
	}

	out := make(indel.Allele, 0, len(a)+1)
	for _, old := range a {
		if e.Contains(old.Tract()) {
			continue
		}
		out = append(out, old)
	}
	out = append(out, sg)
	out.Sort()
	return out
}

// trimLen samples a trim length
// uniform over the admissible range of the trim.
func (s *Simulator) trimLen(long bool, longMin, maxTrim int) int {
	lo, hi := 0, longMin-1
	if long {
		lo, hi = longMin, maxTrim
	}
	if hi < lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}
