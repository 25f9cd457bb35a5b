// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"errors"
	"fmt"
	"math"

	"github.com/js-arias/gestalt/indel"
	"gonum.org/v1/gonum/mat"
)

// sinkSlack is the numeric slack allowed
// when checking that the hazard into the unlikely sink
// is not negative.
const sinkSlack = 1e-6

// ErrNegativeSink indicates a malformed skeleton:
// the hazard to the enumerated states of a row
// is larger than the total hazard away from its state.
var ErrNegativeSink = errors.New("lineage: negative hazard to the unlikely sink")

// ErrBranchProb indicates an invalid branch probability matrix:
// an entry is negative beyond the numeric slack.
var ErrBranchProb = errors.New("lineage: negative branch probability")

// errNonFinite indicates an ill conditioned matrix exponential.
// It is reported to the caller as a zero likelihood.
var errNonFinite = errors.New("lineage: non finite branch probability")

// rateMatrix assembles the instantaneous rate matrix
// of a branch skeleton:
// off diagonal entries are event hazards,
// the last column absorbs the hazard
// to states outside the skeleton,
// and the diagonal is the negative of the hazard away,
// so every row sums to zero.
// The unlikely sink row is zero.
func rateMatrix(sk *skeleton, p *Params, n int) (*mat.Dense, error) {
	s := len(sk.states)
	q := mat.NewDense(s+1, s+1, nil)
	for i, st := range sk.states {
		away := p.HazardAway(st, n)

		var likely float64
		for _, tr := range sk.rows[i] {
			h := p.EventHazard(tr.evt)
			q.Set(i, tr.end, h)
			likely += h
		}

		sink := away - likely
		if sink < -sinkSlack*(1+away) {
			return nil, fmt.Errorf("%w: state %v: hazard away %.6g, to likely states %.6g", ErrNegativeSink, st, away, likely)
		}
		if sink < 0 {
			sink = 0
		}
		q.Set(i, s, sink)
		q.Set(i, i, -away)
	}
	return q, nil
}

// branchProb returns the transition probability matrix
// of a branch,
// the exponential of the rate matrix
// scaled by the branch length.
func branchProb(q *mat.Dense, brLen float64) (*mat.Dense, error) {
	var sq mat.Dense
	sq.Scale(brLen, q)

	var p mat.Dense
	p.Exp(&sq)

	r, c := p.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := p.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errNonFinite
			}
			if v < -sinkSlack {
				return nil, fmt.Errorf("%w: %.6g at (%d,%d)", ErrBranchProb, v, i, j)
			}
		}
	}
	return &p, nil
}

// trimProbMatrix builds the matrix
// of conditional indel probabilities of a branch:
// for every pair of a parent and a child state,
// the product of the conditional probabilities
// of the singletons of the child ancestral state
// realized by the events between both states.
// Entries for any other pair are one.
// Both axes use the child skeleton numbering.
func (t *Tree) trimProbMatrix(parent, child *node, p *Params) *mat.Dense {
	s := len(child.skel.states)
	tm := mat.NewDense(s+1, s+1, nil)
	for i := 0; i <= s; i++ {
		for j := 0; j <= s; j++ {
			tm.Set(i, j, 1)
		}
	}

	for _, pt := range parent.states {
		i := child.skel.index[pt.Key()]
		for _, ct := range child.states {
			j := child.skel.index[ct.Key()]
			d, ok := indel.Diff(pt, ct)
			if !ok {
				continue
			}
			sgs := child.anc.MatchingSingletons(d)
			if len(sgs) == 0 {
				continue
			}
			prob := 1.0
			for _, sg := range sgs {
				prob *= p.SingletonProb(t.meta, sg)
			}
			tm.Set(i, j, prob)
		}
	}
	return tm
}
