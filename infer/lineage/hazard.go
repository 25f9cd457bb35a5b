// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"math"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
	"gonum.org/v1/gonum/stat/distuv"
)

// EventHazard returns the instantaneous rate
// of a target tract event.
func (p *Params) EventHazard(e indel.TargetTract) float64 {
	h := p.TargetRates[e.MinCut]
	if e.MaxCut != e.MinCut {
		h *= p.TargetRates[e.MaxCut] * p.DoubleCutWeight
	}
	if e.IsLeftLong() {
		h *= p.TrimLongProbs[0]
	} else {
		h *= 1 - p.TrimLongProbs[0]
	}
	if e.IsRightLong() {
		h *= p.TrimLongProbs[1]
	} else {
		h *= 1 - p.TrimLongProbs[1]
	}
	return h
}

// trimFactor returns the total trim probability
// of the admissible trims at a side of a cut:
// short trims only sum 1-long,
// short and long trims sum to one.
func trimFactor(mask int, long float64) float64 {
	switch mask {
	case indel.TrimShort:
		return 1 - long
	case indel.TrimAny:
		return 1
	}
	return 0
}

// HazardAway returns the total instantaneous rate
// of leaving a state,
// summed over every admissible event.
// Focal events cut a single active target;
// inter target events cut a pair of active targets
// and are weighted by the double cut weight.
func (p *Params) HazardAway(tp indel.Tuple, n int) float64 {
	left, right := tp.TrimMasks(n)

	var focal float64
	leftHaz := make([]float64, n)
	var inter float64
	var cum float64
	for tg := 0; tg < n; tg++ {
		lf := trimFactor(left[tg], p.TrimLongProbs[0])
		rf := trimFactor(right[tg], p.TrimLongProbs[1])
		if left[tg] == indel.TrimNone {
			continue
		}
		focal += p.TargetRates[tg] * lf * rf

		// an inter target event pairs the left factor
		// of its first cut
		// with the right factor of its second cut
		inter += p.TargetRates[tg] * rf * cum
		leftHaz[tg] = p.TargetRates[tg] * lf
		cum += leftHaz[tg]
	}
	return focal + p.DoubleCutWeight*inter
}

// SingletonProb returns the conditional probability
// of a concrete singleton
// given that its target tract event fired.
// Trim lengths are uniform over the admissible range;
// when both trims are short the total deletion length
// is zero inflated.
// The insertion length is a zero inflated Poisson
// and every inserted sequence of that length
// is equally probable.
func (p *Params) SingletonProb(m barcode.Meta, sg indel.Singleton) float64 {
	leftP := trimLenProb(sg.LeftTrim(m), sg.IsLeftLong(), m.LeftLongMin[sg.MinCut], m.LeftMaxTrim[sg.MinCut])
	rightP := trimLenProb(sg.RightTrim(m), sg.IsRightLong(), m.RightLongMin[sg.MaxCut], m.RightMaxTrim[sg.MaxCut])

	var del float64
	if sg.IsLeftLong() || sg.IsRightLong() {
		del = leftP * rightP
	} else {
		q := p.TrimZeroProbs[0]
		if sg.MaxCut != sg.MinCut {
			q = p.TrimZeroProbs[1]
		}
		del = (1 - q) * leftP * rightP
		if sg.DelLen == 0 {
			del += q
		}
	}

	pois := distuv.Poisson{Lambda: p.InsertPoisson}
	var ins float64
	if sg.InsertLen == 0 {
		ins = p.InsertZeroProb + (1-p.InsertZeroProb)*pois.Prob(0)
	} else {
		seq := math.Pow(4, -float64(sg.InsertLen))
		ins = (1 - p.InsertZeroProb) * pois.Prob(float64(sg.InsertLen)) * seq
	}

	return del * ins
}

// trimLenProb returns the probability of a trim length
// at one side of a cut:
// uniform over [longMin, maxTrim] for a long trim,
// uniform over [0, longMin-1] for a short trim.
func trimLenProb(ln int, long bool, longMin, maxTrim int) float64 {
	lo, hi := 0, longMin-1
	if long {
		lo, hi = longMin, maxTrim
	}
	if hi < lo {
		return 0
	}
	if ln < lo || ln > hi {
		return 0
	}
	return 1 / float64(hi-lo+1)
}
