// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"errors"
	"math"

	"github.com/js-arias/gestalt/indel"
	"gonum.org/v1/gonum/diff/fd"
)

// errZeroLike indicates that every state of a node
// has zero likelihood:
// the topology is inconsistent with the observed alleles
// under the current parameters.
var errZeroLike = errors.New("lineage: zero likelihood")

// LogLike returns the log likelihood
// of the observed alleles
// under the given parameters.
// If the observations are unreachable
// under the parameters
// it returns negative infinity.
func (t *Tree) LogLike(p *Params) (float64, error) {
	ll, _, err := t.downPass(p)
	return ll, err
}

// LogLikeGrad returns the log likelihood
// and its gradient with respect
// to the flat parameter vector.
func (t *Tree) LogLikeGrad(p *Params) (float64, []float64, error) {
	ll, err := t.LogLike(p)
	if err != nil {
		return math.NaN(), nil, err
	}
	grad := t.gradient(p, func(np *Params) float64 {
		v, err := t.LogLike(np)
		if err != nil {
			return math.NaN()
		}
		return v
	})
	return ll, grad, nil
}

// PenalizedLogLike returns the penalized log likelihood
// and its gradient.
// The penalty adds a log barrier
// on the positivity of the branch lengths
// with coefficient logBarr,
// and pulls the diagonal of the branch probability matrices
// toward one half
// with coefficient distToHalfPen.
func (t *Tree) PenalizedLogLike(p *Params, logBarr, distToHalfPen float64) (float64, []float64, error) {
	v, err := t.Penalized(p, logBarr, distToHalfPen)
	if err != nil {
		return math.NaN(), nil, err
	}
	grad := t.gradient(p, func(np *Params) float64 {
		pv, err := t.Penalized(np, logBarr, distToHalfPen)
		if err != nil {
			return math.NaN()
		}
		return pv
	})
	return v, grad, nil
}

// Penalized returns the penalized log likelihood
// without its gradient.
func (t *Tree) Penalized(p *Params, logBarr, distToHalfPen float64) (float64, error) {
	ll, diagPen, err := t.downPass(p)
	if err != nil {
		return math.NaN(), err
	}
	if math.IsInf(ll, -1) {
		return ll, nil
	}

	pen := ll
	if logBarr > 0 {
		for id := range t.nodes {
			if id == t.top.Root() {
				continue
			}
			b := p.BranchLens[id]
			if b <= 0 {
				return math.Inf(-1), nil
			}
			pen += logBarr * math.Log(b)
		}
	}
	pen -= distToHalfPen * diagPen
	return pen, nil
}

// gradient returns the central finite difference gradient
// of a parameter function
// over the flat parameter vector.
func (t *Tree) gradient(p *Params, f func(*Params) float64) []float64 {
	x := p.Flat()
	fn := func(x []float64) float64 {
		np := p.Clone()
		if err := np.SetFlat(x); err != nil {
			return math.NaN()
		}
		return f(np)
	}
	return fd.Gradient(nil, fn, x, &fd.Settings{Formula: fd.Central})
}

// downPass performs the Felsenstein pruning algorithm
// over the tree.
// It returns the log likelihood
// and the accumulated squared distance
// of the branch probability diagonals to one half.
func (t *Tree) downPass(p *Params) (logLike, diagPen float64, err error) {
	if err := p.Validate(t.Len(), t.meta.Targets()); err != nil {
		return math.NaN(), 0, err
	}

	root := t.top.Root()
	if t.top.IsTerm(root) {
		// a single node tree is just the unedited barcode
		if len(t.nodes[root].obs) == 0 {
			return 0, 0, nil
		}
		return math.Inf(-1), 0, nil
	}

	var scalers float64

	var conditional func(id int) ([]float64, error)

	// childDown computes the contribution of a child branch:
	// the branch probability matrix
	// multiplied elementwise by the indel probability matrix,
	// applied to the child conditional likelihoods.
	// The result uses the child skeleton numbering.
	childDown := func(parent *node, c int) ([]float64, error) {
		cn := t.nodes[c]
		lc, err := conditional(c)
		if err != nil {
			return nil, err
		}

		q, err := rateMatrix(cn.skel, p, t.meta.Targets())
		if err != nil {
			return nil, err
		}
		pm, err := branchProb(q, p.BranchLens[c])
		if err != nil {
			return nil, err
		}
		tm := t.trimProbMatrix(parent, cn, p)

		s := len(cn.skel.states)
		for i := 0; i < s; i++ {
			d := pm.At(i, i)
			diagPen += (d - 0.5) * (d - 0.5)
		}

		d := make([]float64, s+1)
		for i := range d {
			var sum float64
			for j := 0; j <= s; j++ {
				sum += pm.At(i, j) * tm.At(i, j) * lc[j]
			}
			d[i] = sum
		}
		return d, nil
	}

	conditional = func(id int) ([]float64, error) {
		n := t.nodes[id]
		if t.top.IsTerm(id) {
			l := make([]float64, len(n.skel.states)+1)
			l[n.skel.index[n.obs.Key()]] = 1
			return l, nil
		}

		var lv []float64
		for _, c := range t.top.Children(id) {
			d, err := childDown(n, c)
			if err != nil {
				return nil, err
			}

			// reorder the summands
			// using the node numbering of the states
			cn := t.nodes[c]
			re := make([]float64, len(n.skel.states)+1)
			for _, st := range n.states {
				re[n.skel.index[st.Key()]] = d[cn.skel.index[st.Key()]]
			}

			if lv == nil {
				lv = re
				continue
			}
			for i := range lv {
				lv[i] *= re[i]
			}
		}

		// rescale to prevent underflow
		max := 0.0
		for _, v := range lv {
			if v > max {
				max = v
			}
		}
		if max == 0 || math.IsNaN(max) {
			return nil, errZeroLike
		}
		for i := range lv {
			lv[i] /= max
		}
		scalers += math.Log(max)
		return lv, nil
	}

	lroot := 1.0
	rn := t.nodes[root]
	for _, c := range t.top.Children(root) {
		d, err := childDown(rn, c)
		if err != nil {
			if errors.Is(err, errZeroLike) || errors.Is(err, errNonFinite) {
				return math.Inf(-1), diagPen, nil
			}
			return math.NaN(), 0, err
		}

		// at the root only the unedited state matters
		cn := t.nodes[c]
		lroot *= d[cn.skel.index[indel.Tuple(nil).Key()]]
	}
	if lroot <= 0 || math.IsNaN(lroot) {
		return math.Inf(-1), diagPen, nil
	}
	return math.Log(lroot) + scalers, diagPen, nil
}
