// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fit implements maximum penalized likelihood
// estimation of the mutation parameters
// and branch lengths of a lineage tree.
package fit

import (
	"math"

	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// Param is a collection of settings
// for an estimation run.
type Param struct {
	// Coefficient of the log barrier
	// on branch length positivity.
	LogBarr float64

	// Coefficient of the penalty pulling
	// the branch probability diagonals toward one half.
	DistToHalfPen float64

	// Maximum number of major iterations
	// of the optimizer.
	// Zero means the optimizer default.
	MaxIter int
}

// Result is the output of an estimation run.
type Result struct {
	// Fitted parameters.
	Params *lineage.Params

	// Penalized log likelihood at the optimum.
	PenLogLike float64

	// Log likelihood at the optimum.
	LogLike float64

	// Number of function evaluations.
	Evals int
}

// Estimate maximizes the penalized log likelihood of a tree
// starting from the given parameters.
// Rates and branch lengths are optimized in log scale
// and probabilities in logit scale,
// so every proposed parameter set stays in its domain.
func Estimate(t *lineage.Tree, p0 *lineage.Params, prm Param) (*Result, error) {
	tf := transform{
		root:    t.Root(),
		nodes:   len(p0.BranchLens),
		targets: len(p0.TargetRates),
	}

	v0, err := t.Penalized(p0, prm.LogBarr, prm.DistToHalfPen)
	if err != nil {
		return nil, errors.Wrap(err, "fit: initial parameters")
	}
	if math.IsInf(v0, -1) || math.IsNaN(v0) {
		return nil, errors.New("fit: initial parameters have zero likelihood")
	}

	obj := func(x []float64) float64 {
		p := tf.params(x, p0)
		v, err := t.Penalized(p, prm.LogBarr, prm.DistToHalfPen)
		if err != nil || math.IsNaN(v) {
			return math.Inf(1)
		}
		return -v
	}

	problem := optimize.Problem{
		Func: obj,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, obj, x, nil)
		},
	}

	settings := &optimize.Settings{}
	if prm.MaxIter > 0 {
		settings.MajorIterations = prm.MaxIter
	}

	res, err := optimize.Minimize(problem, tf.vector(p0), settings, &optimize.LBFGS{})
	if err != nil && res == nil {
		return nil, errors.Wrap(err, "fit: optimization")
	}

	best := tf.params(res.X, p0)
	pen, err := t.Penalized(best, prm.LogBarr, prm.DistToHalfPen)
	if err != nil {
		return nil, errors.Wrap(err, "fit: fitted parameters")
	}
	ll, err := t.LogLike(best)
	if err != nil {
		return nil, errors.Wrap(err, "fit: fitted parameters")
	}

	return &Result{
		Params:     best,
		PenLogLike: pen,
		LogLike:    ll,
		Evals:      res.Stats.FuncEvaluations,
	}, nil
}

// Jitter returns a copy of the parameters
// with every branch length multiplied
// by a log normal noise with the given sigma.
// It is used to build alternative starting points
// for the estimation.
func Jitter(t *lineage.Tree, p *lineage.Params, sigma float64, seed uint64) *lineage.Params {
	ln := distuv.LogNormal{
		Mu:    0,
		Sigma: sigma,
		Src:   rand.NewSource(seed),
	}

	np := p.Clone()
	for i := range np.BranchLens {
		if i == t.Root() {
			continue
		}
		np.BranchLens[i] *= ln.Rand()
	}
	return np
}

// A transform maps the parameters
// into an unconstrained vector:
// logarithms for rates and branch lengths,
// logits for probabilities.
type transform struct {
	root    int
	nodes   int
	targets int
}

func (tf transform) len() int {
	return tf.nodes - 1 + tf.targets + 7
}

func (tf transform) vector(p *lineage.Params) []float64 {
	x := make([]float64, 0, tf.len())
	for i, b := range p.BranchLens {
		if i == tf.root {
			continue
		}
		x = append(x, logRate(b))
	}
	for _, r := range p.TargetRates {
		x = append(x, logRate(r))
	}
	x = append(x, logRate(p.DoubleCutWeight))
	x = append(x, logit(p.TrimLongProbs[0]), logit(p.TrimLongProbs[1]))
	x = append(x, logit(p.TrimZeroProbs[0]), logit(p.TrimZeroProbs[1]))
	x = append(x, logit(p.InsertZeroProb))
	x = append(x, logRate(p.InsertPoisson))
	return x
}

// rateEps keeps rates and branch lengths
// away from zero
// so the logarithm stays finite.
const rateEps = 1e-10

func logRate(v float64) float64 {
	if v < rateEps {
		v = rateEps
	}
	return math.Log(v)
}

func (tf transform) params(x []float64, base *lineage.Params) *lineage.Params {
	p := base.Clone()
	k := 0
	for i := range p.BranchLens {
		if i == tf.root {
			continue
		}
		p.BranchLens[i] = math.Exp(x[k])
		k++
	}
	for i := range p.TargetRates {
		p.TargetRates[i] = math.Exp(x[k])
		k++
	}
	p.DoubleCutWeight = math.Exp(x[k])
	k++
	p.TrimLongProbs[0] = sigmoid(x[k])
	p.TrimLongProbs[1] = sigmoid(x[k+1])
	p.TrimZeroProbs[0] = sigmoid(x[k+2])
	p.TrimZeroProbs[1] = sigmoid(x[k+3])
	p.InsertZeroProb = sigmoid(x[k+4])
	p.InsertPoisson = math.Exp(x[k+5])
	return p
}

// probEps keeps probabilities away from the domain borders
// so the logit stays finite.
const probEps = 1e-6

func logit(q float64) float64 {
	if q < probEps {
		q = probEps
	}
	if q > 1-probEps {
		q = 1 - probEps
	}
	return math.Log(q / (1 - q))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
