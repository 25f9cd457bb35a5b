// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"
	"slices"
)

// Params are the parameters of the mutation process
// and the branch lengths of a lineage tree.
// All rates must be positive
// and all probabilities must be in [0, 1].
type Params struct {
	// Length of the branch ending at each node,
	// indexed by node identifier.
	// The root entry is ignored.
	BranchLens []float64

	// Cut rate of each target.
	TargetRates []float64

	// Weight of an event that cuts two different targets.
	DoubleCutWeight float64

	// Probability of a long trim
	// at the left and right sides of a cut.
	TrimLongProbs [2]float64

	// Zero inflation of the deletion length
	// for focal and inter target events
	// when both trims are short.
	TrimZeroProbs [2]float64

	// Zero inflation of the insertion length.
	InsertZeroProb float64

	// Mean of the Poisson distribution
	// of the insertion length.
	InsertPoisson float64
}

// DefaultParams returns a parameter set
// with the default initial values
// for a tree with the given number of nodes
// and a barcode with the given number of targets.
func DefaultParams(nodes, targets int) *Params {
	p := &Params{
		BranchLens:      make([]float64, nodes),
		TargetRates:     make([]float64, targets),
		DoubleCutWeight: 0.05,
		TrimLongProbs:   [2]float64{0.05, 0.05},
		TrimZeroProbs:   [2]float64{0.5, 0.5},
		InsertZeroProb:  0.5,
		InsertPoisson:   2,
	}
	for i := range p.BranchLens {
		p.BranchLens[i] = 1
	}
	for i := range p.TargetRates {
		p.TargetRates[i] = 0.1
	}
	return p
}

// Clone returns a deep copy of the parameters.
func (p *Params) Clone() *Params {
	np := *p
	np.BranchLens = slices.Clone(p.BranchLens)
	np.TargetRates = slices.Clone(p.TargetRates)
	return &np
}

// NumParams returns the length of the flat vector form
// of the parameters.
func (p *Params) NumParams() int {
	return len(p.BranchLens) + len(p.TargetRates) + 7
}

// Flat returns the parameters as a single flat vector:
// branch lengths,
// target rates,
// double cut weight,
// long trim probabilities,
// zero trim probabilities,
// zero insert probability,
// and insert Poisson mean.
func (p *Params) Flat() []float64 {
	x := make([]float64, 0, p.NumParams())
	x = append(x, p.BranchLens...)
	x = append(x, p.TargetRates...)
	x = append(x, p.DoubleCutWeight)
	x = append(x, p.TrimLongProbs[0], p.TrimLongProbs[1])
	x = append(x, p.TrimZeroProbs[0], p.TrimZeroProbs[1])
	x = append(x, p.InsertZeroProb)
	x = append(x, p.InsertPoisson)
	return x
}

// SetFlat sets the parameters from a flat vector
// with the layout of the Flat method.
func (p *Params) SetFlat(x []float64) error {
	if len(x) != p.NumParams() {
		return fmt.Errorf("lineage: expecting %d parameters, got %d", p.NumParams(), len(x))
	}
	copy(p.BranchLens, x[:len(p.BranchLens)])
	x = x[len(p.BranchLens):]
	copy(p.TargetRates, x[:len(p.TargetRates)])
	x = x[len(p.TargetRates):]
	p.DoubleCutWeight = x[0]
	p.TrimLongProbs[0] = x[1]
	p.TrimLongProbs[1] = x[2]
	p.TrimZeroProbs[0] = x[3]
	p.TrimZeroProbs[1] = x[4]
	p.InsertZeroProb = x[5]
	p.InsertPoisson = x[6]
	return nil
}

// Validate returns an error if the parameters
// are outside their valid domains
// or do not match the tree dimensions.
func (p *Params) Validate(nodes, targets int) error {
	if len(p.BranchLens) != nodes {
		return fmt.Errorf("lineage: expecting %d branch lengths, got %d", nodes, len(p.BranchLens))
	}
	if len(p.TargetRates) != targets {
		return fmt.Errorf("lineage: expecting %d target rates, got %d", targets, len(p.TargetRates))
	}
	for i, b := range p.BranchLens {
		if b < 0 {
			return fmt.Errorf("lineage: node %d: negative branch length", i)
		}
	}
	for i, r := range p.TargetRates {
		if r <= 0 {
			return fmt.Errorf("lineage: target %d: rate must be positive", i)
		}
	}
	if p.DoubleCutWeight < 0 {
		return fmt.Errorf("lineage: negative double cut weight")
	}
	probs := []float64{
		p.TrimLongProbs[0], p.TrimLongProbs[1],
		p.TrimZeroProbs[0], p.TrimZeroProbs[1],
		p.InsertZeroProb,
	}
	for _, v := range probs {
		if v < 0 || v > 1 {
			return fmt.Errorf("lineage: probability %.6f outside [0,1]", v)
		}
	}
	if p.InsertPoisson <= 0 {
		return fmt.Errorf("lineage: insert Poisson mean must be positive")
	}
	return nil
}
