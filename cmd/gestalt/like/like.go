// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package like implements a command to compute
// the log likelihood of the trees of a project.
package like

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/project"
)

var Command = &command.Command{
	Usage: `like [--extra <number>] <project-file>`,
	Short: "compute the log likelihood of the project trees",
	Long: `
Command like reads a gestalt project and computes the log likelihood of each
tree in the project given its observed alleles.

The argument of the command is the name of the project file.

The project must define a tree file, a barcode file, and an allele file. If
the project defines a parameter file, the likelihood will be evaluated at the
stored parameters, including the stored branch lengths; otherwise default
parameters will be used with branch lengths taken from the node ages of each
tree, in million years.

The flag --extra sets the number of extra cut events allowed when enumerating
the possible states of a node. The default is 1. Larger values give a better
approximation of the likelihood at a larger computational cost.

The log likelihood of each tree is printed to the standard output.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var extraSteps int

func setFlags(c *command.Command) {
	c.Flags().IntVar(&extraSteps, "extra", 1, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	tc, err := p.Trees()
	if err != nil {
		return err
	}
	m, err := p.Barcode()
	if err != nil {
		return err
	}
	obs, err := p.Alleles()
	if err != nil {
		return err
	}
	if err := obs.Validate(m); err != nil {
		return err
	}

	// check if all terminals have defined alleles
	for _, tn := range tc.Names() {
		t := tc.Tree(tn)
		for _, term := range t.Terms() {
			if !obs.HasTaxon(term) {
				return fmt.Errorf("taxon %q of tree %q has no defined allele", term, tn)
			}
		}
	}

	for _, tn := range tc.Names() {
		t := tc.Tree(tn)
		top, brLens, _, err := lineage.FromTimeTree(t, obs.Map())
		if err != nil {
			return err
		}

		tr, err := lineage.New(top, lineage.Param{Meta: m, MaxExtraSteps: extraSteps})
		if err != nil {
			return fmt.Errorf("on tree %q: %v", tn, err)
		}

		pp, err := p.Params(top.Len(), m.Targets())
		if err != nil {
			return err
		}
		if pp == nil {
			pp = lineage.DefaultParams(top.Len(), m.Targets())
			copy(pp.BranchLens, brLens)
		}

		ll, err := tr.LogLike(pp)
		if err != nil {
			return fmt.Errorf("on tree %q: %v", tn, err)
		}
		fmt.Fprintf(c.Stdout(), "%s\t%.6f\n", tn, ll)
	}
	return nil
}
