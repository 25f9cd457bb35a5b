// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fitcmd implements a command to estimate
// the mutation parameters and branch lengths
// of the trees of a project
// by maximum penalized likelihood.
package fitcmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/gestalt/infer/fit"
	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/modelparam"
	"github.com/js-arias/gestalt/project"
)

var Command = &command.Command{
	Usage: `fit [--extra <number>]
	[--logbarr <value>] [--halfpen <value>] [--iter <number>]
	[--jitter <value>] [--seed <number>]
	[-o|--output <out-prefix>]
	<project-file>`,
	Short: "estimate model parameters by penalized likelihood",
	Long: `
Command fit reads a gestalt project and estimates the mutation parameters and
branch lengths of each tree in the project by maximum penalized likelihood.

The argument of the command is the name of the project file.

The project must define a tree file, a barcode file, and an allele file. If
the project defines a parameter file, it will be used as the starting point of
the estimation; otherwise default parameters will be used with branch lengths
taken from the node ages of each tree, in million years.

The flag --extra sets the number of extra cut events allowed when enumerating
the possible states of a node. The default is 1.

The flag --logbarr sets the coefficient of the log barrier that keeps branch
lengths positive; the default is 0.001. The flag --halfpen sets the
coefficient of the penalty that pulls the diagonal of the branch probability
matrices toward one half; the default is 0.1. The flag --iter sets the
maximum number of iterations of the optimizer.

If the flag --jitter is set, the starting branch lengths will be multiplied
by a log normal noise with the given sigma; use the flag --seed to change the
seed of the noise.

For each tree the fitted parameters are stored in a TSV file using the name
of the project file, the name of the tree, and the suffix 'params'. Use the
flag -o, or --output, to set a different prefix. Branch lengths in the output
are indexed by a preorder numbering of the tree nodes.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var extraSteps int
var maxIter int
var seed uint64
var jitter float64
var logBarr float64
var halfPen float64
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&extraSteps, "extra", 1, "")
	c.Flags().IntVar(&maxIter, "iter", 0, "")
	c.Flags().Uint64Var(&seed, "seed", 1, "")
	c.Flags().Float64Var(&jitter, "jitter", 0, "")
	c.Flags().Float64Var(&logBarr, "logbarr", 0.001, "")
	c.Flags().Float64Var(&halfPen, "halfpen", 0.1, "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
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

		p0, err := p.Params(top.Len(), m.Targets())
		if err != nil {
			return err
		}
		if p0 == nil {
			p0 = lineage.DefaultParams(top.Len(), m.Targets())
			copy(p0.BranchLens, brLens)
		}
		if jitter > 0 {
			p0 = fit.Jitter(tr, p0, jitter, seed)
		}

		res, err := fit.Estimate(tr, p0, fit.Param{
			LogBarr:       logBarr,
			DistToHalfPen: halfPen,
			MaxIter:       maxIter,
		})
		if err != nil {
			return fmt.Errorf("on tree %q: %v", tn, err)
		}

		name := fmt.Sprintf("%s-%s-params.tab", args[0], tn)
		if output != "" {
			name = fmt.Sprintf("%s-%s-params.tab", output, tn)
		}
		if err := writeParams(name, res.Params); err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "%s\t%.6f\t%.6f\t%d\n", tn, res.LogLike, res.PenLogLike, res.Evals)
	}
	return nil
}

func writeParams(name string, p *lineage.Params) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# gestalt model parameters\n")
	if err := modelparam.TSV(bw, p); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
