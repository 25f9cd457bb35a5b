// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package profile implements a command to plot
// the log likelihood profile of a single parameter.
package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/modelparam"
	"github.com/js-arias/gestalt/project"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var Command = &command.Command{
	Usage: `profile --param <parameter>
	[--min <value>] [--max <value>] [--steps <number>]
	[--extra <number>] [--tree <tree>]
	[-o|--output <out-prefix>]
	<project-file>`,
	Short: "plot a log likelihood profile",
	Long: `
Command profile reads a gestalt project and plots the log likelihood of a
tree as a function of a single model parameter, keeping every other parameter
fixed.

The argument of the command is the name of the project file.

The flag --param is required and sets the parameter to vary, using the names
of the parameter file, for example "double_cut_weight", "target_rate_0", or
"branch_len_2". The flags --min and --max define the profiled range, and the
flag --steps the number of evaluations; defaults are 0.01, 2, and 50.

By default, the first tree in the project is profiled. If the flag --tree is
set, the indicated tree will be used.

The flag --extra sets the number of extra cut events allowed when enumerating
the possible states of a node. The default is 1.

The plot is saved as a PNG file using the name of the project file, the name
of the tree, and the name of the parameter. Use the flag -o, or --output, to
set a different prefix.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var extraSteps int
var numSteps int
var minVal float64
var maxVal float64
var paramName string
var treeName string
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&extraSteps, "extra", 1, "")
	c.Flags().IntVar(&numSteps, "steps", 50, "")
	c.Flags().Float64Var(&minVal, "min", 0.01, "")
	c.Flags().Float64Var(&maxVal, "max", 2, "")
	c.Flags().StringVar(&paramName, "param", "", "")
	c.Flags().StringVar(&treeName, "tree", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if paramName == "" {
		return c.UsageError("flag --param must be defined")
	}
	if numSteps < 2 {
		return c.UsageError("flag --steps must be at least 2")
	}
	if maxVal <= minVal {
		return c.UsageError("flag --max must be greater than --min")
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

	tn := treeName
	if tn == "" {
		ls := tc.Names()
		if len(ls) == 0 {
			return fmt.Errorf("no trees in project %q", args[0])
		}
		tn = ls[0]
	}
	t := tc.Tree(tn)
	if t == nil {
		return fmt.Errorf("tree %q not in project %q", tn, args[0])
	}

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

	pts := make(plotter.XYs, 0, numSteps)
	for i := 0; i < numSteps; i++ {
		v := minVal + (maxVal-minVal)*float64(i)/float64(numSteps-1)
		np := pp.Clone()
		if err := setParam(np, paramName, v); err != nil {
			return err
		}
		ll, err := tr.LogLike(np)
		if err != nil {
			return fmt.Errorf("on tree %q: %v", tn, err)
		}
		if math.IsInf(ll, 0) || math.IsNaN(ll) {
			continue
		}
		pts = append(pts, plotter.XY{X: v, Y: ll})
	}
	if len(pts) == 0 {
		return fmt.Errorf("on tree %q: no finite likelihood in the profiled range", tn)
	}

	pl := plot.New()
	pl.Title.Text = tn
	pl.X.Label.Text = paramName
	pl.Y.Label.Text = "log likelihood"

	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	pl.Add(l)

	name := fmt.Sprintf("%s-%s-%s.png", args[0], tn, paramName)
	if output != "" {
		name = fmt.Sprintf("%s-%s-%s.png", output, tn, paramName)
	}
	if err := pl.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "%s\t%s\n", tn, name)
	return nil
}

// setParam sets a single parameter by its file name.
func setParam(p *lineage.Params, name string, v float64) error {
	switch modelparam.Param(strings.ToLower(name)) {
	case modelparam.DoubleCut:
		p.DoubleCutWeight = v
	case modelparam.TrimLongLeft:
		p.TrimLongProbs[0] = v
	case modelparam.TrimLongRight:
		p.TrimLongProbs[1] = v
	case modelparam.TrimZeroFocal:
		p.TrimZeroProbs[0] = v
	case modelparam.TrimZeroInter:
		p.TrimZeroProbs[1] = v
	case modelparam.InsertZero:
		p.InsertZeroProb = v
	case modelparam.InsertPoisson:
		p.InsertPoisson = v
	default:
		if sfx, ok := strings.CutPrefix(name, modelparam.BranchLenPrefix); ok {
			id, err := strconv.Atoi(sfx)
			if err != nil || id < 0 || id >= len(p.BranchLens) {
				return fmt.Errorf("unknown parameter %q", name)
			}
			p.BranchLens[id] = v
			return nil
		}
		if sfx, ok := strings.CutPrefix(name, modelparam.TargetRatePrefix); ok {
			tg, err := strconv.Atoi(sfx)
			if err != nil || tg < 0 || tg >= len(p.TargetRates) {
				return fmt.Errorf("unknown parameter %q", name)
			}
			p.TargetRates[tg] = v
			return nil
		}
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}
