// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sim implements a command to simulate
// barcode alleles over the trees of a project.
package sim

import (
	"bufio"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/gestalt/alleles"
	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/project"
	"github.com/js-arias/gestalt/simulate"
	"github.com/js-arias/timetree"
)

var Command = &command.Command{
	Usage: `sim [--seed <number>]
	[-o|--output <out-prefix>]
	<project-file>`,
	Short: "simulate barcode alleles over the project trees",
	Long: `
Command sim reads a gestalt project and simulates the barcode cut and repair
process over each tree in the project, writing the alleles observed at the
terminals.

The argument of the command is the name of the project file.

The project must define a tree file and a barcode file. If the project
defines a parameter file, the simulation will use the stored parameters,
including the stored branch lengths; otherwise default parameters will be
used with branch lengths taken from the node ages of each tree, in million
years.

The flag --seed sets the seed of the random number generator.

For each tree the simulated alleles are stored in a TSV file using the name
of the project file, the name of the tree, and the suffix 'sim'. Use the flag
-o, or --output, to set a different prefix.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var seed uint64
var output string

func setFlags(c *command.Command) {
	c.Flags().Uint64Var(&seed, "seed", 1, "")
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

	for _, tn := range tc.Names() {
		t := tc.Tree(tn)
		top, brLens, err := emptyTopology(t)
		if err != nil {
			return err
		}

		pp, err := p.Params(top.Len(), m.Targets())
		if err != nil {
			return err
		}
		if pp == nil {
			pp = lineage.DefaultParams(top.Len(), m.Targets())
			copy(pp.BranchLens, brLens)
		}

		s := simulate.New(m, pp, seed)
		obs := s.Topology(top, pp.BranchLens)

		coll := alleles.NewCollection()
		for id, a := range obs {
			coll.Add(top.Taxon(id), a)
		}

		name := fmt.Sprintf("%s-%s-sim.tab", args[0], tn)
		if output != "" {
			name = fmt.Sprintf("%s-%s-sim.tab", output, tn)
		}
		if err := writeAlleles(name, coll); err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "%s\t%s\n", tn, name)
	}
	return nil
}

// emptyTopology copies a time tree into a topology
// without observations,
// keeping the branch lengths implied by the node ages.
func emptyTopology(t *timetree.Tree) (*lineage.Topology, []float64, error) {
	top := lineage.NewTopology()
	var lens []float64

	var copyNode func(id, parent int) error
	copyNode = func(id, parent int) error {
		nid, err := top.AddNode(parent)
		if err != nil {
			return err
		}
		brLen := 0.0
		if !t.IsRoot(id) {
			brLen = float64(t.Age(t.Parent(id))-t.Age(id)) / 1_000_000
		}
		lens = append(lens, brLen)

		if t.IsTerm(id) {
			return top.SetObserved(nid, t.Taxon(id), nil)
		}
		for _, c := range t.Children(id) {
			if err := copyNode(c, nid); err != nil {
				return err
			}
		}
		return nil
	}
	if err := copyNode(t.Root(), -1); err != nil {
		return nil, nil, fmt.Errorf("on tree %q: %v", t.Name(), err)
	}
	return top, lens, nil
}

func writeAlleles(name string, c *alleles.Collection) (err error) {
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
	fmt.Fprintf(bw, "# simulated alleles\n")
	if err := c.TSV(bw); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
