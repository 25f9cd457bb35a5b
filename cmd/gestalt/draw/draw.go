// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package draw implements a command to draw
// trees in a gestalt project as SVG files.
package draw

import (
	"bufio"
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/gestalt/alleles"
	"github.com/js-arias/gestalt/project"
)

var Command = &command.Command{
	Usage: `draw [--tree <tree>]
	[--step <value>] [--nonodes]
	[-o|--output <out-prefix>]
	<project-file>`,
	Short: "draw project trees as SVG files",
	Long: `
Command draw reads a gestalt project and draws the trees into a SVG-encoded
file.

The argument of the command is the name of the project file.

If the project defines an allele file, each terminal will be labeled with the
number of indels of its allele.

By default, 10 pixel units will be used per million years; use the flag
--step to define a different value (it can have decimal points).

By default, all trees in the project will be drawn. If the flag --tree is
set, only the indicated tree will be printed.

By default, node IDs will be drawn. If the flag --nonodes is given, then it
will draw the tree without node IDs.

By default, the names of the trees will be used as the output file names. Use
the flag -o, or --output, to define a prefix for the resulting files.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var noNodes bool
var stepX float64
var treeName string
var outPrefix string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&noNodes, "nonodes", false, "")
	c.Flags().Float64Var(&stepX, "step", 10, "")
	c.Flags().StringVar(&outPrefix, "output", "", "")
	c.Flags().StringVar(&outPrefix, "o", "", "")
	c.Flags().StringVar(&treeName, "tree", "", "")
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

	var obs *alleles.Collection
	if p.Path(project.Alleles) != "" {
		obs, err = p.Alleles()
		if err != nil {
			return err
		}
	}

	for _, tn := range tc.Names() {
		if treeName != "" && treeName != tn {
			continue
		}
		t := tc.Tree(tn)

		name := tn + ".svg"
		if outPrefix != "" {
			name = outPrefix + "-" + name
		}
		if err := writeSVG(name, copyTree(t, obs, stepX)); err != nil {
			return err
		}
	}
	return nil
}

func writeSVG(name string, t svgTree) (err error) {
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
	if err := t.draw(bw); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
