// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/gestalt/alleles"
	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/modelparam"
	"github.com/js-arias/timetree"
)

// Alleles returns the observed alleles
// from a project.
func (p *Project) Alleles() (*alleles.Collection, error) {
	name := p.Path(Alleles)
	if name == "" {
		return nil, fmt.Errorf("alleles not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := alleles.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return c, nil
}

// Barcode returns the barcode metadata
// from a project.
func (p *Project) Barcode() (barcode.Meta, error) {
	name := p.Path(Barcode)
	if name == "" {
		return barcode.Meta{}, fmt.Errorf("barcode not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return barcode.Meta{}, err
	}
	defer f.Close()

	m, err := barcode.ReadTSV(f)
	if err != nil {
		return barcode.Meta{}, fmt.Errorf("on file %q: %v", name, err)
	}
	return m, nil
}

// Params returns the model parameters from a project
// for a tree with the given number of nodes
// and a barcode with the given number of targets.
// It returns nil without an error
// if the project does not define a parameter file.
func (p *Project) Params(nodes, targets int) (*lineage.Params, error) {
	name := p.Path(Params)
	if name == "" {
		return nil, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pp, err := modelparam.ReadTSV(f, nodes, targets)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return pp, nil
}

// Trees returns a tree collection
// from a project.
func (p *Project) Trees() (*timetree.Collection, error) {
	name := p.Path(Trees)
	if name == "" {
		return nil, fmt.Errorf("trees not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := timetree.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return c, nil
}
