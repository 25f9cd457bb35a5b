// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package alleles implements a collection
// of observed barcode alleles
// indexed by taxon name.
package alleles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
)

// A Collection is a set of observed alleles
// indexed by taxon name.
type Collection struct {
	taxa map[string]indel.Allele
}

// NewCollection creates a new empty collection.
func NewCollection() *Collection {
	return &Collection{
		taxa: make(map[string]indel.Allele),
	}
}

// Add adds a taxon with its observed allele
// to the collection,
// replacing any previous allele of the taxon.
func (c *Collection) Add(taxon string, a indel.Allele) {
	taxon = canon(taxon)
	if taxon == "" {
		return
	}
	na := slices.Clone(a)
	na.Sort()
	c.taxa[taxon] = na
}

// Allele returns the observed allele of a taxon.
func (c *Collection) Allele(taxon string) indel.Allele {
	a, ok := c.taxa[canon(taxon)]
	if !ok {
		return nil
	}
	return slices.Clone(a)
}

// HasTaxon returns true if the taxon
// is in the collection.
func (c *Collection) HasTaxon(taxon string) bool {
	_, ok := c.taxa[canon(taxon)]
	return ok
}

// Map returns the alleles of the collection
// indexed by taxon name.
func (c *Collection) Map() map[string]indel.Allele {
	m := make(map[string]indel.Allele, len(c.taxa))
	for tax, a := range c.taxa {
		m[tax] = slices.Clone(a)
	}
	return m
}

// Taxa returns the taxon names of the collection
// in sorted order.
func (c *Collection) Taxa() []string {
	taxa := make([]string, 0, len(c.taxa))
	for tax := range c.taxa {
		taxa = append(taxa, tax)
	}
	slices.Sort(taxa)
	return taxa
}

// Validate returns an error if an allele
// of the collection is invalid
// under the given barcode.
func (c *Collection) Validate(m barcode.Meta) error {
	for _, tax := range c.Taxa() {
		if err := c.taxa[tax].Validate(m); err != nil {
			return fmt.Errorf("taxon %q: %v", tax, err)
		}
	}
	return nil
}

func canon(taxon string) string {
	return strings.Join(strings.Fields(taxon), " ")
}

var header = []string{
	"taxon",
	"min_deact",
	"min_cut",
	"max_cut",
	"max_deact",
	"start",
	"del_len",
	"insert_len",
}

// noIndel marks a taxon with an unedited barcode.
const noIndel = "-"

// ReadTSV reads a collection of alleles from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - taxon, the name of the taxon
//   - min_deact, min_cut, max_cut, max_deact,
//     the target tract of an indel
//   - start, the absolute start position of the deletion
//   - del_len, the length of the deletion
//   - insert_len, the length of the insertion
//
// Each row is a single indel
// and a taxon can have multiple rows.
// A taxon with an unedited barcode
// uses "-" on every indel field.
//
// Here is an example file:
//
//	# observed alleles
//	taxon	min_deact	min_cut	max_cut	max_deact	start	del_len	insert_len
//	cell-1	1	1	1	1	37	0	2
//	cell-1	2	2	3	3	55	42	0
//	cell-2	-	-	-	-	-	-	-
func ReadTSV(r io.Reader) (*Collection, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	c := NewCollection()
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "taxon"
		tax := canon(row[fields[f]])
		if tax == "" {
			continue
		}

		if row[fields["min_deact"]] == noIndel {
			if !c.HasTaxon(tax) {
				c.Add(tax, nil)
			}
			continue
		}

		cols := []string{"min_deact", "min_cut", "max_cut", "max_deact", "start", "del_len", "insert_len"}
		vals := make([]int, len(cols))
		for i, f := range cols {
			v, err := strconv.Atoi(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
			}
			vals[i] = v
		}
		sg := indel.Singleton{
			TargetTract: indel.TargetTract{
				MinDeact: vals[0],
				MinCut:   vals[1],
				MaxCut:   vals[2],
				MaxDeact: vals[3],
			},
			Start:     vals[4],
			DelLen:    vals[5],
			InsertLen: vals[6],
		}

		a := c.taxa[tax]
		a = append(a, sg)
		a.Sort()
		c.taxa[tax] = a
	}
	return c, nil
}

// TSV writes a collection of alleles to a TSV file.
func (c *Collection) TSV(w io.Writer) error {
	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for _, tax := range c.Taxa() {
		a := c.taxa[tax]
		if len(a) == 0 {
			row := []string{tax, noIndel, noIndel, noIndel, noIndel, noIndel, noIndel, noIndel}
			if err := tab.Write(row); err != nil {
				return fmt.Errorf("when writing data: %v", err)
			}
			continue
		}
		for _, sg := range a {
			row := []string{
				tax,
				strconv.Itoa(sg.MinDeact),
				strconv.Itoa(sg.MinCut),
				strconv.Itoa(sg.MaxCut),
				strconv.Itoa(sg.MaxDeact),
				strconv.Itoa(sg.Start),
				strconv.Itoa(sg.DelLen),
				strconv.Itoa(sg.InsertLen),
			}
			if err := tab.Write(row); err != nil {
				return fmt.Errorf("when writing data: %v", err)
			}
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
