// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package barcode implements the static description
// of a CRISPR-editable barcode,
// a sequence with a fixed number of cut targets.
package barcode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Meta is the static description of an unedited barcode:
// the number of targets,
// the absolute position of each cut site,
// the maximum trim length at each side of a cut,
// and the minimum trim length
// for a trim to deactivate the neighbor target
// (a "long" trim).
type Meta struct {
	// Absolute position of the cut site of each target.
	CutSites []int

	// Maximum trim length at each side of a cut site.
	LeftMaxTrim  []int
	RightMaxTrim []int

	// Minimum trim length for a long trim,
	// that is a trim that deactivates the neighbor target.
	LeftLongMin  []int
	RightLongMin []int

	// Length of the whole barcode sequence.
	Len int
}

// Targets returns the number of targets of the barcode.
func (m Meta) Targets() int {
	return len(m.CutSites)
}

// Validate returns an error if the metadata is inconsistent.
func (m Meta) Validate() error {
	n := len(m.CutSites)
	if n == 0 {
		return errors.New("barcode: metadata without targets")
	}
	for _, s := range [][]int{m.LeftMaxTrim, m.RightMaxTrim, m.LeftLongMin, m.RightLongMin} {
		if len(s) != n {
			return fmt.Errorf("barcode: metadata with %d targets: found field with %d values", n, len(s))
		}
	}

	prev := -1
	for i, c := range m.CutSites {
		if c <= prev {
			return fmt.Errorf("barcode: target %d: cut site %d out of order", i, c)
		}
		prev = c

		if m.LeftMaxTrim[i] < 0 || m.RightMaxTrim[i] < 0 {
			return fmt.Errorf("barcode: target %d: negative maximum trim", i)
		}
		if m.LeftLongMin[i] < 0 || m.RightLongMin[i] < 0 {
			return fmt.Errorf("barcode: target %d: negative long trim minimum", i)
		}
		if m.LeftLongMin[i] > m.LeftMaxTrim[i] {
			return fmt.Errorf("barcode: target %d: left long minimum %d beyond maximum %d", i, m.LeftLongMin[i], m.LeftMaxTrim[i])
		}
		if m.RightLongMin[i] > m.RightMaxTrim[i] {
			return fmt.Errorf("barcode: target %d: right long minimum %d beyond maximum %d", i, m.RightLongMin[i], m.RightMaxTrim[i])
		}
		if c-m.LeftMaxTrim[i] < 0 {
			return fmt.Errorf("barcode: target %d: left trim beyond barcode start", i)
		}
		if c+m.RightMaxTrim[i] >= m.Len {
			return fmt.Errorf("barcode: target %d: right trim beyond barcode end", i)
		}
	}
	return nil
}

// targetLen is the length of a single target
// in the default barcode geometry.
const targetLen = 20

// Default returns the metadata of a barcode
// with n identical targets,
// each 20 base pairs long,
// cut three base pairs before its right boundary,
// and a 10 base pair tail.
func Default(n int) Meta {
	m := Meta{
		CutSites:     make([]int, n),
		LeftMaxTrim:  make([]int, n),
		RightMaxTrim: make([]int, n),
		LeftLongMin:  make([]int, n),
		RightLongMin: make([]int, n),
		Len:          targetLen*n + 10,
	}
	for i := 0; i < n; i++ {
		m.CutSites[i] = targetLen*i + 17
		if i == 0 {
			m.LeftMaxTrim[i] = 17
			m.LeftLongMin[i] = 17
		} else {
			m.LeftMaxTrim[i] = 19
			m.LeftLongMin[i] = 18
		}
		if i == n-1 {
			m.RightMaxTrim[i] = 12
		} else {
			m.RightMaxTrim[i] = 19
		}
		m.RightLongMin[i] = 3
	}
	return m
}

var header = []string{
	"target",
	"cut_site",
	"left_max_trim",
	"right_max_trim",
	"left_long_min",
	"right_long_min",
}

// ReadTSV reads barcode metadata from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - target, the index of the target (from 0)
//   - cut_site, the absolute position of the cut site
//   - left_max_trim, maximum trim length at the left of the cut
//   - right_max_trim, maximum trim length at the right of the cut
//   - left_long_min, minimum length of a long left trim
//   - right_long_min, minimum length of a long right trim
//
// Here is an example file:
//
//	# barcode metadata
//	target	cut_site	left_max_trim	right_max_trim	left_long_min	right_long_min
//	0	17	17	19	17	3
//	1	37	19	19	18	3
//	2	57	19	12	18	3
//
// The barcode length is taken as the end
// of the maximum right trim of the last target.
func ReadTSV(r io.Reader) (Meta, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return Meta{}, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return Meta{}, fmt.Errorf("expecting field %q", h)
		}
	}

	var m Meta
	next := 0
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return Meta{}, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "target"
		tg, err := strconv.Atoi(row[fields[f]])
		if err != nil {
			return Meta{}, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if tg != next {
			return Meta{}, fmt.Errorf("on row %d: field %q: expecting target %d, got %d", ln, f, next, tg)
		}
		next++

		cols := []string{"cut_site", "left_max_trim", "right_max_trim", "left_long_min", "right_long_min"}
		vals := make([]int, len(cols))
		for i, f := range cols {
			v, err := strconv.Atoi(row[fields[f]])
			if err != nil {
				return Meta{}, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
			}
			vals[i] = v
		}
		m.CutSites = append(m.CutSites, vals[0])
		m.LeftMaxTrim = append(m.LeftMaxTrim, vals[1])
		m.RightMaxTrim = append(m.RightMaxTrim, vals[2])
		m.LeftLongMin = append(m.LeftLongMin, vals[3])
		m.RightLongMin = append(m.RightLongMin, vals[4])
	}
	if len(m.CutSites) == 0 {
		return Meta{}, errors.New("metadata without targets")
	}

	last := len(m.CutSites) - 1
	m.Len = m.CutSites[last] + m.RightMaxTrim[last] + 1
	if err := m.Validate(); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// TSV writes barcode metadata to a TSV file.
func (m Meta) TSV(w io.Writer) error {
	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}
	for i, c := range m.CutSites {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(c),
			strconv.Itoa(m.LeftMaxTrim[i]),
			strconv.Itoa(m.RightMaxTrim[i]),
			strconv.Itoa(m.LeftLongMin[i]),
			strconv.Itoa(m.RightLongMin[i]),
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
