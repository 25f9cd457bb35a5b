// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package modelparam implements reading and writing
// of the parameters of the barcode mutation process.
package modelparam

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/js-arias/gestalt/infer/lineage"
)

// Param is a keyword to identify
// a parameter in a parameter file.
type Param string

// Valid scalar parameters.
const (
	// DoubleCut is the weight of an event
	// that cuts two different targets.
	DoubleCut Param = "double_cut_weight"

	// TrimLongLeft and TrimLongRight are the probabilities
	// of a long trim at each side of a cut.
	TrimLongLeft  Param = "trim_long_left"
	TrimLongRight Param = "trim_long_right"

	// TrimZeroFocal and TrimZeroInter are the zero inflation
	// of the deletion length
	// for focal and inter target events.
	TrimZeroFocal Param = "trim_zero_focal"
	TrimZeroInter Param = "trim_zero_inter"

	// InsertZero is the zero inflation
	// of the insertion length.
	InsertZero Param = "insert_zero_prob"

	// InsertPoisson is the mean
	// of the insertion length distribution.
	InsertPoisson Param = "insert_poisson"
)

// Indexed parameter prefixes.
const (
	// BranchLenPrefix prefixes the length of the branch
	// ending at a node.
	BranchLenPrefix = "branch_len_"

	// TargetRatePrefix prefixes the cut rate of a target.
	TargetRatePrefix = "target_rate_"
)

var header = []string{
	"parameter",
	"value",
}

// ReadTSV reads a parameter file from a TSV file
// for a tree with the given number of nodes
// and a barcode with the given number of targets.
// Parameters not present in the file
// keep their default values.
//
// The TSV must contain the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Here is an example file:
//
//	# gestalt model parameters
//	parameter	value
//	double_cut_weight	0.050000
//	insert_poisson	2.000000
//	target_rate_0	0.100000
//	branch_len_1	1.250000
func ReadTSV(r io.Reader, nodes, targets int) (*lineage.Params, error) {
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

	p := lineage.DefaultParams(nodes, targets)
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		name := strings.ToLower(row[fields["parameter"]])
		f := "value"
		v, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		switch Param(name) {
		case DoubleCut:
			p.DoubleCutWeight = v
		case TrimLongLeft:
			p.TrimLongProbs[0] = v
		case TrimLongRight:
			p.TrimLongProbs[1] = v
		case TrimZeroFocal:
			p.TrimZeroProbs[0] = v
		case TrimZeroInter:
			p.TrimZeroProbs[1] = v
		case InsertZero:
			p.InsertZeroProb = v
		case InsertPoisson:
			p.InsertPoisson = v
		default:
			if sfx, ok := strings.CutPrefix(name, BranchLenPrefix); ok {
				id, err := strconv.Atoi(sfx)
				if err != nil || id < 0 || id >= nodes {
					return nil, fmt.Errorf("on row %d: unknown node on parameter %q", ln, name)
				}
				p.BranchLens[id] = v
				continue
			}
			if sfx, ok := strings.CutPrefix(name, TargetRatePrefix); ok {
				tg, err := strconv.Atoi(sfx)
				if err != nil || tg < 0 || tg >= targets {
					return nil, fmt.Errorf("on row %d: unknown target on parameter %q", ln, name)
				}
				p.TargetRates[tg] = v
				continue
			}
			return nil, fmt.Errorf("on row %d: unknown parameter %q", ln, name)
		}
	}
	return p, nil
}

// TSV writes a parameter set to a TSV file.
func TSV(w io.Writer, p *lineage.Params) error {
	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	rows := [][2]string{
		{string(DoubleCut), format(p.DoubleCutWeight)},
		{string(TrimLongLeft), format(p.TrimLongProbs[0])},
		{string(TrimLongRight), format(p.TrimLongProbs[1])},
		{string(TrimZeroFocal), format(p.TrimZeroProbs[0])},
		{string(TrimZeroInter), format(p.TrimZeroProbs[1])},
		{string(InsertZero), format(p.InsertZeroProb)},
		{string(InsertPoisson), format(p.InsertPoisson)},
	}
	for i, r := range p.TargetRates {
		rows = append(rows, [2]string{TargetRatePrefix + strconv.Itoa(i), format(r)})
	}
	for i, b := range p.BranchLens {
		rows = append(rows, [2]string{BranchLenPrefix + strconv.Itoa(i), format(b)})
	}

	for _, r := range rows {
		if err := tab.Write(r[:]); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
