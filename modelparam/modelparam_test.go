// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package modelparam_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/gestalt/infer/lineage"
	"github.com/js-arias/gestalt/modelparam"
)

func TestTSV(t *testing.T) {
	p := lineage.DefaultParams(5, 3)
	p.TargetRates[1] = 0.25
	p.BranchLens[2] = 1.75
	p.DoubleCutWeight = 0.125
	p.InsertPoisson = 1.5

	var w bytes.Buffer
	if err := modelparam.TSV(&w, p); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}

	np, err := modelparam.ReadTSV(strings.NewReader(w.String()), 5, 3)
	if err != nil {
		t.Fatalf("unable to read TSV data: %v", err)
	}
	if !reflect.DeepEqual(np, p) {
		t.Errorf("parameters tsv: got %+v, want %+v", np, p)
	}
}

func TestReadTSVDefaults(t *testing.T) {
	data := "parameter\tvalue\ninsert_poisson\t3.5\n"
	p, err := modelparam.ReadTSV(strings.NewReader(data), 3, 2)
	if err != nil {
		t.Fatalf("unable to read TSV data: %v", err)
	}
	if p.InsertPoisson != 3.5 {
		t.Errorf("insert poisson: got %.6f, want 3.5", p.InsertPoisson)
	}

	def := lineage.DefaultParams(3, 2)
	if p.DoubleCutWeight != def.DoubleCutWeight {
		t.Errorf("double cut weight: got %.6f, want the default %.6f", p.DoubleCutWeight, def.DoubleCutWeight)
	}

	bad := "parameter\tvalue\nnot_a_parameter\t1.0\n"
	if _, err := modelparam.ReadTSV(strings.NewReader(bad), 3, 2); err == nil {
		t.Errorf("expecting error on an unknown parameter")
	}
}
