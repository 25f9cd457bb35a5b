// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package indel implements the algebra of target level edits
// of a CRISPR barcode:
// target tracts,
// concrete indels (singletons),
// tract tuples,
// and ancestral state bounds.
package indel

import (
	"fmt"
	"slices"
	"strings"

	"github.com/js-arias/gestalt/barcode"
)

// A TargetTract is a single cut and repair event
// described at the target level:
// the targets cut at each end of the deletion
// and the outermost targets deactivated by the trims.
// A trim that deactivates the neighbor target
// is a long trim,
// so a long trim at a side means that the deactivated target
// is one beyond the cut target at that side.
type TargetTract struct {
	MinDeact int
	MinCut   int
	MaxCut   int
	MaxDeact int
}

// IsLeftLong returns true if the left trim
// deactivates the target at the left of the cut.
func (tt TargetTract) IsLeftLong() bool {
	return tt.MinDeact < tt.MinCut
}

// IsRightLong returns true if the right trim
// deactivates the target at the right of the cut.
func (tt TargetTract) IsRightLong() bool {
	return tt.MaxDeact > tt.MaxCut
}

// IsValid returns true if the tract indices are ordered
// and each trim deactivates at most one neighbor target.
func (tt TargetTract) IsValid() bool {
	if tt.MinDeact > tt.MinCut || tt.MinCut > tt.MaxCut || tt.MaxCut > tt.MaxDeact {
		return false
	}
	if tt.MinCut-tt.MinDeact > 1 {
		return false
	}
	if tt.MaxDeact-tt.MaxCut > 1 {
		return false
	}
	return true
}

// Contains returns true if the deactivated range of tract o
// is inside the deactivated range of the tract.
func (tt TargetTract) Contains(o TargetTract) bool {
	return tt.MinDeact <= o.MinDeact && o.MaxDeact <= tt.MaxDeact
}

func (tt TargetTract) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", tt.MinDeact, tt.MinCut, tt.MaxCut, tt.MaxDeact)
}

// compareTracts orders tracts by their deactivated range,
// then by their cut targets.
func compareTracts(a, b TargetTract) int {
	if c := a.MinDeact - b.MinDeact; c != 0 {
		return c
	}
	if c := a.MaxDeact - b.MaxDeact; c != 0 {
		return c
	}
	if c := a.MinCut - b.MinCut; c != 0 {
		return c
	}
	return a.MaxCut - b.MaxCut
}

// A Tuple is an ordered set of target tracts
// with pairwise disjoint deactivated ranges.
// It is the state of a barcode in the edit process.
type Tuple []TargetTract

// Key returns a compact textual form of the tuple,
// usable as a map key.
func (tp Tuple) Key() string {
	var b strings.Builder
	for _, tt := range tp {
		fmt.Fprintf(&b, "%d.%d.%d.%d;", tt.MinDeact, tt.MinCut, tt.MaxCut, tt.MaxDeact)
	}
	return b.String()
}

// Equal returns true if both tuples contain the same tracts.
func (tp Tuple) Equal(o Tuple) bool {
	if len(tp) != len(o) {
		return false
	}
	for i, tt := range tp {
		if tt != o[i] {
			return false
		}
	}
	return true
}

// IsValid returns true if all tracts are valid,
// inside a barcode with n targets,
// and pairwise disjoint in order.
func (tp Tuple) IsValid(n int) bool {
	prev := -1
	for _, tt := range tp {
		if !tt.IsValid() {
			return false
		}
		if tt.MinDeact < 0 || tt.MaxDeact >= n {
			return false
		}
		if tt.MinDeact <= prev {
			return false
		}
		prev = tt.MaxDeact
	}
	return true
}

// Contains returns true if the tuple contains
// the exact tract tt.
func (tp Tuple) Contains(tt TargetTract) bool {
	for _, t := range tp {
		if t == tt {
			return true
		}
	}
	return false
}

// IsDeact returns true if target tg is deactivated
// by some tract of the tuple.
func (tp Tuple) IsDeact(tg int) bool {
	for _, t := range tp {
		if t.MinDeact <= tg && tg <= t.MaxDeact {
			return true
		}
	}
	return false
}

// ActiveTargets returns the targets of an n target barcode
// not deactivated by the tuple.
func (tp Tuple) ActiveTargets(n int) []int {
	var act []int
	for tg := 0; tg < n; tg++ {
		if !tp.IsDeact(tg) {
			act = append(act, tg)
		}
	}
	return act
}

// Apply returns the tuple that results from the event e:
// tracts covered by the deactivated range of e are absorbed,
// and e is inserted in order.
// It returns false if a tract overlaps e only partially.
func (tp Tuple) Apply(e TargetTract) (Tuple, bool) {
	out := make(Tuple, 0, len(tp)+1)
	for _, t := range tp {
		if e.Contains(t) {
			continue
		}
		if t.MaxDeact < e.MinDeact || t.MinDeact > e.MaxDeact {
			out = append(out, t)
			continue
		}
		return nil, false
	}
	out = append(out, e)
	slices.SortFunc(out, compareTracts)
	return out, true
}

// Diff returns the events that advance the parent tuple
// into the child tuple,
// one event per child tract not already present in the parent.
// It returns false if the child is not reachable from the parent.
func Diff(parent, child Tuple) ([]TargetTract, bool) {
	// edits are irreversible:
	// every parent tract must be covered by a child tract
	for _, p := range parent {
		found := false
		for _, c := range child {
			if c.Contains(p) {
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}

	var events []TargetTract
	for _, c := range child {
		if parent.Contains(c) {
			continue
		}
		if !c.IsValid() {
			return nil, false
		}
		// the cut targets must still be active
		if parent.IsDeact(c.MinCut) || parent.IsDeact(c.MaxCut) {
			return nil, false
		}
		// a long trim requires an active neighbor
		if c.IsLeftLong() && parent.IsDeact(c.MinDeact) {
			return nil, false
		}
		if c.IsRightLong() && parent.IsDeact(c.MaxDeact) {
			return nil, false
		}
		events = append(events, c)
	}

	cur := parent
	for _, e := range events {
		nx, ok := cur.Apply(e)
		if !ok {
			return nil, false
		}
		cur = nx
	}
	if !cur.Equal(child) {
		return nil, false
	}
	return events, true
}

// PossibleTracts returns every target tract
// that can be produced by a single cut and repair event
// over the given active targets.
// A long trim at a side is possible only when the neighbor
// at that side is active.
func PossibleTracts(active []int) []TargetTract {
	n := len(active)

	// possible (minDeact, minCut) pairs,
	// indexed by the position of the cut target
	starts := make([][][2]int, n)
	for i, tg := range active {
		starts[i] = append(starts[i], [2]int{tg, tg})
		if i < n-1 && active[i+1] == tg+1 {
			starts[i+1] = append(starts[i+1], [2]int{tg, tg + 1})
		}
	}

	// possible (maxCut, maxDeact) pairs
	ends := make([][][2]int, n)
	for i, tg := range active {
		ends[i] = append(ends[i], [2]int{tg, tg})
		if i > 0 && active[i-1] == tg-1 {
			ends[i-1] = append(ends[i-1], [2]int{tg - 1, tg})
		}
	}

	var out []TargetTract
	for j := range starts {
		for k := j; k < n; k++ {
			for _, s := range starts[j] {
				for _, e := range ends[k] {
					tt := TargetTract{
						MinDeact: s[0],
						MinCut:   s[1],
						MaxCut:   e[0],
						MaxDeact: e[1],
					}
					if tt.MinCut > tt.MaxCut {
						continue
					}
					out = append(out, tt)
				}
			}
		}
	}
	slices.SortFunc(out, compareTracts)
	return out
}

// Trim mask values for a target and a trim direction.
const (
	TrimNone  = 0 // the target cannot be cut
	TrimShort = 1 // only a short trim is possible
	TrimAny   = 2 // both short and long trims are possible
)

// TrimMasks returns, for each target of an n target barcode,
// the allowed trims at the left and right sides of its cut
// under the tuple:
// deactivated targets cannot be cut,
// and a long trim requires an active neighbor at that side.
func (tp Tuple) TrimMasks(n int) (left, right []int) {
	deact := make([]bool, n)
	for _, t := range tp {
		for tg := t.MinDeact; tg <= t.MaxDeact; tg++ {
			deact[tg] = true
		}
	}

	left = make([]int, n)
	right = make([]int, n)
	for tg := 0; tg < n; tg++ {
		if deact[tg] {
			continue
		}
		left[tg] = TrimAny
		if tg == 0 || deact[tg-1] {
			left[tg] = TrimShort
		}
		right[tg] = TrimAny
		if tg == n-1 || deact[tg+1] {
			right[tg] = TrimShort
		}
	}
	return left, right
}

// A Singleton is a concrete indel:
// a target tract together with the absolute start position
// of its deletion,
// the deletion length,
// and the length of the inserted sequence.
type Singleton struct {
	TargetTract

	Start     int
	DelLen    int
	InsertLen int
}

// Tract returns the target tract realized by the singleton.
func (sg Singleton) Tract() TargetTract {
	return sg.TargetTract
}

// LeftTrim returns the length of the left trim
// under the given barcode.
func (sg Singleton) LeftTrim(m barcode.Meta) int {
	return m.CutSites[sg.MinCut] - sg.Start
}

// RightTrim returns the length of the right trim
// under the given barcode.
func (sg Singleton) RightTrim(m barcode.Meta) int {
	return sg.Start + sg.DelLen - m.CutSites[sg.MaxCut]
}

func (sg Singleton) String() string {
	return fmt.Sprintf("%s@%d-%d+%d", sg.TargetTract, sg.Start, sg.DelLen, sg.InsertLen)
}

// An Allele is the observed state of a barcode:
// an ordered collection of singletons.
type Allele []Singleton

// Tuple returns the target tract tuple realized by the allele.
func (a Allele) Tuple() Tuple {
	tp := make(Tuple, 0, len(a))
	for _, sg := range a {
		tp = append(tp, sg.Tract())
	}
	slices.SortFunc(tp, compareTracts)
	return tp
}

// Sort sorts the singletons of the allele
// by their deactivated ranges.
func (a Allele) Sort() {
	slices.SortFunc(a, func(x, y Singleton) int {
		return compareTracts(x.TargetTract, y.TargetTract)
	})
}

// Validate returns an error if the allele is not a valid
// observation under the given barcode.
func (a Allele) Validate(m barcode.Meta) error {
	n := m.Targets()
	if !a.Tuple().IsValid(n) {
		return fmt.Errorf("indel: allele %v: invalid tract tuple", a)
	}
	for _, sg := range a {
		if sg.Start < 0 || sg.Start+sg.DelLen > m.Len {
			return fmt.Errorf("indel: singleton %v: deletion out of the barcode", sg)
		}
		if sg.InsertLen < 0 {
			return fmt.Errorf("indel: singleton %v: negative insertion", sg)
		}
		lt := sg.LeftTrim(m)
		if lt < 0 || lt > m.LeftMaxTrim[sg.MinCut] {
			return fmt.Errorf("indel: singleton %v: left trim %d out of range", sg, lt)
		}
		if sg.IsLeftLong() != (lt >= m.LeftLongMin[sg.MinCut]) {
			return fmt.Errorf("indel: singleton %v: left trim %d does not match its long status", sg, lt)
		}
		rt := sg.RightTrim(m)
		if rt < 0 || rt > m.RightMaxTrim[sg.MaxCut] {
			return fmt.Errorf("indel: singleton %v: right trim %d out of range", sg, rt)
		}
		if sg.IsRightLong() != (rt >= m.RightLongMin[sg.MaxCut]) {
			return fmt.Errorf("indel: singleton %v: right trim %d does not match its long status", sg, rt)
		}
	}
	return nil
}
