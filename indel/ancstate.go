// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package indel

import (
	"fmt"
	"slices"
	"strings"
)

// An IndelSet is a bound on the edits
// that an ancestral barcode may carry
// over a contiguous range of targets.
type IndelSet interface {
	// Range of targets that the set may deactivate.
	MinTarget() int
	MaxTarget() int

	indelSet()
}

// A Wildcard is an indel set that allows any combination
// of events inside its target range.
type Wildcard struct {
	From int
	To   int
}

// MinTarget implements the IndelSet interface.
func (w Wildcard) MinTarget() int { return w.From }

// MaxTarget implements the IndelSet interface.
func (w Wildcard) MaxTarget() int { return w.To }

func (w Wildcard) indelSet() {}

func (w Wildcard) String() string {
	return fmt.Sprintf("*%d-%d", w.From, w.To)
}

// A SingletonWC is an indel set made of a concrete singleton:
// an ancestor either carries the singleton,
// or any combination of events
// that can later be covered by the singleton.
type SingletonWC struct {
	Singleton
}

// MinTarget implements the IndelSet interface.
func (s SingletonWC) MinTarget() int { return s.MinDeact }

// MaxTarget implements the IndelSet interface.
func (s SingletonWC) MaxTarget() int { return s.MaxDeact }

func (s SingletonWC) indelSet() {}

// An AncState is the bound on the possible states
// of an ancestral barcode:
// an ordered list of indel sets
// with pairwise disjoint target ranges.
// An empty AncState is an unedited barcode.
type AncState []IndelSet

// FromAllele returns the ancestral state bound
// of an observed allele.
func FromAllele(a Allele) AncState {
	as := make(AncState, 0, len(a))
	for _, sg := range a {
		as = append(as, SingletonWC{sg})
	}
	slices.SortFunc(as, func(x, y IndelSet) int {
		return x.MinTarget() - y.MinTarget()
	})
	return as
}

func (as AncState) String() string {
	var b strings.Builder
	for i, s := range as {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%v", s)
	}
	return b.String()
}

// Singletons returns the singletons of the state
// in target order.
func (as AncState) Singletons() []Singleton {
	var sgs []Singleton
	for _, s := range as {
		if wc, ok := s.(SingletonWC); ok {
			sgs = append(sgs, wc.Singleton)
		}
	}
	return sgs
}

// MatchingSingletons returns the singletons of the state
// whose tract is realized exactly
// by one of the given events.
func (as AncState) MatchingSingletons(events []TargetTract) []Singleton {
	var sgs []Singleton
	for _, s := range as {
		wc, ok := s.(SingletonWC)
		if !ok {
			continue
		}
		for _, e := range events {
			if e == wc.Tract() {
				sgs = append(sgs, wc.Singleton)
				break
			}
		}
	}
	return sgs
}

// Intersect returns the intersection of two ancestral states:
// the bound of the ancestor of two nodes
// carrying each state.
// Indel sets present in only one of the states are dropped;
// overlapping sets on equal singletons keep the singleton;
// any other overlap becomes a wildcard
// over the union of the involved target ranges.
func Intersect(a, b AncState) AncState {
	var out AncState
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		x, y := a[i], b[j]
		if x.MaxTarget() < y.MinTarget() {
			i++
			continue
		}
		if y.MaxTarget() < x.MinTarget() {
			j++
			continue
		}

		if sx, ok := x.(SingletonWC); ok {
			if sy, ok := y.(SingletonWC); ok && sx.Singleton == sy.Singleton {
				out = append(out, sx)
				i++
				j++
				continue
			}
		}

		// merge into a wildcard,
		// extending over any following overlapping set
		from := min(x.MinTarget(), y.MinTarget())
		to := max(x.MaxTarget(), y.MaxTarget())
		i++
		j++
		for {
			if i < len(a) && a[i].MinTarget() <= to {
				to = max(to, a[i].MaxTarget())
				i++
				continue
			}
			if j < len(b) && b[j].MinTarget() <= to {
				to = max(to, b[j].MaxTarget())
				j++
				continue
			}
			break
		}
		out = append(out, Wildcard{From: from, To: to})
	}
	return out
}

// A localOption is a partial tuple allowed
// inside a single indel set,
// with the number of extra steps it implies.
type localOption struct {
	tts  []TargetTract
	cost int
}

func targetRange(from, to int) []int {
	if from > to {
		return nil
	}
	r := make([]int, 0, to-from+1)
	for tg := from; tg <= to; tg++ {
		r = append(r, tg)
	}
	return r
}

// tractCombos returns every combination
// of at most k pairwise disjoint tracts.
// The input must be sorted.
func tractCombos(tracts []TargetTract, k int) [][]TargetTract {
	var out [][]TargetTract
	var rec func(start int, cur []TargetTract)
	rec = func(start int, cur []TargetTract) {
		if len(cur) > 0 {
			out = append(out, slices.Clone(cur))
		}
		if len(cur) == k {
			return
		}
		for i := start; i < len(tracts); i++ {
			t := tracts[i]
			if len(cur) > 0 && t.MinDeact <= cur[len(cur)-1].MaxDeact {
				continue
			}
			rec(i+1, append(slices.Clone(cur), t))
		}
	}
	rec(0, nil)
	return out
}

func setOptions(s IndelSet, extra int) []localOption {
	switch v := s.(type) {
	case SingletonWC:
		opts := []localOption{
			{tts: nil, cost: 0},
			{tts: []TargetTract{v.Tract()}, cost: 0},
		}
		if extra > 0 {
			// events that can happen before the singleton
			// must keep its cut targets
			// and trim neighbors
			// active
			interior := targetRange(v.MinCut+1, v.MaxCut-1)
			if len(interior) > 0 {
				for _, c := range tractCombos(PossibleTracts(interior), extra) {
					opts = append(opts, localOption{tts: c, cost: len(c)})
				}
			}
		}
		return opts
	case Wildcard:
		opts := []localOption{
			{tts: nil, cost: 0},
		}
		if extra > 0 {
			for _, c := range tractCombos(PossibleTracts(targetRange(v.From, v.To)), extra) {
				opts = append(opts, localOption{tts: c, cost: len(c)})
			}
		}
		return opts
	}
	return nil
}

// Tuples enumerates every tract tuple compatible with the state
// using at most extra steps
// beyond the full realization of the state singletons.
// An event that realizes a state singleton is free;
// any other event counts as an extra step.
func (as AncState) Tuples(extra int) []Tuple {
	options := make([][]localOption, len(as))
	for i, s := range as {
		options[i] = setOptions(s, extra)
	}

	out := []Tuple{}
	var rec func(i, cost int, cur Tuple)
	rec = func(i, cost int, cur Tuple) {
		if i == len(as) {
			out = append(out, slices.Clone(cur))
			return
		}
		for _, op := range options[i] {
			if cost+op.cost > extra {
				continue
			}
			rec(i+1, cost+op.cost, append(slices.Clone(cur), op.tts...))
		}
	}
	rec(0, 0, nil)
	return out
}
