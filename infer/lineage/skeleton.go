// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import (
	"fmt"

	"github.com/js-arias/gestalt/indel"
)

// maxDiffEvents caps the enumeration of intermediate states
// between a parent and a child state.
// Pairs with more new events than the cap
// keep only their endpoints
// and reach each other through the unlikely sink.
const maxDiffEvents = 12

// A transition is a single event transition
// to another state of the same skeleton.
type transition struct {
	end int
	evt indel.TargetTract
}

// A skeleton is the transition structure of a branch:
// a numbering of the finite states considered on the branch
// and, for each state,
// the single event transitions to other states
// of the skeleton.
// The state with index len(states) is the unlikely sink
// that absorbs the hazard to any state
// outside the skeleton.
type skeleton struct {
	states []indel.Tuple
	index  map[string]int
	rows   [][]transition
}

// buildSkeletons builds the skeleton of the incoming branch
// of every non root node.
func (t *Tree) buildSkeletons(id int) error {
	for _, c := range t.top.Children(id) {
		cn := t.nodes[c]
		cn.skel = newSkeleton(t.nodes[id], cn)
		if err := t.buildSkeletons(c); err != nil {
			return err
		}
	}
	if id == t.top.Root() {
		// the root must be able to start unedited
		if len(t.top.Children(id)) > 0 {
			rn := t.nodes[id]
			if _, ok := rn.index[indel.Tuple(nil).Key()]; !ok {
				return fmt.Errorf("lineage: root node %d without the unedited state", id)
			}
		}
	}
	return nil
}

// newSkeleton builds the skeleton of the branch
// from a parent to a child node.
// The skeleton states are the states of both nodes
// plus every intermediate state
// between a parent and a child state.
func newSkeleton(parent, child *node) *skeleton {
	sk := &skeleton{
		index: make(map[string]int),
	}
	add := func(tp indel.Tuple) {
		k := tp.Key()
		if _, ok := sk.index[k]; ok {
			return
		}
		sk.index[k] = len(sk.states)
		sk.states = append(sk.states, tp)
	}

	for _, s := range parent.states {
		add(s)
	}
	for _, s := range child.states {
		add(s)
	}

	// intermediate states:
	// a subset of the new events applied to the parent state
	for _, s := range parent.states {
		for _, c := range child.states {
			d, ok := indel.Diff(s, c)
			if !ok {
				continue
			}
			if len(d) < 2 || len(d) > maxDiffEvents {
				continue
			}
			for m := 1; m < (1<<len(d))-1; m++ {
				cur := s
				valid := true
				for b, e := range d {
					if m&(1<<b) == 0 {
						continue
					}
					nx, ok := cur.Apply(e)
					if !ok {
						valid = false
						break
					}
					cur = nx
				}
				if valid {
					add(cur)
				}
			}
		}
	}

	// single event transitions between skeleton states
	sk.rows = make([][]transition, len(sk.states))
	for i, s := range sk.states {
		for j, u := range sk.states {
			if i == j {
				continue
			}
			d, ok := indel.Diff(s, u)
			if !ok || len(d) != 1 {
				continue
			}
			sk.rows[i] = append(sk.rows[i], transition{end: j, evt: d[0]})
		}
	}
	return sk
}
