// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package lineage

import "github.com/js-arias/gestalt/indel"

// annotate assigns an ancestral state bound to each node:
// terminals take the bound of their observed allele,
// and internal nodes take the intersection
// of the bounds of their children.
// The root is always an unedited barcode.
func (t *Tree) annotate(id int) {
	n := t.nodes[id]
	if t.top.IsTerm(id) {
		n.anc = indel.FromAllele(t.top.Observed(id))
		return
	}

	children := t.top.Children(id)
	for _, c := range children {
		t.annotate(c)
	}

	n.anc = t.nodes[children[0]].anc
	for _, c := range children[1:] {
		n.anc = indel.Intersect(n.anc, t.nodes[c].anc)
	}
	if id == t.top.Root() {
		n.anc = indel.AncState{}
	}
}

// buildStateSums enumerates the state set of each node.
// A terminal has a single state,
// its observation;
// any other node enumerates the tuples
// compatible with its ancestral state bound
// within the extra steps limit.
func (t *Tree) buildStateSums() {
	for _, n := range t.nodes {
		if t.top.IsTerm(n.id) {
			n.states = []indel.Tuple{n.obs}
		} else {
			n.states = n.anc.Tuples(t.extra)
		}
		n.index = make(map[string]int, len(n.states))
		for i, s := range n.states {
			n.index[s.Key()] = i
		}
	}
}
