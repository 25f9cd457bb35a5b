// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package lineage implements a phylogenetic likelihood engine
// for cell lineage trees
// read from CRISPR edited barcodes:
// the states of the process are target tract tuples,
// the transitions are cut and repair events,
// and the likelihood of the observed leaf alleles
// is computed with the Felsenstein pruning algorithm
// over a per node approximation of the state space.
package lineage

import (
	"fmt"

	"github.com/js-arias/gestalt/barcode"
	"github.com/js-arias/gestalt/indel"
	"github.com/js-arias/timetree"
)

// millionYears is used to scale tree ages
// into branch length units.
const millionYears = 1_000_000

// A Topology is a rooted tree
// with observed alleles at its leaves.
// Branch lengths are not part of the topology:
// they are model parameters
// indexed by the node at the end of each branch.
type Topology struct {
	nodes []*topoNode
	root  int
}

type topoNode struct {
	id       int
	parent   int
	children []int
	taxon    string
	obs      indel.Allele
	hasObs   bool
}

// NewTopology creates a new empty topology.
func NewTopology() *Topology {
	return &Topology{root: -1}
}

// AddNode adds a new node as a child of the indicated node
// and returns its identifier.
// Use -1 as the parent of the root node.
func (t *Topology) AddNode(parent int) (int, error) {
	if parent < 0 {
		if t.root >= 0 {
			return -1, fmt.Errorf("topology: root already defined")
		}
		n := &topoNode{id: len(t.nodes), parent: -1}
		t.nodes = append(t.nodes, n)
		t.root = n.id
		return n.id, nil
	}
	if parent >= len(t.nodes) {
		return -1, fmt.Errorf("topology: parent node %d not defined", parent)
	}
	n := &topoNode{id: len(t.nodes), parent: parent}
	t.nodes = append(t.nodes, n)
	t.nodes[parent].children = append(t.nodes[parent].children, n.id)
	return n.id, nil
}

// SetObserved sets the observed allele of a terminal node.
func (t *Topology) SetObserved(id int, taxon string, a indel.Allele) error {
	if id < 0 || id >= len(t.nodes) {
		return fmt.Errorf("topology: node %d not defined", id)
	}
	n := t.nodes[id]
	if len(n.children) > 0 {
		return fmt.Errorf("topology: node %d is not a terminal", id)
	}
	a.Sort()
	n.taxon = taxon
	n.obs = a
	n.hasObs = true
	return nil
}

// Len returns the number of nodes of the topology.
func (t *Topology) Len() int { return len(t.nodes) }

// Root returns the identifier of the root node.
func (t *Topology) Root() int { return t.root }

// Parent returns the parent of a node,
// or -1 for the root.
func (t *Topology) Parent(id int) int { return t.nodes[id].parent }

// Children returns the children of a node.
func (t *Topology) Children(id int) []int { return t.nodes[id].children }

// IsTerm returns true if the node is a terminal.
func (t *Topology) IsTerm(id int) bool { return len(t.nodes[id].children) == 0 }

// Taxon returns the taxon name of a terminal node.
func (t *Topology) Taxon(id int) string { return t.nodes[id].taxon }

// Observed returns the observed allele of a terminal node.
func (t *Topology) Observed(id int) indel.Allele { return t.nodes[id].obs }

// FromTimeTree creates a topology from a time tree
// and a collection of observed alleles
// indexed by taxon name.
// It returns the topology,
// the branch lengths implied by the node ages
// (in million years,
// indexed by the new node identifiers),
// and a mapping from the new identifiers
// to the time tree identifiers.
func FromTimeTree(t *timetree.Tree, obs map[string]indel.Allele) (*Topology, []float64, []int, error) {
	top := NewTopology()
	var lens []float64
	var src []int

	var copyNode func(id, parent int) error
	copyNode = func(id, parent int) error {
		nid, err := top.AddNode(parent)
		if err != nil {
			return err
		}
		brLen := 0.0
		if !t.IsRoot(id) {
			brLen = float64(t.Age(t.Parent(id))-t.Age(id)) / millionYears
		}
		lens = append(lens, brLen)
		src = append(src, id)

		if t.IsTerm(id) {
			tax := t.Taxon(id)
			a, ok := obs[tax]
			if !ok {
				return fmt.Errorf("taxon %q: allele not defined", tax)
			}
			return top.SetObserved(nid, tax, a)
		}
		for _, c := range t.Children(id) {
			if err := copyNode(c, nid); err != nil {
				return err
			}
		}
		return nil
	}
	if err := copyNode(t.Root(), -1); err != nil {
		return nil, nil, nil, fmt.Errorf("on tree %q: %v", t.Name(), err)
	}
	return top, lens, src, nil
}

// Param is a collection of parameters
// for the initialization of a tree.
type Param struct {
	// Barcode metadata
	Meta barcode.Meta

	// Maximum number of extra steps
	// beyond the ancestral state of a node
	// used when enumerating its possible states
	MaxExtraSteps int
}

// A Tree is a lineage tree prepared
// for likelihood calculations:
// every node is annotated with its ancestral state bound,
// its state set,
// and the transition skeleton of its incoming branch.
// A Tree is immutable after construction
// and can be shared between goroutines;
// every likelihood call allocates its own buffers.
type Tree struct {
	top   *Topology
	meta  barcode.Meta
	extra int

	nodes []*node
}

// A node is a node of a lineage tree.
type node struct {
	id  int
	anc indel.AncState

	// state set and its numbering
	states []indel.Tuple
	index  map[string]int

	// transition skeleton of the incoming branch
	// (nil at the root)
	skel *skeleton

	// observed state at terminals
	obs indel.Tuple
}

// New creates a new tree from a topology,
// running the ancestral state annotation,
// the state set enumeration,
// and the transition skeleton construction.
func New(top *Topology, p Param) (*Tree, error) {
	if err := p.Meta.Validate(); err != nil {
		return nil, err
	}
	if p.MaxExtraSteps < 0 {
		return nil, fmt.Errorf("lineage: invalid extra steps %d", p.MaxExtraSteps)
	}
	if top.Root() < 0 {
		return nil, fmt.Errorf("lineage: topology without a root")
	}

	nt := &Tree{
		top:   top,
		meta:  p.Meta,
		extra: p.MaxExtraSteps,
		nodes: make([]*node, top.Len()),
	}
	for _, tn := range top.nodes {
		n := &node{id: tn.id}
		if top.IsTerm(tn.id) {
			if !tn.hasObs {
				return nil, fmt.Errorf("lineage: terminal node %d without an observed allele", tn.id)
			}
			n.obs = tn.obs.Tuple()
			if err := weakValid(n.obs, p.Meta.Targets()); err != nil {
				return nil, fmt.Errorf("lineage: terminal node %d: %v", tn.id, err)
			}
		}
		nt.nodes[tn.id] = n
	}

	nt.annotate(nt.top.Root())
	nt.buildStateSums()
	if err := nt.buildSkeletons(nt.top.Root()); err != nil {
		return nil, err
	}
	return nt, nil
}

// weakValid checks the structural validity
// of an observed tuple:
// ordered indices inside the barcode
// and disjoint tracts.
// Tracts that no event can produce are accepted:
// they make the data unreachable
// and the likelihood zero.
func weakValid(tp indel.Tuple, n int) error {
	prev := -1
	for _, tt := range tp {
		if tt.MinDeact > tt.MinCut || tt.MinCut > tt.MaxCut || tt.MaxCut > tt.MaxDeact {
			return fmt.Errorf("tract %v: unordered targets", tt)
		}
		if tt.MinDeact < 0 || tt.MaxDeact >= n {
			return fmt.Errorf("tract %v: outside the barcode", tt)
		}
		if tt.MinDeact <= prev {
			return fmt.Errorf("tract %v: overlapping tracts", tt)
		}
		prev = tt.MaxDeact
	}
	return nil
}

// Meta returns the barcode metadata of the tree.
func (t *Tree) Meta() barcode.Meta { return t.meta }

// Len returns the number of nodes of the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the identifier of the root node.
func (t *Tree) Root() int { return t.top.Root() }

// States returns the number of states
// enumerated for a node.
func (t *Tree) States(id int) int { return len(t.nodes[id].states) }
