// Package analytics derives aggregate reports from a link index snapshot:
// orphan notes, the tag hierarchy, and link graph statistics.
package analytics

import (
	"sort"
	"strings"

	"github.com/starford/raido/internal/linkindex"
)

// TagNode is one tag in the hierarchy with its direct children.
type TagNode struct {
	Name     string   `json:"name"`
	Count    int      `json:"count"`
	Nested   bool     `json:"nested"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
}

// GraphStats describes the resolved link graph. Nodes are notes with at
// least one resolved link in either direction; edges are resolved links.
type GraphStats struct {
	Nodes   int     `json:"nodes"`
	Edges   int     `json:"edges"`
	Density float64 `json:"density"`
}

// Report is the outcome of one analytics pass.
type Report struct {
	Notes   int        `json:"notes"`
	Orphans []string   `json:"orphans"`
	Tags    []TagNode  `json:"tags"`
	Graph   GraphStats `json:"graph"`
	Broken  int        `json:"broken_links"`
}

// Analyze computes the full report from an index snapshot.
func Analyze(ix *linkindex.Index) *Report {
	r := &Report{Notes: len(ix.Identities)}

	edges := 0
	linked := make(map[string]struct{})
	for _, id := range ix.Identities {
		resolvedOut := 0
		for _, link := range ix.Notes[id].Links {
			if link.Resolved != "" {
				resolvedOut++
				edges++
				linked[id] = struct{}{}
				linked[link.Resolved] = struct{}{}
			} else if !link.External {
				r.Broken++
			}
		}
		// An orphan has neither resolved inbound nor resolved outbound
		// links; unresolved outbound links do not count.
		if resolvedOut == 0 && len(ix.Inbound[id]) == 0 {
			r.Orphans = append(r.Orphans, id)
		}
	}

	r.Graph = GraphStats{Nodes: len(linked), Edges: edges}
	if r.Graph.Nodes >= 2 {
		n := float64(r.Graph.Nodes)
		r.Graph.Density = float64(edges) / (n * (n - 1))
	}

	r.Tags = tagHierarchy(ix)
	return r
}

// tagHierarchy aggregates tag occurrence counts across the vault and wires
// up the parent/child relation. A tag is a direct child of the prefix up to
// its last slash; intermediate tags that were never written are materialized
// with a zero count so deeper descendants always hang off their immediate
// parent, never a grandparent.
func tagHierarchy(ix *linkindex.Index) []TagNode {
	nodes := make(map[string]*TagNode)

	ensure := func(name string) *TagNode {
		n, ok := nodes[name]
		if !ok {
			n = &TagNode{Name: name, Nested: strings.Contains(name, "/")}
			if i := strings.LastIndex(name, "/"); i >= 0 {
				n.Parent = name[:i]
			}
			nodes[name] = n
		}
		return n
	}

	for _, id := range ix.Identities {
		for tag, count := range ix.Notes[id].TagCounts {
			ensure(tag).Count += count
		}
	}

	// Materialize missing intermediate parents, then attach children.
	for _, name := range sortedNames(nodes) {
		parent := nodes[name].Parent
		for parent != "" {
			node := ensure(parent)
			parent = node.Parent
		}
	}
	for _, name := range sortedNames(nodes) {
		if p := nodes[name].Parent; p != "" {
			nodes[p].Children = append(nodes[p].Children, name)
		}
	}

	out := make([]TagNode, 0, len(nodes))
	for _, name := range sortedNames(nodes) {
		out = append(out, *nodes[name])
	}
	return out
}

func sortedNames(nodes map[string]*TagNode) []string {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
