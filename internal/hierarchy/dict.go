package hierarchy

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// NodeDict is the serialized form of a Node.
type NodeDict struct {
	Name     string   `json:"name"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
	EmailIDs []string `json:"email_ids"`
}

// Dict is the serialized form of a Hierarchy:
//
//	{"nodes": {label: {name, parent, children, email_ids}}, "root_labels": [...]}
type Dict struct {
	Nodes      map[string]NodeDict `json:"nodes"`
	RootLabels []string            `json:"root_labels"`
}

// ToDict returns the serializable form. Item IDs are sorted.
func (h *Hierarchy) ToDict() Dict {
	d := Dict{
		Nodes:      make(map[string]NodeDict, len(h.nodes)),
		RootLabels: h.Roots(),
	}
	for name, n := range h.nodes {
		nd := NodeDict{
			Name:     n.name,
			Children: n.Children(),
			EmailIDs: n.Items(),
		}
		if nd.Children == nil {
			nd.Children = []string{}
		}
		if n.parent != "" {
			p := n.parent
			nd.Parent = &p
		}
		d.Nodes[name] = nd
	}
	if d.RootLabels == nil {
		d.RootLabels = []string{}
	}
	return d
}

// MarshalJSON encodes the hierarchy in its Dict form.
func (h *Hierarchy) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.ToDict())
}

// FromDict rebuilds a Hierarchy from its serialized form. Parent and child
// references must name existing nodes. Cycles are not rejected here;
// PathToRoot reports them when walked.
//
// Creation order is not part of the serialized form, so it is reconstructed
// depth-first from the roots; unreachable nodes follow in name order.
func FromDict(d Dict, singles ...string) (*Hierarchy, error) {
	h := New(singles...)
	for key, nd := range d.Nodes {
		name := nd.Name
		if name == "" {
			name = key
		}
		if name != key {
			return nil, fmt.Errorf("hierarchy: node key %q does not match name %q", key, name)
		}
		parent := ""
		if nd.Parent != nil {
			parent = *nd.Parent
		}
		n := newNode(name, parent)
		n.addItems(nd.EmailIDs)
		h.nodes[name] = n
	}
	for name, nd := range d.Nodes {
		n := h.nodes[name]
		if n.parent != "" {
			if _, ok := h.nodes[n.parent]; !ok {
				return nil, fmt.Errorf("hierarchy: node %q has unknown parent %q", name, n.parent)
			}
		}
		for _, c := range nd.Children {
			if _, ok := h.nodes[c]; !ok {
				return nil, fmt.Errorf("hierarchy: node %q has unknown child %q", name, c)
			}
			n.addChild(c)
		}
	}
	for _, r := range d.RootLabels {
		if _, ok := h.nodes[r]; !ok {
			return nil, fmt.Errorf("hierarchy: unknown root label %q", r)
		}
		if !slices.Contains(h.roots, r) {
			h.roots = append(h.roots, r)
		}
	}

	visited := make(map[string]bool, len(h.nodes))
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		h.order = append(h.order, name)
		for _, c := range h.nodes[name].children {
			visit(c)
		}
	}
	for _, r := range h.roots {
		visit(r)
	}
	var rest []string
	for name := range h.nodes {
		if !visited[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		visit(name)
	}
	return h, nil
}

// ParseJSON decodes a hierarchy written by MarshalJSON.
func ParseJSON(data []byte, singles ...string) (*Hierarchy, error) {
	var d Dict
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("hierarchy: decode: %w", err)
	}
	return FromDict(d, singles...)
}
