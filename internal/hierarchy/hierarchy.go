// Package hierarchy builds a forest of labels from email dump filenames.
//
// A dump named "LLM_RAG_evaluation_20241222.json" produces the path
// LLM -> RAG -> evaluation, and every item in the dump is recorded on all
// three nodes. Parents always hold a superset of their children's items.
package hierarchy

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrCycle is returned when walking parent links revisits a label.
var ErrCycle = errors.New("hierarchy: parent cycle")

// DefaultSingleLabels are flat labels that are never split on "_".
var DefaultSingleLabels = []string{"good_material", "daily_news"}

// Node is a single label in the hierarchy.
type Node struct {
	name     string
	parent   string
	children []string
	items    map[string]struct{}
}

func newNode(name, parent string) *Node {
	return &Node{
		name:   name,
		parent: parent,
		items:  make(map[string]struct{}),
	}
}

// Name returns the label name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent label, or "" for a root.
func (n *Node) Parent() string { return n.parent }

// Children returns a copy of the child labels in registration order.
func (n *Node) Children() []string { return slices.Clone(n.children) }

// HasItem reports whether id is associated with this label.
func (n *Node) HasItem(id string) bool {
	_, ok := n.items[id]
	return ok
}

// ItemCount returns the number of items associated with this label.
func (n *Node) ItemCount() int { return len(n.items) }

// Items returns the item IDs in sorted order.
func (n *Node) Items() []string {
	out := make([]string, 0, len(n.items))
	for id := range n.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (n *Node) addItems(ids []string) {
	for _, id := range ids {
		n.items[id] = struct{}{}
	}
}

func (n *Node) addChild(name string) {
	if !slices.Contains(n.children, name) {
		n.children = append(n.children, name)
	}
}

// Hierarchy owns every label node. It is mutated only through
// AddLabelFromFilename and is safe for concurrent reads once built.
type Hierarchy struct {
	nodes   map[string]*Node
	order   []string
	roots   []string
	singles map[string]struct{}
}

// New returns an empty Hierarchy treating singles as flat labels.
func New(singles ...string) *Hierarchy {
	h := &Hierarchy{
		nodes:   make(map[string]*Node),
		singles: make(map[string]struct{}, len(singles)),
	}
	for _, s := range singles {
		h.singles[s] = struct{}{}
	}
	return h
}

// AddLabelFromFilename registers the labels encoded in filename and
// associates itemIDs with each of them.
//
// If the first two label parts form a single label, only that flat label and
// its ancestors are touched. A single label has no ancestors unless it was
// first registered as a path segment. Otherwise each part becomes one level
// below the previous one. A label that already exists keeps the parent it was
// first registered with.
// Items are added to every label on the path and to every real ancestor of
// those labels.
func (h *Hierarchy) AddLabelFromFilename(filename string, itemIDs []string) error {
	parts, err := ExtractLabelParts(filename)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	if combined := combinedLabel(parts); h.IsSingle(combined) {
		h.ensure(combined, "")
		return h.propagate(combined, itemIDs)
	}

	path := make([]string, 0, len(parts))
	for _, part := range parts {
		name := cleanLabel(part)
		if name == "" {
			return fmt.Errorf("%w in %q", ErrEmptySegment, filename)
		}
		path = append(path, name)
	}

	parent := ""
	for _, name := range path {
		h.ensure(name, parent)
		parent = name
	}
	for _, name := range path {
		if err := h.propagate(name, itemIDs); err != nil {
			return err
		}
	}
	return nil
}

// ensure returns the node for name, creating and linking it if needed.
func (h *Hierarchy) ensure(name, parent string) *Node {
	if n, ok := h.nodes[name]; ok {
		return n
	}
	n := newNode(name, parent)
	h.nodes[name] = n
	h.order = append(h.order, name)
	if p, ok := h.nodes[parent]; ok && parent != "" {
		p.addChild(name)
	} else if !slices.Contains(h.roots, name) {
		h.roots = append(h.roots, name)
	}
	return n
}

// propagate adds ids to name and all of its ancestors.
func (h *Hierarchy) propagate(name string, ids []string) error {
	seen := make(map[string]struct{})
	for cur := name; cur != ""; {
		if _, ok := seen[cur]; ok {
			return fmt.Errorf("%w at %q", ErrCycle, cur)
		}
		seen[cur] = struct{}{}
		n, ok := h.nodes[cur]
		if !ok {
			return nil
		}
		n.addItems(ids)
		cur = n.parent
	}
	return nil
}

// PathToRoot returns the labels from the root down to label. An unknown
// label yields an empty path. A parent cycle yields ErrCycle.
func (h *Hierarchy) PathToRoot(label string) ([]string, error) {
	n, ok := h.nodes[label]
	if !ok {
		return []string{}, nil
	}
	path := []string{label}
	seen := map[string]struct{}{label: {}}
	for n.parent != "" {
		if _, dup := seen[n.parent]; dup {
			slices.Reverse(path)
			return nil, fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(path, " -> "), n.parent)
		}
		seen[n.parent] = struct{}{}
		path = append(path, n.parent)
		if n = h.nodes[n.parent]; n == nil {
			break
		}
	}
	slices.Reverse(path)
	return path, nil
}

// AllPathsForItem returns every distinct root-to-label path for the labels
// holding itemID, including the paths to each of their ancestors. Labels are
// visited in creation order; for each one its own path comes first, followed
// by its ancestors' paths from nearest to root.
func (h *Hierarchy) AllPathsForItem(itemID string) ([][]string, error) {
	var paths [][]string
	seen := make(map[string]struct{})
	for _, label := range h.order {
		if !h.nodes[label].HasItem(itemID) {
			continue
		}
		path, err := h.PathToRoot(label)
		if err != nil {
			return nil, err
		}
		for i := len(path); i > 0; i-- {
			key := strings.Join(path[:i], "\x00")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			paths = append(paths, slices.Clone(path[:i]))
		}
	}
	return paths, nil
}

// Node returns the node for name.
func (h *Hierarchy) Node(name string) (*Node, bool) {
	n, ok := h.nodes[name]
	return n, ok
}

// Labels returns all label names in creation order.
func (h *Hierarchy) Labels() []string { return slices.Clone(h.order) }

// Roots returns the root labels in registration order.
func (h *Hierarchy) Roots() []string { return slices.Clone(h.roots) }

// Len returns the number of labels.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// IsSingle reports whether name is a flat single label.
func (h *Hierarchy) IsSingle(name string) bool {
	_, ok := h.singles[name]
	return ok
}

// SingleLabels returns the configured single labels, sorted.
func (h *Hierarchy) SingleLabels() []string {
	out := make([]string, 0, len(h.singles))
	for s := range h.singles {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ItemSets returns label -> sorted item IDs.
func (h *Hierarchy) ItemSets() map[string][]string {
	out := make(map[string][]string, len(h.nodes))
	for name, n := range h.nodes {
		out[name] = n.Items()
	}
	return out
}
