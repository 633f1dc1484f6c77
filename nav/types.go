package nav

import (
	"github.com/google/uuid"
)

// Severity ranks a resolution issue.
type Severity string

const (
	// SeverityError marks issues that fail strict builds.
	SeverityError Severity = "error"
	// SeverityWarning marks issues that are reported without failing the build.
	SeverityWarning Severity = "warning"
)

// Node is a single entry in the resolved navigation tree. Document nodes
// carry the corpus route they resolved to; external nodes carry only the
// target URL; section nodes group children and have no URL of their own.
type Node struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	Route    string    `json:"route,omitempty"`
	URL      string    `json:"url,omitempty"`
	External bool      `json:"external,omitempty"`
	Position int       `json:"position"`
	Depth    int       `json:"depth"`
	Children []*Node   `json:"children,omitempty"`
}

// IsDocument reports whether the node links to a corpus document.
func (n *Node) IsDocument() bool {
	return n != nil && !n.External && n.URL != ""
}

// IsSection reports whether the node only groups children.
func (n *Node) IsSection() bool {
	return n != nil && !n.External && n.URL == ""
}

// Tree is the navigation hierarchy in definition order.
type Tree struct {
	Roots []*Node `json:"roots"`
}

// IsEmpty reports whether the tree has no entries.
func (t *Tree) IsEmpty() bool {
	return t == nil || len(t.Roots) == 0
}

// Walk visits every node depth-first in definition order. The visitor
// returns false to stop the walk.
func (t *Tree) Walk(fn func(*Node) bool) {
	if t == nil {
		return
	}
	walkNodes(t.Roots, fn)
}

func walkNodes(nodes []*Node, fn func(*Node) bool) bool {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if !fn(node) {
			return false
		}
		if !walkNodes(node.Children, fn) {
			return false
		}
	}
	return true
}

// Flatten returns the document nodes in reading order. Section groups and
// external links are skipped.
func (t *Tree) Flatten() []*Node {
	var out []*Node
	t.Walk(func(node *Node) bool {
		if node.IsDocument() {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Find returns the first document node for the route, nil when absent.
func (t *Tree) Find(route string) *Node {
	var found *Node
	t.Walk(func(node *Node) bool {
		if node.IsDocument() && node.Route == route {
			found = node
			return false
		}
		return true
	})
	return found
}

// PrevNext returns the documents before and after the route in reading
// order. Either side is nil at the edges or when the route is not in the
// tree.
func (t *Tree) PrevNext(route string) (*Node, *Node) {
	flat := t.Flatten()
	for i, node := range flat {
		if node.Route != route {
			continue
		}
		var prev, next *Node
		if i > 0 {
			prev = flat[i-1]
		}
		if i+1 < len(flat) {
			next = flat[i+1]
		}
		return prev, next
	}
	return nil, nil
}

// Breadcrumbs returns the ancestor chain ending at the route's node.
// Section groups on the path are included; nil when the route is not in
// the tree.
func (t *Tree) Breadcrumbs(route string) []*Node {
	if t == nil {
		return nil
	}
	return breadcrumbPath(t.Roots, route, nil)
}

func breadcrumbPath(nodes []*Node, route string, trail []*Node) []*Node {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		next := append(append([]*Node{}, trail...), node)
		if node.IsDocument() && node.Route == route {
			return next
		}
		if found := breadcrumbPath(node.Children, route, next); found != nil {
			return found
		}
	}
	return nil
}

// ActiveTrail returns the IDs of the route's node and its ancestors, used
// to mark expanded branches when rendering.
func (t *Tree) ActiveTrail(route string) map[uuid.UUID]bool {
	active := map[uuid.UUID]bool{}
	for _, node := range t.Breadcrumbs(route) {
		active[node.ID] = true
	}
	return active
}

// Issue records a navigation entry that did not resolve cleanly.
type Issue struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path,omitempty"`
	Reason   string   `json:"reason"`
}

// Resolved pairs the built tree with the problems found while building it.
type Resolved struct {
	Tree   *Tree   `json:"tree"`
	Issues []Issue `json:"issues,omitempty"`
}

// HasErrors reports whether any issue carries error severity.
func (r *Resolved) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
