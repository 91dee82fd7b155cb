package model

// MaxNavigationDepth caps navigation tree recursion. Nested navigation
// points beyond this depth are dropped rather than risking stack exhaustion
// on adversarial input.
const MaxNavigationDepth = 64

// NavigationNode is one entry in the navigation tree.
type NavigationNode struct {
	// ID is a generated or document-supplied identifier.
	ID string

	// Label is the non-empty display text.
	Label string

	// Href is the optional link target within the archive.
	Href string

	// PlayOrder is the optional NCX play order (0 when absent).
	PlayOrder int

	// Level is the 1-based depth of the node.
	Level int

	// Children are the nested entries in document order.
	Children []*NavigationNode
}

// NavigationTree is the parsed table of contents.
type NavigationTree struct {
	// Title is the optional navigation document heading.
	Title string

	// Entries are the top-level nodes in document order.
	Entries []*NavigationNode
}

// IsEmpty reports whether the tree has no entries.
func (t *NavigationTree) IsEmpty() bool {
	return t == nil || len(t.Entries) == 0
}

// Flatten returns all nodes in pre-order traversal.
func (t *NavigationTree) Flatten() []*NavigationNode {
	if t == nil {
		return nil
	}
	var out []*NavigationNode
	for _, n := range t.Entries {
		out = appendPreOrder(out, n)
	}
	return out
}

func appendPreOrder(out []*NavigationNode, n *NavigationNode) []*NavigationNode {
	out = append(out, n)
	for _, c := range n.Children {
		out = appendPreOrder(out, c)
	}
	return out
}

// Count returns the total number of nodes in the tree.
func (t *NavigationTree) Count() int {
	return len(t.Flatten())
}
