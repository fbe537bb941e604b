package tree

// Walk visits nodes depth-first in sibling order, passing the chain of
// ancestors from the root. Returning false from fn stops the walk.
func Walk(root *Node, fn func(n *Node, ancestors []*Node) bool) {
	walk(root, nil, fn)
}

func walk(n *Node, ancestors []*Node, fn func(*Node, []*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n, ancestors) {
		return false
	}
	path := append(ancestors[:len(ancestors):len(ancestors)], n)
	for _, c := range n.Children {
		if !walk(c, path, fn) {
			return false
		}
	}
	return true
}

// FindFirst returns the first node in depth-first order that satisfies pred.
func FindFirst(root *Node, pred func(*Node) bool) *Node {
	var found *Node
	Walk(root, func(n *Node, _ []*Node) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Leaf is a KPI leaf with the names of the groups above it. Macro and
// Category are empty for two-level trees.
type Leaf struct {
	Pillar   string
	Macro    string
	Category string
	ID       string
}

// Flatten collects KPI leaves in order.
func Flatten(root *Node) []Leaf {
	var leaves []Leaf
	Walk(root, func(n *Node, ancestors []*Node) bool {
		if n.Type != TypeKPI {
			return true
		}
		l := Leaf{ID: n.ID}
		for _, a := range ancestors {
			switch a.Type {
			case TypePillar:
				l.Pillar = a.Name
			case TypeMacro:
				l.Macro = a.Name
			case TypeCategory:
				l.Category = a.Name
			}
		}
		leaves = append(leaves, l)
		return true
	})
	return leaves
}

// Count returns the number of nodes of each type.
func Count(root *Node) map[string]int {
	counts := make(map[string]int)
	Walk(root, func(n *Node, _ []*Node) bool {
		counts[n.Type]++
		return true
	})
	return counts
}
