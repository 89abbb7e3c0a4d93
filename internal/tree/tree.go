// Package tree provides iterative traversal over screen element trees.
//
// Design files nest deeply, so no function here recurses: every walk keeps
// an explicit stack and visits nodes in pre-order with children in declared
// order.
package tree

import "github.com/inv-mschultz/edgy-sub001/internal/ir"

// Node is one visited element plus its position in the tree.
type Node struct {
	Element *ir.Element
	Parent  *ir.Element // nil for the root
	Index   int         // Position among the parent's children
	Depth   int         // 0 for the root
}

// PrevSibling returns the element declared immediately before this one
// under the same parent, or nil.
func (n Node) PrevSibling() *ir.Element {
	if n.Parent == nil || n.Index == 0 {
		return nil
	}
	return &n.Parent.Children[n.Index-1]
}

// WalkFunc is called for each node. Returning false skips the node's
// children; the walk continues with the next sibling.
type WalkFunc func(n Node) bool

// Walk visits root and its descendants in pre-order.
func Walk(root *ir.Element, fn WalkFunc) {
	if root == nil {
		return
	}
	stack := []Node{{Element: root}}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(n) {
			continue
		}
		children := n.Element.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, Node{
				Element: &children[i],
				Parent:  n.Element,
				Index:   i,
				Depth:   n.Depth + 1,
			})
		}
	}
}

// Any reports whether pred holds for root or any descendant, stopping at the
// first match.
func Any(root *ir.Element, pred func(*ir.Element) bool) bool {
	if root == nil {
		return false
	}
	stack := []*ir.Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pred(el) {
			return true
		}
		for i := len(el.Children) - 1; i >= 0; i-- {
			stack = append(stack, &el.Children[i])
		}
	}
	return false
}

// Descendants returns every element below root in pre-order, root excluded.
func Descendants(root *ir.Element) []*ir.Element {
	var out []*ir.Element
	Walk(root, func(n Node) bool {
		if n.Element != root {
			out = append(out, n.Element)
		}
		return true
	})
	return out
}
