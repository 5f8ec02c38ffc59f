package jsonstruct

import (
	"fmt"
	"sort"
	"strings"

	orcuserr "github.com/orcus-go/orcus/errors"
)

// Walker traverses a Tree's structure nodes (structure_tree::walker). It
// holds its own position stack, independent of any other walker over the
// same tree.
type Walker struct {
	tree  *Tree
	stack []*structureNode
}

func (w *Walker) checkTree() error {
	if w.tree == nil || w.tree.root == nil {
		return orcuserr.NewJSONStructureError("empty tree")
	}
	return nil
}

func (w *Walker) checkStack() error {
	if err := w.checkTree(); err != nil {
		return err
	}
	if len(w.stack) == 0 {
		return orcuserr.NewJSONStructureError("walker stack is empty; call Root() to start the traversal")
	}
	return nil
}

// Root resets the walker's position to the tree's root node.
func (w *Walker) Root() error {
	if err := w.checkTree(); err != nil {
		return err
	}
	w.stack = []*structureNode{w.tree.root}
	return nil
}

// Descend moves down to the child node at childPos (0-based).
func (w *Walker) Descend(childPos int) error {
	if err := w.checkStack(); err != nil {
		return err
	}
	cur := w.stack[len(w.stack)-1]
	if childPos < 0 || childPos >= len(cur.children) {
		return orcuserr.NewJSONStructureError(fmt.Sprintf(
			"specified child position of %d exceeds the child count of %d", childPos, len(cur.children)))
	}
	w.stack = append(w.stack, cur.children[childPos])
	return nil
}

// Ascend moves up to the parent of the current node.
func (w *Walker) Ascend() error {
	if err := w.checkStack(); err != nil {
		return err
	}
	if len(w.stack) == 1 {
		return orcuserr.NewJSONStructureError("cannot ascend from the root node")
	}
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

// ChildCount returns the number of child nodes the current node has.
func (w *Walker) ChildCount() (int, error) {
	if err := w.checkStack(); err != nil {
		return 0, err
	}
	return len(w.stack[len(w.stack)-1].children), nil
}

// GetNode returns the properties of the current node.
func (w *Walker) GetNode() (NodeProperties, error) {
	if err := w.checkStack(); err != nil {
		return NodeProperties{}, err
	}
	n := w.stack[len(w.stack)-1]
	return NodeProperties{Type: n.nodeType, Repeat: n.repeat}, nil
}

// validArrayPositions returns the sorted positions marked valid (true).
func validArrayPositions(positions map[int32]bool) []int32 {
	var aps []int32
	for pos, valid := range positions {
		if valid {
			aps = append(aps, pos)
		}
	}
	sort.Slice(aps, func(i, j int) bool { return aps[i] < aps[j] })
	return aps
}

// BuildFieldPaths builds one or more field paths for the current value
// node. A value node that is an only child of an object yields exactly one
// path; a value node reached under varying array positions yields one path
// per recorded position (§4.7: "a trailing [index] appended for value
// nodes that occur at specific array positions").
func (w *Walker) BuildFieldPaths() ([]string, error) {
	if err := w.checkStack(); err != nil {
		return nil, err
	}
	top := w.stack[len(w.stack)-1]
	if top.nodeType != NodeValue {
		return nil, orcuserr.NewJSONStructureError("you can only build field paths to a value node")
	}

	var b strings.Builder
	b.WriteByte('$')
	for i := 1; i < len(w.stack); i++ {
		prev := w.stack[i-1]
		cur := w.stack[i]
		switch prev.nodeType {
		case NodeArray:
			if cur.nodeType != NodeValue {
				b.WriteString("[]")
			}
		case NodeObjectKey:
			b.WriteString("['")
			b.WriteString(prev.name)
			b.WriteString("']")
		}
	}

	if len(top.arrayPositions) > 0 {
		aps := validArrayPositions(top.arrayPositions)
		if len(aps) > 0 {
			base := b.String()
			paths := make([]string, 0, len(aps))
			for _, ap := range aps {
				paths = append(paths, fmt.Sprintf("%s[%d]", base, ap))
			}
			return paths, nil
		}
	}

	return []string{b.String()}, nil
}

// BuildRowGroupPath builds the path for the parent of the current
// repeating node, the anchor used to determine when to advance to the next
// mapped row.
func (w *Walker) BuildRowGroupPath() (string, error) {
	if err := w.checkStack(); err != nil {
		return "", err
	}
	if len(w.stack) < 2 {
		return "", orcuserr.NewJSONStructureError("current node is root; it doesn't have a parent")
	}
	top := w.stack[len(w.stack)-1]
	if !top.repeat {
		return "", orcuserr.NewJSONStructureError(
			"current node is not a repeating node; only the parent node of a repeating node can be a row group")
	}
	parent := w.stack[len(w.stack)-2]
	if parent.nodeType != NodeArray {
		return "", orcuserr.NewJSONStructureError("parent node of the current node is not of array type, but it should be")
	}

	var b strings.Builder
	b.WriteByte('$')
	for i := 0; i < len(w.stack)-2; i++ {
		n := w.stack[i]
		switch n.nodeType {
		case NodeArray:
			b.WriteString("[]")
		case NodeObjectKey:
			b.WriteString("['")
			b.WriteString(n.name)
			b.WriteString("']")
		}
	}
	return b.String(), nil
}
