package xmlmap

import orcuserr "github.com/orcus-go/orcus/errors"

// Walker drives a push/pop traversal over a Tree's linked elements as a
// content stream is parsed. While the pushed name has no matching linked
// child, an "unlinked region" is entered and no further linked descent is
// attempted until it fully drains — §4.8's Walker, preserved exactly from
// xml_map_tree::walker.
type Walker struct {
	tree          *Tree
	stack         []*Element
	unlinkedStack []Name
}

// NewWalker creates a walker positioned above the tree's root.
func (t *Tree) NewWalker() *Walker {
	return &Walker{tree: t}
}

// Reset returns the walker to its initial, empty position.
func (w *Walker) Reset() {
	w.stack = nil
	w.unlinkedStack = nil
}

// PushElement advances the walker into a child element named name. It
// returns the matched linked Element, or nil if name falls in (or begins)
// an unlinked region.
func (w *Walker) PushElement(name Name) *Element {
	if len(w.unlinkedStack) > 0 {
		w.unlinkedStack = append(w.unlinkedStack, name)
		return nil
	}

	if len(w.stack) == 0 {
		root := w.tree.root
		if root == nil || root.Name != name {
			w.unlinkedStack = append(w.unlinkedStack, name)
			return nil
		}
		w.stack = append(w.stack, root)
		return root
	}

	top := w.stack[len(w.stack)-1]
	if top.ElemType == ElementUnlinked {
		if child := top.getChild(name); child != nil {
			w.stack = append(w.stack, child)
			return child
		}
	}

	w.unlinkedStack = append(w.unlinkedStack, name)
	return nil
}

// PopElement closes the most recently pushed element named name, returning
// the new current element (the parent), or nil at the root. name must match
// the corresponding PushElement call.
func (w *Walker) PopElement(name Name) (*Element, error) {
	if len(w.unlinkedStack) > 0 {
		top := w.unlinkedStack[len(w.unlinkedStack)-1]
		if top != name {
			return nil, orcuserr.NewXMLStructureError(
				"closing element has a different name than the opening element (unlinked stack)")
		}
		w.unlinkedStack = w.unlinkedStack[:len(w.unlinkedStack)-1]
		if len(w.unlinkedStack) > 0 {
			return nil, nil
		}
		if len(w.stack) == 0 {
			return nil, nil
		}
		return w.stack[len(w.stack)-1], nil
	}

	if len(w.stack) == 0 {
		return nil, orcuserr.NewXMLStructureError("element was popped while the stack was empty")
	}
	if w.stack[len(w.stack)-1].Name != name {
		return nil, orcuserr.NewXMLStructureError(
			"closing element has a different name than the opening element (linked stack)")
	}
	w.stack = w.stack[:len(w.stack)-1]
	if len(w.stack) == 0 {
		return nil, nil
	}
	return w.stack[len(w.stack)-1], nil
}
