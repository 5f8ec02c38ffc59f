package jsonstruct

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	orcuserr "github.com/orcus-go/orcus/errors"
)

// structureNode is one node of the structure tree (the anonymous
// structure_node struct in json_structure_tree.cpp).
type structureNode struct {
	nodeType NodeType
	repeat   bool
	children []*structureNode

	// childCount is the running maximum number of children this node had
	// in the source data tree, across every occurrence it was reused for.
	childCount int32

	name string // object-key value; unused otherwise.

	// arrayPositions records, for a value node that is an immediate child
	// of an array node, which array indices this value always occurred at.
	arrayPositions map[int32]bool
}

func newStructureNode(t NodeType) *structureNode {
	return &structureNode{nodeType: t}
}

// sameShape mirrors structure_node::operator==: same type, and for
// object-key nodes, same name too.
func (n *structureNode) sameShape(t NodeType, name string) bool {
	if n.nodeType != t {
		return false
	}
	if n.nodeType != NodeObjectKey {
		return true
	}
	return n.name == name
}

// parseScope is one frame of the parse-time stack: the structure node
// currently open, plus a running count of children pushed under it during
// this particular occurrence.
type parseScope struct {
	node       *structureNode
	childCount int32
}

// Tree is the structure tree built from one JSON document
// (json::structure_tree).
type Tree struct {
	root  *structureNode
	stack []*parseScope
}

// New returns an empty structure tree, ready for Parse.
func New() *Tree {
	return &Tree{}
}

// Parse drives the standard library's streaming JSON tokenizer over content
// and builds the structure tree from the resulting token stream. Parse may
// be called only once per Tree.
func (t *Tree) Parse(content []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(content)))
	dec.UseNumber()
	return t.consumeValue(dec)
}

func (t *Tree) consumeObject(dec *json.Decoder) error {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return orcuserr.NewJSONStructureError(fmt.Sprintf("json parse error: %v", err))
		}
		key, _ := keyTok.(string)
		t.objectKey(key)
		if err := t.consumeValue(dec); err != nil {
			return err
		}
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return orcuserr.NewJSONStructureError(fmt.Sprintf("json parse error: %v", err))
	}
	t.endObject()
	return nil
}

func (t *Tree) consumeArray(dec *json.Decoder) error {
	for dec.More() {
		if err := t.consumeValue(dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return orcuserr.NewJSONStructureError(fmt.Sprintf("json parse error: %v", err))
	}
	t.endArray()
	return nil
}

// consumeValue reads exactly one JSON value (object, array, or scalar).
func (t *Tree) consumeValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return orcuserr.NewJSONStructureError(fmt.Sprintf("json parse error: %v", err))
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			t.beginObject()
			return t.consumeObject(dec)
		case '[':
			t.beginArray()
			return t.consumeArray(dec)
		}
	case nil, bool, json.Number, string:
		t.pushValue()
	}
	return nil
}

func (t *Tree) beginArray()  { t.pushStackType(NodeArray, "") }
func (t *Tree) beginObject() { t.pushStackType(NodeObject, "") }
func (t *Tree) objectKey(key string) { t.pushStackType(NodeObjectKey, key) }
func (t *Tree) pushValue() {
	t.pushStackType(NodeValue, "")
	t.popStack()
}

func (t *Tree) endArray()  { t.popStack() }
func (t *Tree) endObject() { t.popStack() }

func (t *Tree) currentScope() *parseScope {
	return t.stack[len(t.stack)-1]
}

// isNodeRepeatable mirrors impl::is_node_repeatable: a node is repeatable
// only when the current (about to receive this child) node is an array and
// the new child is itself an array or object.
func (t *Tree) isNodeRepeatable(nt NodeType) bool {
	cur := t.currentScope().node
	if cur.nodeType != NodeArray {
		return false
	}
	return nt == NodeArray || nt == NodeObject
}

// pushStackType implements impl::push_stack, matching the dedup-or-append
// and array-position bookkeeping described in §4.7 points 2-3.
func (t *Tree) pushStackType(nt NodeType, name string) {
	if t.root == nil {
		t.root = newStructureNode(nt)
		t.root.name = name
		t.stack = append(t.stack, &parseScope{node: t.root})
		return
	}

	scope := t.currentScope()
	curNode := scope.node

	arrayPos := int32(-1)
	if curNode.nodeType == NodeArray {
		arrayPos = scope.childCount
		if nt != NodeValue {
			// This array already has a non-value child being pushed; any
			// value sibling that recorded this position stops being an
			// always-a-value position.
			for _, child := range curNode.children {
				if child.nodeType == NodeValue {
					if child.arrayPositions != nil {
						child.arrayPositions[arrayPos] = false
					}
					break
				}
			}
			arrayPos = -1
		}
	}
	scope.childCount++

	var matched *structureNode
	for _, child := range curNode.children {
		if child.sameShape(nt, name) {
			matched = child
			break
		}
	}

	var next *structureNode
	if matched == nil {
		next = newStructureNode(nt)
		next.name = name
		curNode.children = append(curNode.children, next)
	} else {
		matched.repeat = t.isNodeRepeatable(nt)
		next = matched
	}
	t.stack = append(t.stack, &parseScope{node: next})

	if arrayPos >= 0 {
		if next.arrayPositions == nil {
			next.arrayPositions = make(map[int32]bool)
		}
		minPos := int32(0)
		if len(next.arrayPositions) > 0 {
			minPos = minKey(next.arrayPositions)
		}
		if arrayPos >= minPos {
			if _, ok := next.arrayPositions[arrayPos]; !ok {
				next.arrayPositions[arrayPos] = true
			}
		}
	}
}

func minKey(m map[int32]bool) int32 {
	first := true
	var min int32
	for k := range m {
		if first || k < min {
			min = k
			first = false
		}
	}
	return min
}

// popStack implements impl::pop_stack: propagate the running max child
// count to the node, and perform the extra pop for object-key frames.
func (t *Tree) popStack() {
	scope := t.currentScope()
	if scope.childCount > scope.node.childCount {
		scope.node.childCount = scope.childCount
	}
	t.stack = t.stack[:len(t.stack)-1]

	if len(t.stack) > 0 && t.currentScope().node.nodeType == NodeObjectKey {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// NormalizeTree recursively sorts each node's children by (type, name), the
// only normalization orcus performs (§4.7: "normalize_tree() recursively
// sorts each node's children by (type, name)"). Idempotent.
func (t *Tree) NormalizeTree() {
	if t.root == nil {
		return
	}
	var descend func(*structureNode)
	descend = func(n *structureNode) {
		if len(n.children) == 0 {
			return
		}
		sort.Slice(n.children, func(i, j int) bool {
			a, b := n.children[i], n.children[j]
			if a.nodeType != b.nodeType {
				return a.nodeType < b.nodeType
			}
			return a.name < b.name
		})
		for _, c := range n.children {
			descend(c)
		}
	}
	descend(t.root)
}

// GetWalker returns a walker positioned with an empty stack; call Root
// before any other method.
func (t *Tree) GetWalker() *Walker {
	return &Walker{tree: t}
}

// DumpCompact writes a plain-text structure dump to w, one line per value
// node, in the form "$['items'][].value" — a human-inspection aid only,
// not load-bearing for mapping.
func (t *Tree) DumpCompact(w io.Writer) error {
	if t.root == nil {
		return nil
	}

	var descend func(path string, n *structureNode) error
	descend = func(path string, n *structureNode) error {
		if n.nodeType == NodeValue {
			aps := validArrayPositions(n.arrayPositions)
			if len(aps) == 0 {
				_, err := fmt.Fprintf(w, "%s.value\n", path)
				return err
			}
			for _, ap := range aps {
				if _, err := fmt.Fprintf(w, "%s.value[%d]\n", path, ap); err != nil {
					return err
				}
			}
			return nil
		}

		segment := ""
		switch n.nodeType {
		case NodeArray:
			segment = "[]"
		case NodeObjectKey:
			segment = "['" + n.name + "']"
		}
		for _, child := range n.children {
			if err := descend(path+segment, child); err != nil {
				return err
			}
		}
		return nil
	}
	return descend("$", t.root)
}

// ProcessRanges walks the tree's repeating regions and invokes rh once per
// closed range, via the structure mapper (§4.7 "Range extraction").
func (t *Tree) ProcessRanges(rh RangeHandler) error {
	m := newStructureMapper(rh, t.GetWalker())
	return m.run()
}
