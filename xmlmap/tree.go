package xmlmap

import (
	"fmt"

	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/xmlns"
)

type rangeFieldLink struct {
	xpath string
	label string
}

// Tree is the XML-map tree of §4.8: linked elements/attributes built from
// XPath-subset strings, sharing intermediate path nodes, plus the set of
// range references accumulated across StartRange/CommitRange calls.
//
// Grounded on original_source/src/liborcus/xml_map_tree.hpp/.cpp.
type Tree struct {
	ctx       *xmlns.Context
	defaultNS xmlns.ID
	root      *Element

	rangeRefs  map[CellPosition]*RangeReference
	rangeOrder []CellPosition

	curRangePos        CellPosition
	curRangeFieldLinks []rangeFieldLink
}

// New creates an empty map tree bound to repo's namespace repository.
func New(repo *xmlns.Repository) *Tree {
	return &Tree{ctx: repo.CreateContext()}
}

// SetNamespaceAlias registers a prefix for later use in xpath strings
// passed to this tree. isDefault=true makes uri the namespace applied to
// unprefixed segments.
func (t *Tree) SetNamespaceAlias(alias, uri string, isDefault bool) {
	id := t.ctx.Push(alias, uri)
	if isDefault {
		t.defaultNS = id
	}
}

// Namespace returns the id currently bound to alias, or xmlns.UnknownID.
func (t *Tree) Namespace(alias string) xmlns.ID {
	return t.ctx.Get(alias)
}

type linkedNode struct {
	elemStack  []*Element
	elem       *Element
	attr       *Attribute
	anchorElem *Element
}

// resolveRoot validates or creates the tree's shared root element from the
// xpath's first segment.
func (t *Tree) resolveRoot(tok xpathToken) error {
	if t.root != nil {
		if t.root.Name.NS != tok.ns || t.root.Name.Local != tok.name {
			return orcuserr.NewXPathError("path begins with inconsistent root level name")
		}
		return nil
	}
	if tok.attribute {
		return orcuserr.NewXPathError("root element cannot be an attribute")
	}
	t.root = &Element{Name: Name{NS: tok.ns, Local: tok.name}, ElemType: ElementUnlinked}
	return nil
}

func (t *Tree) getOrCreateChild(parent *Element, name Name) (*Element, error) {
	if parent.ElemType != ElementUnlinked {
		return nil, orcuserr.NewInvalidMapErrorWithContext(
			"you can't add a child element under an already linked element",
			fmt.Sprintf("parent=%q", parent.Name.Local))
	}
	if c := parent.getChild(name); c != nil {
		return c, nil
	}
	child := &Element{Name: name, ElemType: ElementUnlinked}
	parent.Children = append(parent.Children, child)
	return child, nil
}

func (t *Tree) getOrCreateLinkedChild(parent *Element, name Name, refType ReferenceType) (*Element, error) {
	if parent.ElemType != ElementUnlinked {
		return nil, orcuserr.NewInvalidMapErrorWithContext(
			"you can't add a child element under an already linked element",
			fmt.Sprintf("parent=%q", parent.Name.Local))
	}
	if existing := parent.getChild(name); existing != nil {
		if existing.RefType != ReferenceUnknown || existing.ElemType != ElementUnlinked {
			return nil, orcuserr.NewXPathError("this element is already linked; you can't link the same element twice")
		}
		existing.ElemType = ElementLinked
		existing.RefType = refType
		existing.Children = nil
		attachRefStore(&existing.CellRef, &existing.FieldRef, refType)
		return existing, nil
	}

	child := &Element{Name: name, ElemType: ElementLinked, RefType: refType}
	attachRefStore(&child.CellRef, &child.FieldRef, refType)
	parent.Children = append(parent.Children, child)
	return child, nil
}

func attachRefStore(cellRef **CellReference, fieldRef **FieldInRange, refType ReferenceType) {
	switch refType {
	case ReferenceCell:
		*cellRef = &CellReference{}
	case ReferenceRangeField:
		*fieldRef = &FieldInRange{}
	}
}

// getLinkedNode walks xpath, creating unlinked elements along the way and
// linking the terminal segment as refType. It mirrors
// xml_map_tree::get_linked_node.
func (t *Tree) getLinkedNode(xpath string, refType ReferenceType) (linkedNode, error) {
	var ret linkedNode
	if xpath == "" {
		return ret, orcuserr.NewXPathError("empty path")
	}

	p, err := newXPathParser(t.ctx, xpath, t.defaultNS)
	if err != nil {
		return ret, err
	}

	tok, ok, err := p.next()
	if err != nil {
		return ret, err
	}
	if !ok {
		return ret, orcuserr.NewXPathError("empty path")
	}
	if err := t.resolveRoot(tok); err != nil {
		return ret, err
	}

	ret.elemStack = append(ret.elemStack, t.root)
	curElement := t.root
	var rowGroupElem *Element
	if curElement.RowGroup != nil {
		rowGroupElem = curElement
	}

	tok, ok, err = p.next()
	if err != nil {
		return ret, err
	}
	if !ok {
		return ret, orcuserr.NewXPathError("path must have at least a root and a leaf segment")
	}

	for {
		tokNext, okNext, err := p.next()
		if err != nil {
			return ret, err
		}
		if !okNext {
			break
		}
		if tok.attribute {
			return ret, orcuserr.NewXPathError("attribute must always be at the end of the path")
		}

		curElement, err = t.getOrCreateChild(curElement, Name{NS: tok.ns, Local: tok.name})
		if err != nil {
			return ret, err
		}
		ret.elemStack = append(ret.elemStack, curElement)
		if curElement.RowGroup != nil {
			rowGroupElem = curElement
		}
		tok = tokNext
	}

	if tok.attribute {
		for _, a := range curElement.Attributes {
			if a.Name.NS == tok.ns && a.Name.Local == tok.name {
				return ret, orcuserr.NewXPathError("this attribute is already linked; you can't link the same attribute twice")
			}
		}
		attr := &Attribute{Name: Name{NS: tok.ns, Local: tok.name}, RefType: refType}
		attachRefStore(&attr.CellRef, &attr.FieldRef, refType)
		curElement.Attributes = append(curElement.Attributes, attr)
		ret.attr = attr
	} else {
		elem, err := t.getOrCreateLinkedChild(curElement, Name{NS: tok.ns, Local: tok.name}, refType)
		if err != nil {
			return ret, err
		}
		ret.elemStack = append(ret.elemStack, elem)
		ret.elem = elem
		if elem.RowGroup != nil {
			rowGroupElem = elem
		}
	}

	ret.anchorElem = rowGroupElem
	return ret, nil
}

// getElement walks xpath without linking the terminal, creating plain
// unlinked elements along the way, mirroring xml_map_tree::get_element. It
// is used for row-group paths, which name an existing path element rather
// than creating a new sink.
func (t *Tree) getElement(xpath string) (*Element, error) {
	if xpath == "" {
		return nil, orcuserr.NewXPathError("empty path")
	}
	p, err := newXPathParser(t.ctx, xpath, t.defaultNS)
	if err != nil {
		return nil, err
	}

	tok, ok, err := p.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, orcuserr.NewXPathError("empty path")
	}
	if err := t.resolveRoot(tok); err != nil {
		return nil, err
	}

	cur := t.root
	for {
		tok, ok, err = p.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if tok.attribute {
			return nil, orcuserr.NewXPathError("attribute was not expected")
		}
		cur, err = t.getOrCreateChild(cur, Name{NS: tok.ns, Local: tok.name})
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// SetCellLink links xpath's terminal segment as a single-cell sink at pos.
func (t *Tree) SetCellLink(xpath string, pos CellPosition) error {
	if xpath == "" {
		return nil
	}
	ln, err := t.getLinkedNode(xpath, ReferenceCell)
	if err != nil {
		return err
	}
	switch {
	case ln.elem != nil:
		ln.elem.CellRef.Pos = pos
	case ln.attr != nil:
		ln.attr.CellRef.Pos = pos
	}
	return nil
}

// StartRange begins accumulating field links for a range anchored at pos.
func (t *Tree) StartRange(pos CellPosition) {
	t.curRangeFieldLinks = nil
	t.curRangePos = pos
}

// AppendRangeFieldLink queues xpath (with an optional display label) as one
// column of the range started by StartRange; linking happens on CommitRange.
func (t *Tree) AppendRangeFieldLink(xpath, label string) {
	if xpath == "" {
		return
	}
	t.curRangeFieldLinks = append(t.curRangeFieldLinks, rangeFieldLink{xpath: xpath, label: label})
}

// SetRangeRowGroup marks the element at xpath as the row-group boundary for
// the range started by StartRange.
func (t *Tree) SetRangeRowGroup(xpath string) error {
	if xpath == "" {
		return nil
	}
	ref := t.getRangeReference(t.curRangePos)
	elem, err := t.getElement(xpath)
	if err != nil {
		return err
	}
	elem.RowGroup = ref
	return nil
}

// CommitRange links every field queued since StartRange, determines their
// deepest common ancestor element, and marks it as the range's parent.
func (t *Tree) CommitRange() error {
	if len(t.curRangeFieldLinks) == 0 {
		return nil
	}

	ref := t.getRangeReference(t.curRangePos)
	var rangeParent []*Element

	for _, link := range t.curRangeFieldLinks {
		if err := t.insertRangeFieldLink(ref, &rangeParent, link.xpath, link.label); err != nil {
			return err
		}
	}

	if len(rangeParent) == 0 {
		return orcuserr.NewXPathError("range has no common parent element")
	}
	rangeParent[len(rangeParent)-1].RangeParent = ref

	t.curRangePos = CellPosition{}
	t.curRangeFieldLinks = nil
	return nil
}

func (t *Tree) insertRangeFieldLink(ref *RangeReference, rangeParent *[]*Element, xpath, label string) error {
	ln, err := t.getLinkedNode(xpath, ReferenceRangeField)
	if err != nil {
		return err
	}
	if len(ln.elemStack) < 2 {
		return orcuserr.NewXPathError("path of a range field link must be at least 2 levels")
	}
	if ln.elem == nil && ln.attr == nil {
		return orcuserr.NewXPathError("unrecognized node type")
	}

	column := len(ref.FieldNodes)
	var local string
	switch {
	case ln.elem != nil:
		ln.elem.FieldRef.Ref = ref
		ln.elem.FieldRef.Column = column
		local = ln.elem.Name.Local
	case ln.attr != nil:
		ln.attr.FieldRef.Ref = ref
		ln.attr.FieldRef.Column = column
		local = ln.attr.Name.Local
	}
	ref.FieldNodes = append(ref.FieldNodes, fieldHeader{Local: local, Label: label})

	if ln.anchorElem != nil {
		ln.anchorElem.LinkedRangeFields = append(ln.anchorElem.LinkedRangeFields, column)
	}

	// Determine the deepest common ancestor across all field links in this
	// range: drop the linked element itself (it's a field, not the group
	// record) and the next-up element (it groups a single record entry).
	stack := ln.elemStack
	if ln.elem != nil {
		stack = stack[:len(stack)-1]
	}
	stack = stack[:len(stack)-1]

	if len(*rangeParent) == 0 {
		*rangeParent = append([]*Element(nil), stack...)
		return nil
	}

	if len(stack) == 0 || stack[0] != (*rangeParent)[0] {
		return orcuserr.NewXPathError("two field links in the same range reference start with different root elements")
	}

	for i := 1; i < len(stack) && i < len(*rangeParent); i++ {
		if stack[i] != (*rangeParent)[i] {
			*rangeParent = append([]*Element(nil), stack[:i]...)
			break
		}
	}

	if len(*rangeParent) == 0 {
		return orcuserr.NewXPathError("two field links in the same range reference must at least share the first level of their paths")
	}
	return nil
}

func (t *Tree) getRangeReference(pos CellPosition) *RangeReference {
	if t.rangeRefs == nil {
		t.rangeRefs = make(map[CellPosition]*RangeReference)
	}
	if ref, ok := t.rangeRefs[pos]; ok {
		return ref
	}
	ref := &RangeReference{Pos: pos}
	t.rangeRefs[pos] = ref
	t.rangeOrder = append(t.rangeOrder, pos)
	return ref
}

// RangeReferences returns every range reference present in the tree, in the
// order their anchor cell positions were first seen.
func (t *Tree) RangeReferences() []*RangeReference {
	refs := make([]*RangeReference, 0, len(t.rangeOrder))
	for _, pos := range t.rangeOrder {
		refs = append(refs, t.rangeRefs[pos])
	}
	return refs
}

// GetLink looks up the linkable at xpath without creating anything, for
// inspection. It returns nil if xpath does not resolve to a linked node.
func (t *Tree) GetLink(xpath string) *Linkable {
	if t.root == nil || xpath == "" {
		return nil
	}
	p, err := newXPathParser(t.ctx, xpath, t.defaultNS)
	if err != nil {
		return nil
	}

	tok, ok, err := p.next()
	if err != nil || !ok {
		return nil
	}
	if t.root.Name.NS != tok.ns || t.root.Name.Local != tok.name {
		return nil
	}

	curElem := t.root
	var curAttr *Attribute

	for {
		tok, ok, err = p.next()
		if err != nil || !ok {
			break
		}
		if curAttr != nil {
			return nil
		}
		if tok.attribute {
			var found *Attribute
			for _, a := range curElem.Attributes {
				if a.Name.NS == tok.ns && a.Name.Local == tok.name {
					found = a
					break
				}
			}
			if found == nil {
				return nil
			}
			curAttr = found
			continue
		}
		if curElem.ElemType != ElementUnlinked {
			return nil
		}
		child := curElem.getChild(Name{NS: tok.ns, Local: tok.name})
		if child == nil {
			return nil
		}
		curElem = child
	}

	if curAttr != nil {
		return &Linkable{NodeType: NodeAttribute, RefType: curAttr.RefType, Cell: cellPos(curAttr.CellRef)}
	}
	if curElem.ElemType == ElementUnlinked {
		return nil
	}
	return &Linkable{NodeType: NodeElement, RefType: curElem.RefType, Cell: cellPos(curElem.CellRef)}
}

func cellPos(ref *CellReference) CellPosition {
	if ref == nil {
		return CellPosition{}
	}
	return ref.Pos
}

// Root returns the tree's shared root element, or nil if no path has been
// linked yet.
func (t *Tree) Root() *Element {
	return t.root
}
