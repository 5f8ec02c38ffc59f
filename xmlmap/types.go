// Package xmlmap implements the L4c layer: a tree of linked XML elements
// and attributes ("linkables") built from XPath-subset strings, routing
// content to spreadsheet cell/range sinks and recording stream positions so
// a mapping engine can both read and rewrite an XML stream.
//
// Grounded on original_source/src/liborcus/xml_map_tree.hpp/.cpp, with the
// xpath-subset grammar of §4.8 (xpath_parser.cpp's token-at-a-time scan
// style, adapted since the parser itself was retrieved in a version that
// predates the default_ns parameter the header also documents).
package xmlmap

import "github.com/orcus-go/orcus/xmlns"

// NodeType distinguishes an element linkable from an attribute linkable.
type NodeType int

const (
	NodeUnknown NodeType = iota
	NodeElement
	NodeAttribute
)

// ElementType records whether an element is still a plain path node
// (Unlinked, may gain children) or has become a reference sink (Linked,
// may never gain children again).
type ElementType int

const (
	ElementUnknown ElementType = iota
	ElementLinked
	ElementUnlinked
)

// ReferenceType distinguishes a single-cell sink from a range-field column
// sink. ReferenceUnknown marks a plain, non-leaf path element.
type ReferenceType int

const (
	ReferenceUnknown ReferenceType = iota
	ReferenceCell
	ReferenceRangeField
)

// Name is a namespace-qualified element or attribute name.
type Name struct {
	NS    xmlns.ID
	Local string
}

// CellPosition is a single cell address, also used as the upper-left corner
// of a range.
type CellPosition struct {
	Sheet string
	Row   int
	Col   int
}

// CellReference holds the position written to by a single cell-ref
// linkable.
type CellReference struct {
	Pos CellPosition
}

// FieldInRange holds the range and column assigned to a range-field
// linkable.
type FieldInRange struct {
	Ref    *RangeReference
	Column int
}

// StreamPosition records the byte offsets of a linked element's opening and
// closing tags in the content stream, used by the export path to copy
// unlinked bytes verbatim and splice in current cell values.
type StreamPosition struct {
	OpenBegin  int64
	OpenEnd    int64
	CloseBegin int64
	CloseEnd   int64
}

// fieldHeader is the header label recorded for one column of a range, in
// insertion order; it is all read_stream needs from a field link (§4.9
// "Row-range headers").
type fieldHeader struct {
	Local string
	Label string
}

// RangeReference is the shared state of one range mapping: all field
// linkables mapped under one anchor cell position, in column order, plus
// the row cursor advanced as row-group elements close.
type RangeReference struct {
	Pos         CellPosition
	FieldNodes  []fieldHeader
	RowPosition int
}

// Attribute is an attribute linkable: either a cell-ref or range-field sink,
// never a plain path node (attributes have no children).
type Attribute struct {
	Name     Name
	NSAlias  string
	RefType  ReferenceType
	CellRef  *CellReference
	FieldRef *FieldInRange
}

// Element is an element linkable. Unlinked elements hold a Children vector
// and may gain more; Linked elements hold a reference sink and may never
// gain children (§3 "linking is irreversible once children exist").
type Element struct {
	Name    Name
	NSAlias string

	ElemType ElementType
	RefType  ReferenceType
	CellRef  *CellReference
	FieldRef *FieldInRange

	Children   []*Element
	Attributes []*Attribute

	StreamPos StreamPosition

	// RangeParent is non-nil on exactly the element that is the deepest
	// common ancestor of all field links of one range reference.
	RangeParent *RangeReference
	// RowGroup is non-nil on elements whose close event advances the
	// current row of this range.
	RowGroup         *RangeReference
	RowGroupPosition int
	// LinkedRangeFields lists the columns (of RowGroup) that are "below"
	// this element and must be filled down when its row-group closes.
	LinkedRangeFields []int
}

// UnlinkedAttributeAnchor reports whether this element is itself unlinked
// but anchors one or more linked attributes, the case the export path
// handles by emitting only the opening tag with substituted attributes.
func (e *Element) UnlinkedAttributeAnchor() bool {
	return e.ElemType == ElementUnlinked && e.RefType == ReferenceUnknown && len(e.Attributes) > 0
}

func (e *Element) getChild(name Name) *Element {
	if e.ElemType != ElementUnlinked {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Linkable is the read-only view of a linked node returned by GetLink.
type Linkable struct {
	NodeType NodeType
	RefType  ReferenceType
	Cell     CellPosition
}
