// Package jsonstruct implements the L4b layer: shape inference over a JSON
// document. It consumes JSON parser events (driven here by the standard
// library's streaming encoding/json.Decoder, the L1c "json_parser" external
// collaborator) and builds a structure node tree recording which shapes
// repeat, then walks that tree to emit auto-range descriptors for
// spreadsheet-style mapping.
//
// Grounded on original_source/include/orcus/json_structure_tree.hpp and
// src/liborcus/json_structure_tree.cpp, json_structure_mapper.hpp/.cpp.
package jsonstruct

// NodeType identifies the shape of a structure_node (structure_tree::node_type).
type NodeType uint8

const (
	NodeUnknown NodeType = iota
	NodeArray
	NodeObject
	NodeObjectKey
	NodeValue
)

func (t NodeType) String() string {
	switch t {
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	case NodeObjectKey:
		return "object_key"
	case NodeValue:
		return "value"
	default:
		return "unknown"
	}
}

// NodeProperties is the public view of a structure node returned by the
// walker's GetNode (structure_tree::node_properties).
type NodeProperties struct {
	Type   NodeType
	Repeat bool
}

// TableRange is one emitted auto-range: the sorted field paths reached
// inside a repeating region, plus the row-group paths that anchor the
// repetition (table_range_t).
type TableRange struct {
	Paths     []string
	RowGroups []string
}

// RangeHandler receives one TableRange per closed repeating region.
type RangeHandler func(TableRange)
