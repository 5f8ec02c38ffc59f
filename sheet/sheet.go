// Package sheet defines the import/export-factory capability surface of §6:
// the narrow sink interface the mapping engines (orcusxml) write cells
// through and read export values from. The actual spreadsheet document
// model is an external collaborator per §1 ("treated as external
// collaborators... out of scope"); this package is only the contract.
//
// Grounded on original_source/include/orcus/spreadsheet/import_interface*.hpp
// and export_interface.hpp, trimmed to the subset §6 lists; call sites are
// orcus_xml.cpp's xml_data_sax_handler (set_auto/fill_down_cells/get_sheet)
// and write_opening_element/write_range_reference_group (write_string).
package sheet

import (
	"io"

	"github.com/orcus-go/orcus/charset"
)

// ID identifies a sheet by its append order, independent of its name.
type ID int

// FormulaGrammar enumerates the spreadsheet formula dialect a document uses
// by default, mirroring spreadsheet::formula_grammar_t trimmed to the
// values orcus_xml's global settings ever set.
type FormulaGrammar int

const (
	FormulaGrammarUnknown FormulaGrammar = iota
	FormulaGrammarOOXML
	FormulaGrammarODF
	FormulaGrammarXLS
)

// AutoFilter, DataTable, NamedExpression, ArrayFormula, Formula,
// SheetProperties and SheetView are optional-capability placeholders: a
// real spreadsheet sink may implement richer versions of these, but the
// mapping engines in this module never read or write through them (XML
// mapping never touches formulas, per §1 Non-goals). They exist purely so
// ImportSheet's capability-query methods have a concrete return type.
type (
	AutoFilter      struct{}
	DataTable       struct{}
	NamedExpression struct{}
	ArrayFormula    struct{}
	Formula         struct{}
	SheetProperties struct{}
	SheetView       struct{}
)

// ImportSheet is the per-sheet write surface used while reading a mapped
// XML stream into a spreadsheet document (§6).
type ImportSheet interface {
	// SetAuto writes value with type inference (the path orcusxml's
	// import handler always uses — see §4.9).
	SetAuto(row, col int, value string)
	SetValue(row, col int, value float64)
	SetBool(row, col int, value bool)
	SetString(row, col int, stringID int)
	// FillDownCells replicates the value already at (row, col) downward
	// through count additional rows, used to propagate an outer
	// row-group's key into nested rows on row-group close (§4.9).
	FillDownCells(row, col, count int)

	GetAutoFilter() (AutoFilter, bool)
	GetDataTable() (DataTable, bool)
	GetNamedExpression() (NamedExpression, bool)
	GetArrayFormula() (ArrayFormula, bool)
	GetFormula() (Formula, bool)
	GetSheetProperties() (SheetProperties, bool)
	GetSheetView() (SheetView, bool)
}

// GlobalSettings is the document-wide configuration surface (§6).
type GlobalSettings interface {
	SetOriginDate(year, month, day int)
	SetDefaultFormulaGrammar(g FormulaGrammar)
	SetCharacterSet(cs charset.T)
}

// Address is a single resolved cell position.
type Address struct {
	Sheet ID
	Row   int
	Col   int
}

// AddressRange is a resolved first:last cell pair.
type AddressRange struct {
	First Address
	Last  Address
}

// ReferenceResolver turns spreadsheet-notation strings ("A1", "A1:B3") into
// resolved addresses, per §6's get_reference_resolver.
type ReferenceResolver interface {
	ResolveAddress(expr string) (Address, error)
	ResolveRange(expr string) (AddressRange, error)
}

// SharedStrings is the append-only shared string table sink (§6
// get_shared_strings).
type SharedStrings interface {
	Append(s string) int
	AppendSegment(s string) int
	CommitSegments() int
	SetSegmentBold(bold bool)
	SetSegmentItalic(italic bool)
	SetSegmentFont(name string)
	SetSegmentFontSize(points float64)
}

// ImportFactory is the full sink capability set consumed by mapping
// engines (§6 "Import-factory callback surface").
type ImportFactory interface {
	AppendSheet(id ID, name string) ImportSheet
	GetSheetByName(name string) ImportSheet
	GetSheetByID(id ID) ImportSheet
	GetGlobalSettings() GlobalSettings
	GetReferenceResolver() ReferenceResolver
	GetSharedStrings() SharedStrings
}

// ExportSheet is the per-sheet read surface used while rewriting an XML
// stream from current cell values (§4.9 "Export path").
type ExportSheet interface {
	// WriteString writes the string representation of the value at
	// (row, col) to w, for splicing into the rewritten XML stream.
	WriteString(w io.Writer, row, col int) error
}

// ExportFactory looks up sheets by name for the export path.
type ExportFactory interface {
	GetSheet(name string) ExportSheet
}
