package orcusxml

import (
	"fmt"
	"io"
	"sort"

	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/sheet"
	"github.com/orcus-go/orcus/xmlmap"
)

// Write rewrites stream, the same content XML document previously passed to
// ReadStream, copying every unlinked byte verbatim and substituting current
// cell values at every linked position recorded by that call.
//
// Grounded on orcus_xml.cpp's orcus_xml::write, write_opening_element,
// write_range_reference_group and write_range_reference.
func (e *Engine) Write(stream []byte, out io.Writer) error {
	if e.ex == nil || len(stream) == 0 || len(e.linkPositions) == 0 {
		return nil
	}

	links := append([]*xmlmap.Element(nil), e.linkPositions...)
	sort.Slice(links, func(i, j int) bool {
		return links[i].StreamPos.OpenBegin < links[j].StreamPos.OpenBegin
	})

	var beginPos int64
	for _, elem := range links {
		switch {
		case elem.RefType == xmlmap.ReferenceCell:
			pos := elem.CellRef.Pos
			exSheet := e.ex.GetSheet(pos.Sheet)
			if exSheet == nil {
				continue
			}
			if err := writeVerbatim(out, stream, beginPos, elem.StreamPos.OpenBegin); err != nil {
				return err
			}
			if err := writeOpeningElement(out, elem, e.ex, false); err != nil {
				return err
			}
			if err := exSheet.WriteString(out, pos.Row, pos.Col); err != nil {
				return err
			}
			if err := writeVerbatim(out, stream, elem.StreamPos.CloseBegin, elem.StreamPos.CloseEnd); err != nil {
				return err
			}
			beginPos = elem.StreamPos.CloseEnd

		case elem.RangeParent != nil:
			ref := elem.RangeParent
			exSheet := e.ex.GetSheet(ref.Pos.Sheet)
			if exSheet == nil {
				continue
			}
			if err := writeVerbatim(out, stream, beginPos, elem.StreamPos.OpenBegin); err != nil {
				return err
			}
			if err := writeOpeningElement(out, elem, e.ex, false); err != nil {
				return err
			}
			if err := writeRangeReference(out, elem, e.ex); err != nil {
				return err
			}
			if err := writeVerbatim(out, stream, elem.StreamPos.CloseBegin, elem.StreamPos.CloseEnd); err != nil {
				return err
			}
			beginPos = elem.StreamPos.CloseEnd

		case elem.UnlinkedAttributeAnchor():
			selfClose := elem.StreamPos.OpenBegin == elem.StreamPos.CloseBegin
			if err := writeVerbatim(out, stream, beginPos, elem.StreamPos.OpenBegin); err != nil {
				return err
			}
			if err := writeOpeningElement(out, elem, e.ex, selfClose); err != nil {
				return err
			}
			beginPos = elem.StreamPos.OpenEnd

		default:
			return orcuserr.NewXMLStructureError("non-link element type encountered while writing")
		}
	}

	return writeVerbatim(out, stream, beginPos, int64(len(stream)))
}

func writeVerbatim(out io.Writer, stream []byte, from, to int64) error {
	if to <= from {
		return nil
	}
	_, err := out.Write(stream[from:to])
	return err
}

func qualifiedTag(alias, local string) string {
	if alias == "" {
		return local
	}
	return alias + ":" + local
}

// writeOpeningElement writes elem's opening tag, substituting the current
// value of any single-cell-linked attribute. Field-link attributes belong
// to a range and are instead handled per-row by writeRangeReference.
func writeOpeningElement(out io.Writer, elem *xmlmap.Element, factory sheet.ExportFactory, selfClose bool) error {
	if len(elem.Attributes) == 0 {
		_, err := fmt.Fprintf(out, "<%s>", qualifiedTag(elem.NSAlias, elem.Name.Local))
		return err
	}

	if _, err := fmt.Fprintf(out, "<%s", qualifiedTag(elem.NSAlias, elem.Name.Local)); err != nil {
		return err
	}
	for _, attr := range elem.Attributes {
		if attr.RefType != xmlmap.ReferenceCell {
			continue
		}
		pos := attr.CellRef.Pos
		exSheet := factory.GetSheet(pos.Sheet)
		if exSheet == nil {
			continue
		}
		if _, err := fmt.Fprintf(out, " %s=\"", qualifiedTag(attr.NSAlias, attr.Name.Local)); err != nil {
			return err
		}
		if err := exSheet.WriteString(out, pos.Row, pos.Col); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\""); err != nil {
			return err
		}
	}
	if selfClose {
		if _, err := io.WriteString(out, "/"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(out, ">")
	return err
}

// writeOpeningElementInRange writes one row's instance of a range-field
// element, substituting its field-link attributes at currentRow.
func writeOpeningElementInRange(out io.Writer, elem *xmlmap.Element, ref *xmlmap.RangeReference, exSheet sheet.ExportSheet, currentRow int, selfClose bool) error {
	if len(elem.Attributes) == 0 {
		format := "<%s>"
		if selfClose {
			format = "<%s/>"
		}
		_, err := fmt.Fprintf(out, format, qualifiedTag(elem.NSAlias, elem.Name.Local))
		return err
	}

	if _, err := fmt.Fprintf(out, "<%s", qualifiedTag(elem.NSAlias, elem.Name.Local)); err != nil {
		return err
	}
	for _, attr := range elem.Attributes {
		if attr.RefType != xmlmap.ReferenceRangeField {
			continue
		}
		if _, err := fmt.Fprintf(out, " %s=\"", qualifiedTag(attr.NSAlias, attr.Name.Local)); err != nil {
			return err
		}
		row := ref.Pos.Row + 1 + currentRow
		col := ref.Pos.Col + attr.FieldRef.Column
		if err := exSheet.WriteString(out, row, col); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\""); err != nil {
			return err
		}
	}
	if selfClose {
		if _, err := io.WriteString(out, "/"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(out, ">")
	return err
}

// rangeScope is one frame of the depth-first walk writeRangeReference
// performs over a range parent's children, for one output row.
type rangeScope struct {
	elem     *xmlmap.Element
	childIdx int
	opened   bool
}

// writeRangeReference writes every row of the range anchored at elem's
// single child (the range parent's direct child marks the start of one
// record), one full record structure per row_position increment.
//
// Grounded on write_range_reference/write_range_reference_group: for now
// (matching a TODO already present in the original), only the range
// parent's first child is treated as the repeating record root.
func writeRangeReference(out io.Writer, elemTop *xmlmap.Element, factory sheet.ExportFactory) error {
	if elemTop.ElemType != xmlmap.ElementUnlinked || len(elemTop.Children) == 0 {
		return nil
	}
	ref := elemTop.RangeParent
	root := elemTop.Children[0]

	exSheet := factory.GetSheet(ref.Pos.Sheet)
	if exSheet == nil {
		return nil
	}

	for currentRow := 0; currentRow < ref.RowPosition; currentRow++ {
		if err := writeRangeReferenceRow(out, root, ref, exSheet, currentRow); err != nil {
			return err
		}
	}
	return nil
}

func writeRangeReferenceRow(out io.Writer, root *xmlmap.Element, ref *xmlmap.RangeReference, exSheet sheet.ExportSheet, currentRow int) error {
	stack := []*rangeScope{{elem: root}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		selfClose := cur.childIdx >= len(cur.elem.Children) && cur.elem.RefType != xmlmap.ReferenceRangeField

		if !cur.opened {
			if err := writeOpeningElementInRange(out, cur.elem, ref, exSheet, currentRow, selfClose); err != nil {
				return err
			}
			cur.opened = true
		}

		if selfClose {
			stack = stack[:len(stack)-1]
			continue
		}

		descended := false
		for cur.childIdx < len(cur.elem.Children) {
			child := cur.elem.Children[cur.childIdx]
			cur.childIdx++
			if child.ElemType == xmlmap.ElementUnlinked {
				stack = append(stack, &rangeScope{elem: child})
				descended = true
				break
			}
			if child.RefType == xmlmap.ReferenceRangeField {
				if err := writeOpeningElementInRange(out, child, ref, exSheet, currentRow, false); err != nil {
					return err
				}
				row := ref.Pos.Row + 1 + currentRow
				col := ref.Pos.Col + child.FieldRef.Column
				if err := exSheet.WriteString(out, row, col); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "</%s>", qualifiedTag(child.NSAlias, child.Name.Local)); err != nil {
					return err
				}
			}
		}
		if descended {
			continue
		}

		if cur.elem.RefType == xmlmap.ReferenceRangeField {
			row := ref.Pos.Row + 1 + currentRow
			col := ref.Pos.Col + cur.elem.FieldRef.Column
			if err := exSheet.WriteString(out, row, col); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(out, "</%s>", qualifiedTag(cur.elem.NSAlias, cur.elem.Name.Local)); err != nil {
			return err
		}
		stack = stack[:len(stack)-1]
	}
	return nil
}
