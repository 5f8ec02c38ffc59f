package orcusxml

import (
	"strings"

	"github.com/orcus-go/orcus/charset"
	"github.com/orcus-go/orcus/saxns"
	"github.com/orcus-go/orcus/xmlmap"
)

type scope struct {
	name      xmlmap.Name
	openBegin int64
	openEnd   int64
}

// ReadStream parses a content XML document, writing every linked value to
// the engine's import factory and recording the stream positions Write
// later needs. It may be called more than once; each call resets the row
// cursor of every range reference and replaces the previous run's recorded
// link positions.
func (e *Engine) ReadStream(stream []byte) error {
	if len(stream) == 0 {
		return nil
	}

	e.linkPositions = e.linkPositions[:0]

	for _, ref := range e.tree.RangeReferences() {
		ref.RowPosition = 1
		row, col := ref.Pos.Row, ref.Pos.Col
		var impSheet sheetWriter
		if e.im != nil {
			impSheet = e.im.GetSheetByName(ref.Pos.Sheet)
		}
		for _, fn := range ref.FieldNodes {
			if impSheet != nil {
				label := fn.Label
				if label == "" {
					label = fn.Local
				}
				if label != "" {
					impSheet.SetAuto(row, col, label)
				}
			}
			col++
		}
	}

	ctx := e.repo.CreateContext()
	h := &importHandler{engine: e, walker: e.tree.NewWalker()}
	p := saxns.New(stream, false, ctx, h)
	if err := p.Parse(); err != nil {
		return err
	}
	return h.err
}

// sheetWriter is the subset of sheet.ImportSheet the importer writes
// through, narrowed only so RangeReferences' header loop above can be typed
// without importing the sheet package twice for one field.
type sheetWriter interface {
	SetAuto(row, col int, value string)
}

type importHandler struct {
	saxns.NopHandler

	engine *Engine
	walker *xmlmap.Walker

	attrs  []saxns.Attribute
	scopes []scope

	currentElem  *xmlmap.Element
	currentChars string
	inRangeRef   bool
	incrementRow *xmlmap.RangeReference

	err error
}

func (h *importHandler) Attribute(a saxns.Attribute) error {
	h.attrs = append(h.attrs, a)
	return nil
}

func (h *importHandler) DeclarationAttribute(name, value string) error {
	if name != "encoding" || h.engine.im == nil {
		return nil
	}
	if gs := h.engine.im.GetGlobalSettings(); gs != nil {
		gs.SetCharacterSet(charset.Parse(value))
	}
	return nil
}

func (h *importHandler) findAttr(name xmlmap.Name) *saxns.Attribute {
	for i := range h.attrs {
		if h.attrs[i].NS == name.NS && h.attrs[i].Name == name.Local {
			return &h.attrs[i]
		}
	}
	return nil
}

func (h *importHandler) setSingleLinkCell(ref *xmlmap.CellReference, val string) {
	if ref == nil || h.engine.im == nil {
		return
	}
	if s := h.engine.im.GetSheetByName(ref.Pos.Sheet); s != nil {
		s.SetAuto(ref.Pos.Row, ref.Pos.Col, val)
	}
}

func (h *importHandler) setFieldLinkCell(field *xmlmap.FieldInRange, val string) {
	if field == nil || field.Ref == nil || h.engine.im == nil {
		return
	}
	pos := field.Ref.Pos
	if s := h.engine.im.GetSheetByName(pos.Sheet); s != nil {
		s.SetAuto(pos.Row+field.Ref.RowPosition, pos.Col+field.Column, val)
	}
}

func (h *importHandler) StartElement(e saxns.Element) error {
	defer func() { h.attrs = nil }()

	name := xmlmap.Name{NS: e.NS, Local: e.Name}
	h.scopes = append(h.scopes, scope{name: name, openBegin: e.BeginPos, openEnd: e.EndPos})
	h.currentChars = ""

	h.currentElem = h.walker.PushElement(name)
	if h.currentElem == nil {
		return nil
	}

	if h.currentElem.RowGroup != nil && h.incrementRow == h.currentElem.RowGroup {
		// The last closing element was a row-group boundary.
		h.currentElem.RowGroup.RowPosition++
		h.incrementRow = nil
	}

	for _, attr := range h.currentElem.Attributes {
		found := h.findAttr(attr.Name)
		if found == nil {
			continue
		}
		val := strings.TrimSpace(found.Value)
		switch attr.RefType {
		case xmlmap.ReferenceCell:
			h.setSingleLinkCell(attr.CellRef, val)
		case xmlmap.ReferenceRangeField:
			h.setFieldLinkCell(attr.FieldRef, val)
		}
		// Record the alias this attribute was actually written under in the
		// content stream, for Write to reproduce verbatim.
		attr.NSAlias = found.NSAlias
	}

	if h.currentElem.RangeParent != nil {
		h.inRangeRef = true
	}
	return nil
}

func (h *importHandler) EndElement(e saxns.Element) error {
	name := xmlmap.Name{NS: e.NS, Local: e.Name}
	cur := h.scopes[len(h.scopes)-1]
	h.scopes = h.scopes[:len(h.scopes)-1]

	if h.currentElem != nil {
		switch h.currentElem.RefType {
		case xmlmap.ReferenceCell:
			h.setSingleLinkCell(h.currentElem.CellRef, h.currentChars)
		case xmlmap.ReferenceRangeField:
			h.setFieldLinkCell(h.currentElem.FieldRef, h.currentChars)
		}

		if h.currentElem.RowGroup != nil {
			rowStart := h.currentElem.RowGroupPosition
			rowEnd := h.currentElem.RowGroup.RowPosition - 1
			if rowEnd > rowStart {
				// Close of a parent row-group: fill the nested rows' keys
				// down to cover the rows the child group produced.
				ref := h.currentElem.RowGroup
				if h.engine.im != nil {
					if s := h.engine.im.GetSheetByName(ref.Pos.Sheet); s != nil {
						rowStart += ref.Pos.Row + 1
						rowEnd += ref.Pos.Row + 1
						for _, col := range h.currentElem.LinkedRangeFields {
							col += ref.Pos.Col
							s.FillDownCells(rowStart, col, rowEnd-rowStart)
						}
					}
				}
			}
			h.currentElem.RowGroupPosition = h.currentElem.RowGroup.RowPosition
			h.incrementRow = h.currentElem.RowGroup
		}

		if h.currentElem.RefType == xmlmap.ReferenceCell ||
			h.currentElem.RangeParent != nil ||
			(!h.inRangeRef && h.currentElem.UnlinkedAttributeAnchor()) {
			h.currentElem.StreamPos = xmlmap.StreamPosition{
				OpenBegin:  cur.openBegin,
				OpenEnd:    cur.openEnd,
				CloseBegin: e.BeginPos,
				CloseEnd:   e.EndPos,
			}
			h.engine.linkPositions = append(h.engine.linkPositions, h.currentElem)
		}

		if h.currentElem.RangeParent != nil {
			h.inRangeRef = false
		}

		// Record the alias this element was actually written under in the
		// content stream, for Write to reproduce verbatim.
		h.currentElem.NSAlias = e.NSAlias
	}

	next, err := h.walker.PopElement(name)
	if err != nil {
		h.err = err
		return err
	}
	h.currentElem = next
	return nil
}

func (h *importHandler) Characters(value string, transient bool) error {
	if h.currentElem == nil {
		return nil
	}
	text := strings.TrimSpace(value)
	if transient {
		text = strings.Clone(text)
	}
	h.currentChars = text
	return nil
}
