// Package orcus is a layered document-parsing toolkit: a cursor-driven XML/
// CSS/JSON parser base (parserbase, sax, saxns, saxtoken, css, jsonstruct),
// a threaded SAX producer (parserthread), an XML-to-spreadsheet mapping tree
// (xmlmap) with its own map-definition file readers (mapdef), and the
// mapping engine that drives both the read and write side of that tree
// (orcusxml) against a caller-supplied spreadsheet backend (sheet).
//
// Each layer is its own importable package; this file only re-exports the
// two entry points most callers reach for first, so that mapping a
// spreadsheet document out of an XML file and a map-definition file needs
// no more than these two names plus the sheet/xmlns packages that describe
// the caller's own spreadsheet model and namespace repository.
package orcus

import (
	"github.com/orcus-go/orcus/mapdef"
	"github.com/orcus-go/orcus/orcusxml"
	"github.com/orcus-go/orcus/sheet"
	"github.com/orcus-go/orcus/xmlns"
)

// NewEngine creates a mapping engine bound to a fresh namespace repository,
// ready to have its map tree populated via mapdef.ReadXML/ReadJSON or the
// engine's own Tree() setup surface, then driven with ReadStream/Write.
func NewEngine(im sheet.ImportFactory, ex sheet.ExportFactory) *orcusxml.Engine {
	return orcusxml.New(xmlns.NewRepository(), im, ex)
}

// ReadMapDef dispatches to mapdef.ReadXML or mapdef.ReadJSON by sniffing
// content for a leading '{', so callers driving NewEngine don't need to
// pick the reader themselves based on a file extension that may not be
// available (e.g. content fetched over the network).
func ReadMapDef(content []byte, sink mapdef.Sink) error {
	for _, b := range content {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return mapdef.ReadJSON(content, sink)
		default:
			return mapdef.ReadXML(content, sink)
		}
	}
	return mapdef.ReadXML(content, sink)
}
