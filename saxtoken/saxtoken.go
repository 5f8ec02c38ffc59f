// Package saxtoken implements the L2b layer: it wraps saxns, tokenizing
// element and attribute local names against a caller-supplied tokens.Table
// and assembling the XML declaration's version/encoding/standalone
// attributes into a single Declaration delivered once, on end_declaration.
//
// Grounded on original_source/include/orcus/sax_token_parser.hpp and
// sax_token_parser.cpp's sax_token_handler_wrapper_base: attribute() calls
// accumulate directly into a single pending element record (there is never
// more than one element "open" for attribute purposes at a time, since
// attributes of a child can't arrive before the child's own start_element),
// set_element() resets the ns/token/raw-name fields of that record without
// touching its accumulated attrs, and the attrs are cleared right after
// being forwarded to start_element — so end_element always reports an
// empty attrs slice, matching the original.
package saxtoken

import (
	"github.com/orcus-go/orcus/charset"
	"github.com/orcus-go/orcus/sax"
	"github.com/orcus-go/orcus/saxns"
	"github.com/orcus-go/orcus/tokens"
	"github.com/orcus-go/orcus/xmlns"
)

// Attribute is a tokenized, namespace-resolved attribute belonging to an
// Element.
type Attribute struct {
	NS        xmlns.ID
	Token     tokens.T
	RawName   string
	Value     string
	Transient bool
}

// Element is the token-level XML element record of §4.4: a namespace id, a
// token (tokens.Unknown if the raw name isn't in the table), the raw name
// itself, and its attribute list (always empty on EndElement).
type Element struct {
	NS      xmlns.ID
	Token   tokens.T
	RawName string
	Attrs   []Attribute
}

// Declaration is the XML declaration's version/encoding/standalone
// attributes, assembled from the <?xml ...?> processing instruction and
// delivered once, on EndDeclaration.
type Declaration struct {
	VersionMajor uint8
	VersionMinor uint8
	Encoding     charset.T
	Standalone   bool
}

// Handler receives token-level parse events. A non-nil error from any
// method aborts the parse, the same contract as sax.Handler.
type Handler interface {
	Declaration(Declaration) error
	StartElement(Element) error
	EndElement(Element) error
	Characters(value string, transient bool) error
}

// NopHandler is an embeddable Handler implementation whose methods all do
// nothing.
type NopHandler struct{}

func (NopHandler) Declaration(Declaration) error { return nil }
func (NopHandler) StartElement(Element) error    { return nil }
func (NopHandler) EndElement(Element) error      { return nil }
func (NopHandler) Characters(string, bool) error { return nil }

// Parser drives a saxns.Parser, tokenizing its namespace-resolved events
// against a tokens.Table.
type Parser struct {
	inner *saxns.Parser
}

// New creates a parser over content. table may be nil, in which case every
// element and attribute tokenizes to tokens.Unknown.
func New(content []byte, transientStream bool, ctx *xmlns.Context, table *tokens.Table, handler Handler, opts ...sax.Option) *Parser {
	w := &handlerWrapper{table: table, handler: handler}
	return &Parser{inner: saxns.New(content, transientStream, ctx, w, opts...)}
}

// Parse runs the parser to completion.
func (p *Parser) Parse() error {
	return p.inner.Parse()
}

type handlerWrapper struct {
	saxns.NopHandler

	table   *tokens.Table
	handler Handler

	decl Declaration
	elem Element
}

func (w *handlerWrapper) StartDeclaration(string) error {
	w.decl = Declaration{}
	return nil
}

func (w *handlerWrapper) EndDeclaration(string) error {
	err := w.handler.Declaration(w.decl)
	w.elem.Attrs = nil
	return err
}

func (w *handlerWrapper) DeclarationAttribute(name, value string) error {
	switch name {
	case "version":
		major, minor := parseVersion(value)
		w.decl.VersionMajor = major
		w.decl.VersionMinor = minor
	case "encoding":
		w.decl.Encoding = charset.Parse(value)
	case "standalone":
		w.decl.Standalone = value == "yes"
	}
	return nil
}

// parseVersion splits an XML declaration version string ("1.0") into its
// major and minor components, per sax_token_handler_wrapper_base::attribute.
// A value that doesn't parse as "<int>.<int>" leaves both components zero.
func parseVersion(value string) (major, minor uint8) {
	dot := -1
	for i := 0; i < len(value); i++ {
		if value[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return 0, 0
	}
	ma, ok := parseDigits(value[:dot])
	if !ok {
		return 0, 0
	}
	mi, ok := parseDigits(value[dot+1:])
	if !ok {
		return 0, 0
	}
	return ma, mi
}

func parseDigits(s string) (uint8, bool) {
	if s == "" {
		return 0, false
	}
	var v int
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return uint8(v), true
}

func (w *handlerWrapper) setElement(e saxns.Element) {
	w.elem.NS = e.NS
	w.elem.Token = w.table.Tokenize(e.Name)
	w.elem.RawName = e.Name
}

func (w *handlerWrapper) Attribute(a saxns.Attribute) error {
	w.elem.Attrs = append(w.elem.Attrs, Attribute{
		NS:        a.NS,
		Token:     w.table.Tokenize(a.Name),
		RawName:   a.Name,
		Value:     a.Value,
		Transient: a.Transient,
	})
	return nil
}

func (w *handlerWrapper) StartElement(e saxns.Element) error {
	w.setElement(e)
	err := w.handler.StartElement(w.elem)
	w.elem.Attrs = nil
	return err
}

func (w *handlerWrapper) EndElement(e saxns.Element) error {
	w.setElement(e)
	return w.handler.EndElement(w.elem)
}

func (w *handlerWrapper) Characters(value string, transient bool) error {
	return w.handler.Characters(value, transient)
}
