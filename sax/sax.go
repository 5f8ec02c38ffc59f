// Package sax implements the L1a layer: a plain, non-namespace-aware XML
// 1.0/1.1 event parser over parserbase's cursor. It recognizes the XML
// declaration, DOCTYPE, CDATA, comments, self-closing elements, and both
// quote styles for attribute values, and reports begin/end stream offsets on
// every element event so higher layers can reconstruct the source (§4.2).
//
// Grounded on original_source/include/orcus/sax_parser.hpp and
// sax_parser_base.hpp, ported method-for-method (header/body/element/
// element_open/element_close/special_tag/declaration/cdata/doctype/
// characters/attribute/name/value).
package sax

import (
	"unicode/utf8"

	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/parserbase"
)

// Element is the information reported on every start_element/end_element
// event. NSAlias is the raw, unresolved namespace prefix text (e.g. "a" in
// "a:row") — resolving it to a namespace identity is saxns's job, not this
// layer's.
type Element struct {
	NSAlias  string
	Name     string
	BeginPos int64
	EndPos   int64
}

// Attribute is the information reported on every attribute event.
type Attribute struct {
	NSAlias   string
	Name      string
	Value     string
	Transient bool
}

// DoctypeKeyword distinguishes a DOCTYPE's PUBLIC and SYSTEM forms.
type DoctypeKeyword int

const (
	DoctypePublic DoctypeKeyword = iota
	DoctypeSystem
)

// DoctypeDeclaration is reported on a <!DOCTYPE ...> event.
type DoctypeDeclaration struct {
	Keyword     DoctypeKeyword
	RootElement string
	FPI         string
	URI         string
}

// Handler receives parse events. Every method is optional in spirit — a
// caller that doesn't care about a given event class embeds a zero-value
// NopHandler and overrides only what it needs, the same "only override what
// you use" shape as orcus's sax_handler base class. A non-nil error returned
// from any method aborts the parse; Parse returns it unchanged, letting
// higher layers (saxns's duplicate-attribute/namespace checks, for example)
// report their own errors through the same channel the cursor uses.
type Handler interface {
	Doctype(DoctypeDeclaration) error
	StartDeclaration(name string) error
	EndDeclaration(name string) error
	StartElement(Element) error
	EndElement(Element) error
	Characters(value string, transient bool) error
	Attribute(Attribute) error
}

// NopHandler is an embeddable Handler implementation whose methods all do
// nothing, letting a caller override only the events it cares about.
type NopHandler struct{}

func (NopHandler) Doctype(DoctypeDeclaration) error  { return nil }
func (NopHandler) StartDeclaration(string) error     { return nil }
func (NopHandler) EndDeclaration(string) error       { return nil }
func (NopHandler) StartElement(Element) error        { return nil }
func (NopHandler) EndElement(Element) error          { return nil }
func (NopHandler) Characters(string, bool) error     { return nil }
func (NopHandler) Attribute(Attribute) error         { return nil }

// BaselineVersion selects whether the XML declaration is required (1.1) or
// optional (1.0) at the start of the stream, per §4.2.
type BaselineVersion int

const (
	XML10 BaselineVersion = 10
	XML11 BaselineVersion = 11
)

// Parser is a plain SAX-style XML parser. It is single-use: construct one
// per parse via New.
type Parser struct {
	cur      *parserbase.Cursor
	handler  Handler
	buffers  parserbase.CellBufferStack
	baseline BaselineVersion

	nestLevel    int
	rootElemOpen bool
	openNames    []string
}

// Option configures a Parser.
type Option func(*Parser)

// WithBaselineVersion overrides the default XML 1.0 behavior (declaration
// optional) with XML 1.1 semantics (declaration required).
func WithBaselineVersion(v BaselineVersion) Option {
	return func(p *Parser) { p.baseline = v }
}

// New creates a parser over content. transientStream should be true when
// the caller cannot guarantee content outlives the handler callbacks.
func New(content []byte, transientStream bool, handler Handler, opts ...Option) *Parser {
	p := &Parser{
		cur:          parserbase.NewCursor(content, transientStream),
		handler:      handler,
		baseline:     XML10,
		rootElemOpen: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs the parser to completion, invoking handler callbacks as events
// are recognized. It returns a *orcuserr.MalformedXMLError or
// *orcuserr.ParseError on failure.
func (p *Parser) Parse() error {
	if err := p.header(); err != nil {
		return err
	}
	p.cur.SkipSpaceAndControl()
	if err := p.body(); err != nil {
		return err
	}
	if p.nestLevel > 0 {
		return p.malformed("xml stream ended prematurely.")
	}
	return nil
}

func (p *Parser) malformed(msg string) error {
	return orcuserr.NewMalformedXMLError(msg, p.cur.Offset())
}

func (p *Parser) skipBOM() {
	if p.cur.Remaining() >= 3 &&
		p.cur.CurChar() == 0xEF {
		rest := p.cur.SliceTo(int(p.cur.Offset()), int(p.cur.Offset())+3)
		if len(rest) == 3 && rest[1] == 0xBB && rest[2] == 0xBF {
			p.cur.Next(3)
		}
	}
}

func (p *Parser) header() error {
	p.skipBOM()
	p.cur.SkipSpaceAndControl()
	if !p.cur.HasChar() || p.cur.CurChar() != '<' {
		return p.malformed("xml file must begin with '<'.")
	}

	if p.baseline >= XML11 {
		if err := p.cur.NextCharChecked(); err != nil {
			return err
		}
		if p.cur.CurChar() != '?' {
			return p.malformed("xml file must begin with '<?'.")
		}
		if err := p.declaration("xml"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) body() error {
	for p.cur.HasChar() {
		if p.cur.CurChar() == '<' {
			if err := p.element(); err != nil {
				return err
			}
			if !p.rootElemOpen {
				return nil
			}
		} else if p.nestLevel > 0 {
			if err := p.characters(); err != nil {
				return err
			}
		} else {
			p.cur.Next(1)
		}
	}
	return nil
}

func (p *Parser) element() error {
	beginPos := p.cur.Offset()
	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}
	switch p.cur.CurChar() {
	case '/':
		return p.elementClose(beginPos)
	case '!':
		return p.specialTag()
	case '?':
		return p.declaration("")
	default:
		r, size := p.decodeRune()
		if size == 1 && !parserbase.IsASCIINameStartChar(byte(r)) {
			return p.malformed("expected an alphabet.")
		}
		if size > 1 && !parserbase.IsNameStartChar(r) {
			return p.malformed("expected an alphabet.")
		}
		return p.elementOpen(beginPos)
	}
}

func (p *Parser) elementOpen(beginPos int64) error {
	elem := Element{BeginPos: beginPos}
	ns, name, err := p.elementName()
	if err != nil {
		return err
	}
	elem.NSAlias, elem.Name = ns, name

	for {
		p.cur.SkipSpaceAndControl()
		if !p.cur.HasChar() {
			return p.malformed("xml stream ended prematurely.")
		}
		switch p.cur.CurChar() {
		case '/':
			if err := p.cur.NextCharChecked(); err != nil {
				return err
			}
			if p.cur.CurChar() != '>' {
				return p.malformed("expected '/>' to self-close the element.")
			}
			p.cur.Next(1)
			elem.EndPos = p.cur.Offset()
			if err := p.handler.StartElement(elem); err != nil {
				return err
			}
			if err := p.handler.EndElement(elem); err != nil {
				return err
			}
			if p.nestLevel == 0 {
				p.rootElemOpen = false
			}
			return nil
		case '>':
			p.cur.Next(1)
			elem.EndPos = p.cur.Offset()
			p.nestLevel++
			p.rootElemOpen = true
			p.openNames = append(p.openNames, qualifiedName(elem.NSAlias, elem.Name))
			if err := p.handler.StartElement(elem); err != nil {
				return err
			}
			return nil
		default:
			if err := p.attribute(); err != nil {
				return err
			}
		}
	}
}

func (p *Parser) elementClose(beginPos int64) error {
	if p.nestLevel == 0 {
		return p.malformed("incorrect nesting in xml stream")
	}
	p.nestLevel--

	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}
	ns, name, err := p.elementName()
	if err != nil {
		return err
	}
	if !p.cur.HasChar() || p.cur.CurChar() != '>' {
		return p.malformed("expected '>' to close the element.")
	}
	p.cur.Next(1)

	if len(p.openNames) == 0 {
		return p.malformed("incorrect nesting in xml stream")
	}
	top := p.openNames[len(p.openNames)-1]
	p.openNames = p.openNames[:len(p.openNames)-1]
	if got := qualifiedName(ns, name); got != top {
		return p.malformed("mismatched closing tag: expected '" + top + "' but found '" + got + "'.")
	}

	elem := Element{NSAlias: ns, Name: name, BeginPos: beginPos, EndPos: p.cur.Offset()}
	if err := p.handler.EndElement(elem); err != nil {
		return err
	}
	if p.nestLevel == 0 {
		p.rootElemOpen = false
	}
	return nil
}

func qualifiedName(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + ":" + name
}

func (p *Parser) specialTag() error {
	if p.cur.Remaining() < 2 {
		return p.malformed("special tag too short.")
	}
	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}
	switch p.cur.CurChar() {
	case '-':
		if err := p.cur.NextCharChecked(); err != nil {
			return err
		}
		if p.cur.CurChar() != '-' {
			return p.malformed("comment expected.")
		}
		p.cur.Next(1)
		return p.comment()
	case '[':
		if !p.cur.ParseExpected("[CDATA[") {
			return p.malformed("expected CDATA[.")
		}
		if p.cur.HasChar() {
			return p.cdata()
		}
		return nil
	case 'D':
		if !p.cur.ParseExpected("DOCTYPE") {
			return p.malformed("expected DOCTYPE.")
		}
		p.cur.SkipSpaceAndControl()
		if p.cur.HasChar() {
			return p.doctype()
		}
		return nil
	default:
		return p.malformed("failed to parse special tag.")
	}
}

func (p *Parser) comment() error {
	dashCount := 0
	for p.cur.HasChar() {
		c := p.cur.CurChar()
		p.cur.Next(1)
		if c == '-' {
			dashCount++
			continue
		}
		if c == '>' && dashCount >= 2 {
			return nil
		}
		if dashCount >= 2 {
			return p.malformed("'--' is not allowed inside a comment.")
		}
		dashCount = 0
	}
	return p.malformed("malformed comment: missing '-->'")
}

func (p *Parser) declaration(nameCheck string) error {
	if p.cur.CurChar() != '?' {
		return p.malformed("expected '?'.")
	}
	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}

	declName, err := p.name()
	if err != nil {
		return err
	}
	if nameCheck != "" && declName != nameCheck {
		return p.malformed("declaration name '" + nameCheck + "' was expected, but '" + declName + "' was found instead.")
	}

	if nameCheck == "" && declName != "xml" {
		// Processing instructions other than the XML declaration are skipped
		// without reporting any event.
		for p.cur.HasChar() {
			c := p.cur.CurChar()
			p.cur.Next(1)
			if c == '?' && p.cur.HasChar() && p.cur.CurChar() == '>' {
				p.cur.Next(1)
				return nil
			}
		}
		return p.malformed("xml stream ended prematurely.")
	}

	if err := p.handler.StartDeclaration(declName); err != nil {
		return err
	}
	p.cur.SkipSpaceAndControl()

	for {
		if !p.cur.HasChar() {
			return p.malformed("xml stream ended prematurely.")
		}
		if p.cur.CurChar() == '?' {
			break
		}
		if err := p.attribute(); err != nil {
			return err
		}
		p.cur.SkipSpaceAndControl()
	}

	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}
	if p.cur.CurChar() != '>' {
		return p.malformed("declaration must end with '?>'.")
	}

	if err := p.handler.EndDeclaration(declName); err != nil {
		return err
	}
	p.cur.Next(1)
	return nil
}

func (p *Parser) cdata() error {
	start := p.cur.Offset()
	match := 0
	for p.cur.HasChar() {
		c := p.cur.CurChar()
		if c == ']' {
			if match < 2 {
				match++
			}
			p.cur.Next(1)
			continue
		}
		if c == '>' && match == 2 {
			end := p.cur.Offset() - 2
			content := p.cur.SliceTo(int(start), int(end))
			p.cur.Next(1)
			if len(content) == 0 {
				return nil
			}
			return p.handler.Characters(string(content), p.cur.TransientStream())
		}
		match = 0
		p.cur.Next(1)
	}
	return p.malformed("malformed CDATA section.")
}

func (p *Parser) doctype() error {
	var decl DoctypeDeclaration
	root, err := p.name()
	if err != nil {
		return err
	}
	decl.RootElement = root
	p.cur.SkipSpaceAndControl()

	if p.cur.Remaining() < 6 {
		return p.malformed("DOCTYPE section too short.")
	}

	decl.Keyword = DoctypeSystem
	switch p.cur.CurChar() {
	case 'P':
		if !p.cur.ParseExpected("PUBLIC") {
			return p.malformed("malformed DOCTYPE section.")
		}
		decl.Keyword = DoctypePublic
	case 'S':
		if !p.cur.ParseExpected("SYSTEM") {
			return p.malformed("malformed DOCTYPE section.")
		}
	}

	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}
	p.cur.SkipSpaceAndControl()
	if !p.cur.HasChar() {
		return p.malformed("DOCTYPE section too short.")
	}

	first, _, err := p.valueQuoted(false)
	if err != nil {
		return err
	}
	if decl.Keyword == DoctypeSystem {
		decl.URI = first
	} else {
		decl.FPI = first
	}

	if !p.cur.HasChar() {
		return p.malformed("DOCTYPE section too short.")
	}
	p.cur.SkipSpaceAndControl()
	if !p.cur.HasChar() {
		return p.malformed("DOCTYPE section too short.")
	}

	if decl.Keyword == DoctypeSystem || p.cur.CurChar() == '>' {
		if p.cur.CurChar() != '>' {
			return p.malformed("malformed DOCTYPE section - closing '>' expected but not found.")
		}
		if err := p.handler.Doctype(decl); err != nil {
			return err
		}
		p.cur.Next(1)
		return nil
	}

	uri, _, err := p.valueQuoted(false)
	if err != nil {
		return err
	}
	decl.URI = uri

	if !p.cur.HasChar() {
		return p.malformed("DOCTYPE section too short.")
	}
	p.cur.SkipSpaceAndControl()
	if !p.cur.HasChar() {
		return p.malformed("DOCTYPE section too short.")
	}
	if p.cur.CurChar() != '>' {
		return p.malformed("malformed DOCTYPE section - closing '>' expected but not found.")
	}

	if err := p.handler.Doctype(decl); err != nil {
		return err
	}
	p.cur.Next(1)
	return nil
}

func (p *Parser) characters() error {
	start := p.cur.Offset()
	for p.cur.HasChar() {
		c := p.cur.CurChar()
		if c == '<' {
			break
		}
		if c == '&' {
			buf := p.buffers.Push()
			pre := p.cur.SliceTo(int(start), int(p.cur.Offset()))
			buf.Append(pre)
			if err := p.charactersWithEncodedChar(buf); err != nil {
				p.buffers.Pop()
				return err
			}
			text := string(buf.Bytes())
			p.buffers.Pop()
			return p.handler.Characters(text, true)
		}
		p.cur.Next(1)
	}

	if p.cur.Offset() > start {
		val := p.cur.SliceTo(int(start), int(p.cur.Offset()))
		return p.handler.Characters(string(val), p.cur.TransientStream())
	}
	return nil
}

// charactersWithEncodedChar consumes the remainder of a character-data span
// that contains one or more "&...;" references, appending decoded (or
// literal, if unrecognized) text into buf.
func (p *Parser) charactersWithEncodedChar(buf *parserbase.CellBuffer) error {
	for p.cur.HasChar() {
		c := p.cur.CurChar()
		if c == '<' {
			return nil
		}
		if c == '&' {
			if err := p.appendEncodedChar(buf); err != nil {
				return err
			}
			continue
		}
		start := p.cur.Offset()
		for p.cur.HasChar() && p.cur.CurChar() != '<' && p.cur.CurChar() != '&' {
			p.cur.Next(1)
		}
		buf.Append(p.cur.SliceTo(int(start), int(p.cur.Offset())))
	}
	return nil
}

// appendEncodedChar decodes one "&...;" reference at the cursor (which must
// be positioned on '&') into buf, or, if unrecognized, copies the literal
// text unchanged, per §4.1.
func (p *Parser) appendEncodedChar(buf *parserbase.CellBuffer) error {
	ampPos := p.cur.Offset()
	p.cur.Next(1) // consume '&'
	innerStart := p.cur.Offset()
	for p.cur.HasChar() && p.cur.CurChar() != ';' {
		p.cur.Next(1)
	}
	if !p.cur.HasChar() {
		return p.malformed("unterminated encoded character.")
	}
	inner := string(p.cur.SliceTo(int(innerStart), int(p.cur.Offset())))
	p.cur.Next(1) // consume ';'

	if decoded, ok := parserbase.DecodeEntity(inner); ok {
		buf.Append(decoded)
		return nil
	}

	// Unrecognized form: re-emit the original literal "&inner;".
	literal := p.cur.SliceTo(int(ampPos), int(p.cur.Offset()))
	buf.Append(literal)
	return nil
}

func (p *Parser) attribute() error {
	ns, name, err := p.attributeName()
	if err != nil {
		return err
	}

	p.cur.SkipSpaceAndControl()
	if !p.cur.HasChar() || p.cur.CurChar() != '=' {
		return p.malformed("attribute must begin with 'name=..'.")
	}
	if err := p.cur.NextCharChecked(); err != nil {
		return err
	}
	p.cur.SkipSpaceAndControl()

	val, transient, err := p.valueQuoted(true)
	if err != nil {
		return err
	}

	return p.handler.Attribute(Attribute{NSAlias: ns, Name: name, Value: val, Transient: transient})
}

// valueQuoted parses a '"'- or '\''-quoted value starting at the cursor,
// decoding embedded entity references when decode is true. It returns
// transient=true whenever the value was materialized into a cell buffer
// (decode encountered at least one entity).
func (p *Parser) valueQuoted(decode bool) (string, bool, error) {
	if !p.cur.HasChar() {
		return "", false, p.malformed("xml stream ended prematurely.")
	}
	quote := p.cur.CurChar()
	if quote != '"' && quote != '\'' {
		return "", false, p.malformed("was expecting a quote character.")
	}
	p.cur.Next(1)

	start := p.cur.Offset()
	for p.cur.HasChar() {
		c := p.cur.CurChar()
		if c == quote {
			val := p.cur.SliceTo(int(start), int(p.cur.Offset()))
			p.cur.Next(1)
			return string(val), p.cur.TransientStream(), nil
		}
		if decode && c == '&' {
			buf := p.buffers.Push()
			buf.Append(p.cur.SliceTo(int(start), int(p.cur.Offset())))
			for p.cur.HasChar() && p.cur.CurChar() != quote {
				if p.cur.CurChar() == '&' {
					if err := p.appendEncodedChar(buf); err != nil {
						p.buffers.Pop()
						return "", false, err
					}
					continue
				}
				segStart := p.cur.Offset()
				for p.cur.HasChar() && p.cur.CurChar() != quote && p.cur.CurChar() != '&' {
					p.cur.Next(1)
				}
				buf.Append(p.cur.SliceTo(int(segStart), int(p.cur.Offset())))
			}
			if !p.cur.HasChar() {
				p.buffers.Pop()
				return "", false, p.malformed("unterminated attribute value.")
			}
			text := string(buf.Bytes())
			p.buffers.Pop()
			p.cur.Next(1) // consume closing quote
			return text, true, nil
		}
		p.cur.Next(1)
	}
	return "", false, p.malformed("unterminated quoted value.")
}

// name scans a raw XML Name starting at the cursor.
func (p *Parser) name() (string, error) {
	start := p.cur.Offset()
	if !p.cur.HasChar() {
		return "", p.malformed("expected a name.")
	}
	r, size := p.decodeRune()
	if size == 1 {
		if !parserbase.IsASCIINameStartChar(byte(r)) {
			return "", p.malformed("invalid name start character.")
		}
	} else if !parserbase.IsNameStartChar(r) {
		return "", p.malformed("invalid name start character.")
	}
	p.cur.Next(size)

	for p.cur.HasChar() {
		r, size := p.decodeRune()
		if size == 1 {
			if !parserbase.IsASCIINameChar(byte(r)) {
				break
			}
		} else if !parserbase.IsNameChar(r) {
			break
		}
		p.cur.Next(size)
	}
	return string(p.cur.SliceTo(int(start), int(p.cur.Offset()))), nil
}

// elementName scans a name and splits it into (prefix, local) on the first
// colon, per the raw-name convention described in the sax package doc.
func (p *Parser) elementName() (ns, local string, err error) {
	full, err := p.name()
	if err != nil {
		return "", "", err
	}
	return splitPrefix(full)
}

func (p *Parser) attributeName() (ns, local string, err error) {
	return p.elementName()
}

func splitPrefix(full string) (ns, local string) {
	for i := 0; i < len(full); i++ {
		if full[i] == ':' {
			return full[:i], full[i+1:]
		}
	}
	return "", full
}

// decodeRune returns the rune at the cursor and its encoded byte length,
// without advancing the cursor.
func (p *Parser) decodeRune() (rune, int) {
	remaining := p.cur.SliceTo(int(p.cur.Offset()), p.cur.Len())
	r, size := utf8.DecodeRune(remaining)
	if r == utf8.RuneError && size <= 1 {
		return rune(remaining[0]), 1
	}
	return r, size
}
