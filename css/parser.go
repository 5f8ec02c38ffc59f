package css

import (
	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/parserbase"
)

// Handler receives CSS parse events. A non-nil error from any method aborts
// the parse, the same error-propagation contract used throughout this
// module's parser family (sax.Handler, saxns.Handler, saxtoken.Handler).
// Grounded on css_parser.hpp's css_handler.
type Handler interface {
	AtRuleName(name string) error
	SimpleSelectorType(name string) error
	SimpleSelectorClass(class string) error
	SimpleSelectorPseudoElement(pe PseudoElement) error
	SimpleSelectorPseudoClass(pc PseudoClass) error
	SimpleSelectorID(id string) error
	EndSimpleSelector() error
	EndSelector() error
	Combinator(c Combinator) error
	PropertyName(name string) error
	Value(value string) error
	RGB(red, green, blue uint8) error
	RGBA(red, green, blue uint8, alpha float64) error
	HSL(hue, sat, light float64) error
	HSLA(hue, sat, light, alpha float64) error
	URL(url string) error
	BeginParse() error
	EndParse() error
	BeginBlock() error
	EndBlock() error
	BeginProperty() error
	EndProperty() error
}

// NopHandler is an embeddable Handler implementation whose methods all do
// nothing, matching css_handler's empty default bodies.
type NopHandler struct{}

func (NopHandler) AtRuleName(string) error                   { return nil }
func (NopHandler) SimpleSelectorType(string) error            { return nil }
func (NopHandler) SimpleSelectorClass(string) error           { return nil }
func (NopHandler) SimpleSelectorPseudoElement(PseudoElement) error { return nil }
func (NopHandler) SimpleSelectorPseudoClass(PseudoClass) error     { return nil }
func (NopHandler) SimpleSelectorID(string) error              { return nil }
func (NopHandler) EndSimpleSelector() error                   { return nil }
func (NopHandler) EndSelector() error                         { return nil }
func (NopHandler) Combinator(Combinator) error                { return nil }
func (NopHandler) PropertyName(string) error                  { return nil }
func (NopHandler) Value(string) error                         { return nil }
func (NopHandler) RGB(uint8, uint8, uint8) error               { return nil }
func (NopHandler) RGBA(uint8, uint8, uint8, float64) error     { return nil }
func (NopHandler) HSL(float64, float64, float64) error         { return nil }
func (NopHandler) HSLA(float64, float64, float64, float64) error { return nil }
func (NopHandler) URL(string) error                            { return nil }
func (NopHandler) BeginParse() error                            { return nil }
func (NopHandler) EndParse() error                              { return nil }
func (NopHandler) BeginBlock() error                            { return nil }
func (NopHandler) EndBlock() error                              { return nil }
func (NopHandler) BeginProperty() error                         { return nil }
func (NopHandler) EndProperty() error                           { return nil }

// Parser is a hand-rolled recursive-descent CSS event parser, grounded on
// css_parser.hpp's template: selector lists, combinators, property blocks,
// quoted/unquoted values, and the four recognized function values with
// their numeric clamps.
type Parser struct {
	cur               *parserbase.Cursor
	handler           Handler
	simpleSelectorCount int
	combinator        Combinator
}

// New creates a parser over content.
func New(content []byte, handler Handler) *Parser {
	return &Parser{cur: parserbase.NewCursor(content, false), handler: handler}
}

func (p *Parser) malformed(msg string) error {
	return orcuserr.NewParseError(msg, p.cur.Offset())
}

// Parse runs the parser to completion, invoking Handler methods in document
// order.
func (p *Parser) Parse() error {
	if err := p.handler.BeginParse(); err != nil {
		return err
	}
	for p.cur.HasChar() {
		if err := p.rule(); err != nil {
			return err
		}
	}
	return p.handler.EndParse()
}

func (p *Parser) rule() error {
	for p.cur.HasChar() {
		p.skipBlanks()
		if !p.cur.HasChar() {
			break
		}
		skipped, err := p.skipComment()
		if err != nil {
			return err
		}
		if skipped {
			continue
		}

		c := p.cur.CurChar()
		if isAlpha(c) {
			if err := p.simpleSelectorName(); err != nil {
				return err
			}
			continue
		}

		switch c {
		case '>':
			p.cur.Next(1)
			p.combinator = DirectChild
			if err := p.skipCommentsAndBlanks(); err != nil {
				return err
			}
		case '+':
			p.cur.Next(1)
			p.combinator = NextSibling
			if err := p.skipCommentsAndBlanks(); err != nil {
				return err
			}
		case '.', '#', '@':
			if err := p.simpleSelectorName(); err != nil {
				return err
			}
		case ',':
			if err := p.nameSep(); err != nil {
				return err
			}
		case '{':
			p.simpleSelectorCount = 0
			p.combinator = Descendant
			if err := p.block(); err != nil {
				return err
			}
		default:
			return p.malformed("rule: unexpected character '" + string(c) + "'")
		}
	}
	return nil
}

func (p *Parser) atRuleName() error {
	p.cur.Next(1) // consume '@'
	if !p.cur.HasChar() || !isAlpha(p.cur.CurChar()) {
		return p.malformed("at_rule_name: first character of an at-rule name must be an alphabet")
	}
	name := p.scanIdentifier()
	p.skipBlanks()
	return p.handler.AtRuleName(name)
}

func (p *Parser) simpleSelectorName() error {
	if !p.cur.HasChar() {
		return p.malformed("simple_selector_name: unexpected end of stream")
	}
	c := p.cur.CurChar()
	if c == '@' {
		return p.atRuleName()
	}

	if p.simpleSelectorCount > 0 {
		if err := p.handler.Combinator(p.combinator); err != nil {
			return err
		}
		p.combinator = Descendant
	}

	if c != '.' && c != '#' {
		name := p.scanIdentifier()
		if err := p.handler.SimpleSelectorType(name); err != nil {
			return err
		}
	}

selectorLoop:
	for p.cur.HasChar() {
		switch p.cur.CurChar() {
		case '.':
			p.cur.Next(1)
			if err := p.handler.SimpleSelectorClass(p.scanIdentifier()); err != nil {
				return err
			}
		case '#':
			p.cur.Next(1)
			if err := p.handler.SimpleSelectorID(p.scanIdentifier()); err != nil {
				return err
			}
		case ':':
			p.cur.Next(1)
			if p.cur.HasChar() && p.cur.CurChar() == ':' {
				p.cur.Next(1)
				name := p.scanIdentifier()
				elem := ToPseudoElement(name)
				if elem == 0 {
					return p.malformed("selector_name: unknown pseudo element '" + name + "'")
				}
				if err := p.handler.SimpleSelectorPseudoElement(elem); err != nil {
					return err
				}
			} else {
				name := p.scanIdentifier()
				if p.cur.HasChar() && p.cur.CurChar() == '(' {
					// Parametric pseudo-class, e.g. :nth-child(2n+1). Only
					// presence is preserved per §9; skip the argument.
					p.cur.Next(1)
					for p.cur.HasChar() && p.cur.CurChar() != ')' {
						p.cur.Next(1)
					}
					if p.cur.HasChar() {
						p.cur.Next(1)
					}
				}
				pc := ToPseudoClass(name)
				if pc == 0 {
					return p.malformed("selector_name: unknown pseudo class '" + name + "'")
				}
				if err := p.handler.SimpleSelectorPseudoClass(pc); err != nil {
					return err
				}
			}
		default:
			break selectorLoop
		}
	}

	if err := p.handler.EndSimpleSelector(); err != nil {
		return err
	}
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	p.simpleSelectorCount++
	return nil
}

func (p *Parser) propertyName() error {
	if !p.cur.HasChar() || (!isAlpha(p.cur.CurChar()) && p.cur.CurChar() != '.') {
		return p.malformed("property_name: first character of a name must be an alphabet or a dot")
	}
	name := p.scanIdentifier()
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	return p.handler.PropertyName(name)
}

func (p *Parser) property() error {
	if err := p.handler.BeginProperty(); err != nil {
		return err
	}
	if err := p.propertyName(); err != nil {
		return err
	}
	if !p.cur.HasChar() || p.cur.CurChar() != ':' {
		return p.malformed("property: ':' expected")
	}
	p.cur.Next(1)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}

	for p.cur.HasChar() {
		if err := p.value(); err != nil {
			return err
		}
		if !p.cur.HasChar() {
			break
		}
		switch p.cur.CurChar() {
		case ',':
			p.cur.Next(1)
			if err := p.skipCommentsAndBlanks(); err != nil {
				return err
			}
		case ';', '}':
			if err := p.skipCommentsAndBlanks(); err != nil {
				return err
			}
			return p.handler.EndProperty()
		}
	}
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	return p.handler.EndProperty()
}

func (p *Parser) quotedValue(quote byte) error {
	text, err := p.scanLiteral(quote)
	if err != nil {
		return err
	}
	p.cur.Next(1) // closing quote
	p.skipBlanks()
	return p.handler.Value(text)
}

func (p *Parser) value() error {
	if !p.cur.HasChar() {
		return p.malformed("value: unexpected end of stream")
	}
	c := p.cur.CurChar()
	if c == '"' || c == '\'' {
		return p.quotedValue(c)
	}

	v := p.scanValue()
	if v == "" {
		return nil
	}

	if p.cur.HasChar() && p.cur.CurChar() == '(' {
		return p.functionValue(v)
	}

	if err := p.handler.Value(v); err != nil {
		return err
	}
	return p.skipCommentsAndBlanks()
}

func (p *Parser) functionValue(name string) error {
	fn := ToPropertyFunction(name)
	if fn == FunctionUnknown {
		return p.malformed("function_value: unknown function '" + name + "'")
	}
	p.cur.Next(1) // consume '('
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}

	var err error
	switch fn {
	case FunctionRGB:
		err = p.functionRGB(false)
	case FunctionRGBA:
		err = p.functionRGB(true)
	case FunctionHSL:
		err = p.functionHSL(false)
	case FunctionHSLA:
		err = p.functionHSL(true)
	case FunctionURL:
		err = p.functionURL()
	}
	if err != nil {
		return err
	}

	if !p.cur.HasChar() || p.cur.CurChar() != ')' {
		return p.malformed("function_value: ')' expected")
	}
	p.cur.Next(1)
	return p.skipCommentsAndBlanks()
}

func (p *Parser) functionRGB(alpha bool) error {
	var vals [3]uint8
	for i := range vals {
		v, ok := p.cur.ParseUint8()
		if !ok {
			return p.malformed("function_rgb: expected a numeric component")
		}
		vals[i] = v
		if err := p.skipCommentsAndBlanks(); err != nil {
			return err
		}
		if i == len(vals)-1 {
			break
		}
		if !p.cur.HasChar() || p.cur.CurChar() != ',' {
			return p.malformed("function_rgb: ',' expected")
		}
		p.cur.Next(1)
		if err := p.skipCommentsAndBlanks(); err != nil {
			return err
		}
	}

	if !alpha {
		return p.handler.RGB(vals[0], vals[1], vals[2])
	}

	if !p.cur.HasChar() || p.cur.CurChar() != ',' {
		return p.malformed("function_rgb: ',' expected")
	}
	p.cur.Next(1)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	a := p.cur.ParseDouble()
	a = clamp(a, 0, 1)
	return p.handler.RGBA(vals[0], vals[1], vals[2], a)
}

func (p *Parser) functionHSL(alpha bool) error {
	hue := clamp(p.cur.ParseDouble(), 0, 360)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	if !p.cur.HasChar() || p.cur.CurChar() != ',' {
		return p.malformed("function_hsl: ',' expected")
	}
	p.cur.Next(1)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}

	sat, _ := p.cur.ParsePercent()
	sat = clamp(sat, 0, 100)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	if !p.cur.HasChar() || p.cur.CurChar() != ',' {
		return p.malformed("function_hsl: ',' expected")
	}
	p.cur.Next(1)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}

	light, _ := p.cur.ParsePercent()
	light = clamp(light, 0, 100)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}

	if !alpha {
		return p.handler.HSL(hue, sat, light)
	}

	if !p.cur.HasChar() || p.cur.CurChar() != ',' {
		return p.malformed("function_hsl: ',' expected")
	}
	p.cur.Next(1)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	a := clamp(p.cur.ParseDouble(), 0, 1)
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	return p.handler.HSLA(hue, sat, light, a)
}

func (p *Parser) functionURL() error {
	if !p.cur.HasChar() {
		return p.malformed("function_url: unexpected end of stream")
	}
	c := p.cur.CurChar()
	if c == '"' || c == '\'' {
		text, err := p.scanLiteral(c)
		if err != nil {
			return err
		}
		p.cur.Next(1)
		if err := p.skipCommentsAndBlanks(); err != nil {
			return err
		}
		return p.handler.URL(text)
	}

	start := p.cur.Offset()
	for p.cur.HasChar() && p.cur.CurChar() != ')' && p.cur.CurChar() > 0x20 {
		p.cur.Next(1)
	}
	text := string(p.cur.SliceTo(int(start), int(p.cur.Offset())))
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}
	return p.handler.URL(text)
}

func (p *Parser) nameSep() error {
	p.cur.Next(1) // consume ','
	p.skipBlanks()
	return p.handler.EndSelector()
}

func (p *Parser) block() error {
	if err := p.handler.EndSelector(); err != nil {
		return err
	}
	if err := p.handler.BeginBlock(); err != nil {
		return err
	}

	p.cur.Next(1) // consume '{'
	if err := p.skipCommentsAndBlanks(); err != nil {
		return err
	}

	for p.cur.HasChar() {
		if err := p.property(); err != nil {
			return err
		}
		if !p.cur.HasChar() || p.cur.CurChar() != ';' {
			break
		}
		p.cur.Next(1)
		if err := p.skipCommentsAndBlanks(); err != nil {
			return err
		}
		if p.cur.HasChar() && p.cur.CurChar() == '}' {
			break
		}
	}

	if !p.cur.HasChar() || p.cur.CurChar() != '}' {
		return p.malformed("block: '}' expected")
	}
	if err := p.handler.EndBlock(); err != nil {
		return err
	}
	p.cur.Next(1)
	return p.skipCommentsAndBlanks()
}

// --- low-level scanning, grounded on css_parser_base.hpp ---

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func (p *Parser) scanIdentifier() string {
	start := p.cur.Offset()
	for p.cur.HasChar() && isIdentChar(p.cur.CurChar()) {
		p.cur.Next(1)
	}
	return string(p.cur.SliceTo(int(start), int(p.cur.Offset())))
}

// scanValue reads an unquoted property value token up to the first
// delimiter character or whitespace (css_parser_base::parse_value).
func (p *Parser) scanValue() string {
	start := p.cur.Offset()
	for p.cur.HasChar() {
		c := p.cur.CurChar()
		if c <= 0x20 || c == ',' || c == ';' || c == '}' || c == '(' {
			break
		}
		p.cur.Next(1)
	}
	return string(p.cur.SliceTo(int(start), int(p.cur.Offset())))
}

// scanLiteral reads up to (not including) the next occurrence of quote,
// leaving the cursor positioned at that closing quote.
func (p *Parser) scanLiteral(quote byte) (string, error) {
	start := p.cur.Offset()
	for p.cur.HasChar() && p.cur.CurChar() != quote {
		p.cur.Next(1)
	}
	if !p.cur.HasChar() {
		return "", p.malformed("literal: missing closing quote")
	}
	return string(p.cur.SliceTo(int(start), int(p.cur.Offset()))), nil
}

func (p *Parser) skipBlanks() {
	p.cur.SkipSpaceAndControl()
}

// skipComment skips a single "/* ... */" comment if one starts at the
// current position, reporting whether it did.
func (p *Parser) skipComment() (bool, error) {
	if !p.cur.ParseExpected("/*") {
		return false, nil
	}
	for {
		if p.cur.ParseExpected("*/") {
			return true, nil
		}
		if !p.cur.HasChar() {
			return false, p.malformed("comment: missing closing '*/'")
		}
		p.cur.Next(1)
	}
}

func (p *Parser) skipCommentsAndBlanks() error {
	for {
		p.skipBlanks()
		skipped, err := p.skipComment()
		if err != nil {
			return err
		}
		if !skipped {
			return nil
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
