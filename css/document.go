package css

import orcuserr "github.com/orcus-go/orcus/errors"

// Document is the in-memory index from (selector, pseudo-element mask) to a
// property map (css_document_tree).
//
// Grounded on original_source/include/orcus/css_document_tree.hpp.
// load()/dump()/swap() are omitted: load is replaced by the free function
// Load below (idiomatic Go prefers a constructor-returning function over a
// mutating load on a zero-value receiver), and dump/swap have no callers in
// this module's scope.
type Document struct {
	rules map[string]PseudoElementProperties
}

// NewDocument creates an empty document tree.
func NewDocument() *Document {
	return &Document{rules: make(map[string]PseudoElementProperties)}
}

// InsertProperties inserts or replaces the properties for selector under
// pseudoElem (0 for "no pseudo element").
func (d *Document) InsertProperties(selector Selector, pseudoElem PseudoElement, props Properties) {
	key := selector.Key()
	byPseudo, ok := d.rules[key]
	if !ok {
		byPseudo = make(PseudoElementProperties)
		d.rules[key] = byPseudo
	}
	byPseudo[pseudoElem] = props
}

// GetProperties returns the properties stored for (selector, pseudoElem), or
// nil if absent.
func (d *Document) GetProperties(selector Selector, pseudoElem PseudoElement) Properties {
	byPseudo, ok := d.rules[selector.Key()]
	if !ok {
		return nil
	}
	return byPseudo[pseudoElem]
}

// GetAllProperties returns every pseudo-element variant stored for selector,
// or nil if the selector has no rules at all.
func (d *Document) GetAllProperties(selector Selector) PseudoElementProperties {
	return d.rules[selector.Key()]
}

// Load parses raw CSS text and populates a new Document from it, wiring a
// *builder (below) as the css.Handler driving the document tree's
// population — the Go equivalent of css_document_tree::load(), which
// internally drives css_parser against its own handler_impl.
func Load(content []byte) (*Document, error) {
	doc := NewDocument()
	b := &builder{doc: doc}
	p := New(content, b)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return doc, nil
}

// builder implements Handler, assembling Selector/Properties values as the
// parser emits selector and property events, and inserting each completed
// rule into doc at end_block.
type builder struct {
	NopHandler

	doc *Document

	current           Selector
	building          SimpleSelector
	pendingCombinator Combinator
	pseudoElem        PseudoElement
	selectors         []Selector
	props             Properties
	propName          string
	propValues        []PropertyValue
}

func (b *builder) AtRuleName(string) error { return nil }

func (b *builder) SimpleSelectorType(name string) error {
	b.building = NewSimpleSelector()
	b.building.Name = name
	return nil
}

func (b *builder) SimpleSelectorClass(class string) error {
	if b.building.Classes == nil {
		b.building = NewSimpleSelector()
	}
	b.building.Classes[class] = struct{}{}
	return nil
}

func (b *builder) SimpleSelectorID(id string) error {
	if b.building.Classes == nil {
		b.building = NewSimpleSelector()
	}
	b.building.ID = id
	return nil
}

func (b *builder) SimpleSelectorPseudoClass(pc PseudoClass) error {
	if b.building.Classes == nil {
		b.building = NewSimpleSelector()
	}
	b.building.Pseudo |= pc
	return nil
}

func (b *builder) SimpleSelectorPseudoElement(pe PseudoElement) error {
	b.pseudoElem |= pe
	return nil
}

func (b *builder) Combinator(c Combinator) error {
	b.pendingCombinator = c
	return nil
}

func (b *builder) EndSimpleSelector() error {
	if b.current.First.Classes == nil {
		b.current.First = b.building
	} else {
		b.current.Chained = append(b.current.Chained, ChainedSimpleSelector{
			Combinator:     b.pendingCombinator,
			SimpleSelector: b.building,
		})
	}
	b.building = NewSimpleSelector()
	b.pendingCombinator = Descendant
	return nil
}

func (b *builder) EndSelector() error {
	if b.current.First.Classes != nil {
		b.selectors = append(b.selectors, b.current)
	}
	b.current = Selector{}
	return nil
}

func (b *builder) BeginBlock() error {
	b.props = make(Properties)
	return nil
}

func (b *builder) BeginProperty() error {
	b.propValues = nil
	return nil
}

func (b *builder) PropertyName(name string) error {
	b.propName = name
	return nil
}

func (b *builder) Value(value string) error {
	b.propValues = append(b.propValues, PropertyValue{Type: ValueString, String: value})
	return nil
}

func (b *builder) RGB(r, g, bl uint8) error {
	b.propValues = append(b.propValues, PropertyValue{Type: ValueRGB, RGBA: RGBA{Red: r, Green: g, Blue: bl, Alpha: 1}})
	return nil
}

func (b *builder) RGBA(r, g, bl uint8, a float64) error {
	b.propValues = append(b.propValues, PropertyValue{Type: ValueRGBA, RGBA: RGBA{Red: r, Green: g, Blue: bl, Alpha: a}})
	return nil
}

func (b *builder) HSL(h, s, l float64) error {
	b.propValues = append(b.propValues, PropertyValue{Type: ValueHSL, HSLA: HSLA{Hue: h, Saturation: s, Lightness: l, Alpha: 1}})
	return nil
}

func (b *builder) HSLA(h, s, l, a float64) error {
	b.propValues = append(b.propValues, PropertyValue{Type: ValueHSLA, HSLA: HSLA{Hue: h, Saturation: s, Lightness: l, Alpha: a}})
	return nil
}

func (b *builder) URL(url string) error {
	b.propValues = append(b.propValues, PropertyValue{Type: ValueURL, String: url})
	return nil
}

func (b *builder) EndProperty() error {
	if b.propName == "" {
		return orcuserr.NewParseError("property with no name", -1)
	}
	b.props[b.propName] = b.propValues
	b.propName = ""
	b.propValues = nil
	return nil
}

func (b *builder) EndBlock() error {
	for _, sel := range b.selectors {
		b.doc.InsertProperties(sel, b.pseudoElem, b.props)
	}
	b.selectors = nil
	b.pseudoElem = 0
	b.props = nil
	return nil
}
