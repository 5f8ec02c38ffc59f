// Package saxns implements the L2a layer: it wraps sax's raw SAX events,
// resolving element and attribute namespace prefixes against a per-stream
// xmlns.Context, consuming xmlns/xmlns:* declaration attributes instead of
// forwarding them, and rejecting duplicate attribute names.
//
// Grounded on original_source/include/orcus/sax_ns_parser.hpp, specifically
// its handler_wrapper: attribute() calls accumulate pending xmlns keys and a
// per-element duplicate-name set; start_element() moves the pending keys
// into a new scope; end_element() pops exactly those keys, in the order the
// original's unordered_set iterates (arbitrary — §4.3 mirrors that by not
// guaranteeing pop order either).
package saxns

import (
	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/sax"
	"github.com/orcus-go/orcus/xmlns"
)

// Element is the namespace-resolved counterpart of sax.Element.
type Element struct {
	NS       xmlns.ID
	NSAlias  string
	Name     string
	BeginPos int64
	EndPos   int64
}

// Attribute is the namespace-resolved counterpart of sax.Attribute.
// Attribute events are never reported for xmlns/xmlns:* declarations — those
// are consumed to maintain the namespace context instead.
type Attribute struct {
	NS        xmlns.ID
	NSAlias   string
	Name      string
	Value     string
	Transient bool
}

// Handler receives namespace-resolved parse events. A non-nil error from any
// method aborts the parse, the same contract as sax.Handler.
type Handler interface {
	Doctype(sax.DoctypeDeclaration) error
	StartDeclaration(name string) error
	EndDeclaration(name string) error
	StartElement(Element) error
	EndElement(Element) error
	Characters(value string, transient bool) error
	Attribute(Attribute) error
	// DeclarationAttribute reports an attribute of the <?xml ...?>
	// declaration itself, which has no namespace of its own.
	DeclarationAttribute(name, value string) error
}

// NopHandler is an embeddable Handler implementation whose methods all do
// nothing.
type NopHandler struct{}

func (NopHandler) Doctype(sax.DoctypeDeclaration) error     { return nil }
func (NopHandler) StartDeclaration(string) error            { return nil }
func (NopHandler) EndDeclaration(string) error              { return nil }
func (NopHandler) StartElement(Element) error               { return nil }
func (NopHandler) EndElement(Element) error                 { return nil }
func (NopHandler) Characters(string, bool) error            { return nil }
func (NopHandler) Attribute(Attribute) error                 { return nil }
func (NopHandler) DeclarationAttribute(string, string) error { return nil }

type elemScope struct {
	ns     xmlns.ID
	name   string
	nsKeys []string
}

// Parser drives a sax.Parser, translating its raw events into
// namespace-resolved ones against ctx.
type Parser struct {
	inner *sax.Parser
}

// New creates a parser over content. ctx must be a fresh context (or one
// whose outer bindings the caller wants visible to this stream); it is
// mutated as xmlns declarations are encountered and fully unwound by the
// time Parse returns successfully.
func New(content []byte, transientStream bool, ctx *xmlns.Context, handler Handler, opts ...sax.Option) *Parser {
	w := &handlerWrapper{ctx: ctx, handler: handler}
	return &Parser{inner: sax.New(content, transientStream, w, opts...)}
}

// Parse runs the parser to completion.
func (p *Parser) Parse() error {
	return p.inner.Parse()
}

type handlerWrapper struct {
	ctx     *xmlns.Context
	handler Handler

	scopes        []elemScope
	pendingNSKeys []string
	seenAttrs     map[string]bool
	declaration   bool
}

func (w *handlerWrapper) Doctype(d sax.DoctypeDeclaration) error { return w.handler.Doctype(d) }

func (w *handlerWrapper) StartDeclaration(name string) error {
	w.declaration = true
	return w.handler.StartDeclaration(name)
}

func (w *handlerWrapper) EndDeclaration(name string) error {
	w.declaration = false
	return w.handler.EndDeclaration(name)
}

func (w *handlerWrapper) StartElement(e sax.Element) error {
	resolved := w.ctx.Get(e.NSAlias)
	w.scopes = append(w.scopes, elemScope{ns: resolved, name: e.Name, nsKeys: w.pendingNSKeys})
	w.pendingNSKeys = nil
	w.seenAttrs = nil

	return w.handler.StartElement(Element{
		NS:       resolved,
		NSAlias:  e.NSAlias,
		Name:     e.Name,
		BeginPos: e.BeginPos,
		EndPos:   e.EndPos,
	})
}

func (w *handlerWrapper) EndElement(e sax.Element) error {
	scope := w.scopes[len(w.scopes)-1]
	w.scopes = w.scopes[:len(w.scopes)-1]

	err := w.handler.EndElement(Element{
		NS:       scope.ns,
		NSAlias:  e.NSAlias,
		Name:     scope.name,
		BeginPos: e.BeginPos,
		EndPos:   e.EndPos,
	})

	for _, key := range scope.nsKeys {
		w.ctx.Pop(key)
	}
	return err
}

func (w *handlerWrapper) Characters(value string, transient bool) error {
	return w.handler.Characters(value, transient)
}

func (w *handlerWrapper) Attribute(a sax.Attribute) error {
	if w.declaration {
		return w.handler.DeclarationAttribute(a.Name, a.Value)
	}

	if w.seenAttrs == nil {
		w.seenAttrs = make(map[string]bool)
	}
	key := a.NSAlias + "\x00" + a.Name
	if w.seenAttrs[key] {
		return orcuserr.NewMalformedXMLError(
			"you can't define two attributes of the same name in the same element.", -1)
	}
	w.seenAttrs[key] = true

	if a.NSAlias == "" && a.Name == "xmlns" {
		w.ctx.Push("", a.Value)
		w.pendingNSKeys = append(w.pendingNSKeys, "")
		return nil
	}
	if a.NSAlias == "xmlns" {
		if a.Name != "" {
			w.ctx.Push(a.Name, a.Value)
			w.pendingNSKeys = append(w.pendingNSKeys, a.Name)
		}
		return nil
	}

	ns := xmlns.UnknownID
	if a.NSAlias != "" {
		ns = w.ctx.Get(a.NSAlias)
	}
	return w.handler.Attribute(Attribute{NS: ns, NSAlias: a.NSAlias, Name: a.Name, Value: a.Value, Transient: a.Transient})
}
