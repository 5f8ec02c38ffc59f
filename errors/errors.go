// Package errors defines the error taxonomy shared across every parsing and
// mapping layer: every fallible operation returns a concrete, offset-carrying
// error type instead of an error code, and no parser swallows a failure — it
// unwinds and surfaces it to the caller (see orcus's §7 error handling
// design).
//
// Grounded on original_source/include/orcus/exception.hpp and
// parser_base.hpp (parse_error carries a byte offset), generalized the same
// way cuelang.org/go/cue/scanner threads a position through every reported
// error instead of a bare string.
package errors

import "fmt"

// ParseError is raised by any parser (L0-L3) on a malformed or premature
// end-of-stream condition. It always carries the byte offset from the start
// of the stream, per §7.
type ParseError struct {
	Message string
	Offset  int64
}

func NewParseError(msg string, offset int64) *ParseError {
	return &ParseError{Message: msg, Offset: offset}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// MalformedXMLError is raised by the XML parser family (sax, saxns,
// saxtoken) for any of the conditions listed in §4.2: premature EOF,
// mismatched close tag, missing '=' after an attribute name, a duplicate
// attribute, a missing '?>' after a declaration, a missing ']]>' inside
// CDATA, or a missing '>' inside a DOCTYPE.
type MalformedXMLError struct {
	Message string
	Offset  int64
}

func NewMalformedXMLError(msg string, offset int64) *MalformedXMLError {
	return &MalformedXMLError{Message: msg, Offset: offset}
}

func (e *MalformedXMLError) Error() string {
	return fmt.Sprintf("malformed xml at offset %d: %s", e.Offset, e.Message)
}

// JSONStructureError is raised by the JSON structure tree's walker when it
// is asked to do something structurally invalid: descend past the last
// child, ascend from the root, or build field/row-group paths from a node
// that isn't of the right kind.
type JSONStructureError struct {
	Message string
}

func NewJSONStructureError(msg string) *JSONStructureError {
	return &JSONStructureError{Message: msg}
}

func (e *JSONStructureError) Error() string {
	return "json structure error: " + e.Message
}

// XMLStructureError is raised by stream handlers (import/export engines)
// when the content stream violates a structural assumption the handler
// relies on, distinct from a MalformedXMLError raised by the parser itself.
type XMLStructureError struct {
	Message string
}

func NewXMLStructureError(msg string) *XMLStructureError {
	return &XMLStructureError{Message: msg}
}

func (e *XMLStructureError) Error() string {
	return "xml structure error: " + e.Message
}

// XPathError is raised by xmlmap when an xpath string violates the grammar
// in §4.8, or when a link is set up inconsistently (double-link, mismatched
// roots, a range field with fewer than two path segments, range fields that
// don't share a common first segment).
type XPathError struct {
	Message string
}

func NewXPathError(msg string) *XPathError {
	return &XPathError{Message: msg}
}

func (e *XPathError) Error() string {
	return "xpath error: " + e.Message
}

// InvalidMapError is raised by the mapping engine's setup phase, e.g. when a
// caller tries to add a child element under an element that is already
// linked. Per §9, the source collapses what was two differently-worded
// errors (child under a cell-linked element vs. under a range-field-linked
// element) into one error kind, and orcus preserves that decision.
type InvalidMapError struct {
	Message string
	Context string
}

func NewInvalidMapError(msg string) *InvalidMapError {
	return &InvalidMapError{Message: msg}
}

func NewInvalidMapErrorWithContext(msg, context string) *InvalidMapError {
	return &InvalidMapError{Message: msg, Context: context}
}

func (e *InvalidMapError) Error() string {
	if e.Context == "" {
		return "invalid map error: " + e.Message
	}
	return fmt.Sprintf("invalid map error: %s (%s)", e.Message, e.Context)
}

// ValueError reports a primitive conversion whose input cannot be
// interpreted at all. No package in this module returns it: parserbase's
// numeric scanners report failure through their own results, and the CSS
// parser clamps out-of-range values instead.
type ValueError struct {
	Message string
}

func NewValueError(msg string) *ValueError {
	return &ValueError{Message: msg}
}

func (e *ValueError) Error() string {
	return "value error: " + e.Message
}

// OffsetOf extracts the byte offset carried by err, if any. It covers every
// error type in this package that records a stream position; callers use it
// to render a source excerpt (see RenderExcerpt) without a type switch of
// their own.
func OffsetOf(err error) (int64, bool) {
	switch e := err.(type) {
	case *ParseError:
		return e.Offset, true
	case *MalformedXMLError:
		return e.Offset, true
	default:
		return 0, false
	}
}
