// Package css implements the L1b/L4a layers: a hand-rolled CSS event parser
// (selectors, combinators, property blocks, the four recognized function
// values) and an in-memory document tree indexing properties by
// (selector, pseudo-element mask).
//
// Grounded on original_source/include/orcus/css_types.hpp,
// css_selector.hpp, css_parser_base.hpp, css_parser.hpp and
// css_document_tree.hpp.
package css

// Combinator identifies how a chained simple selector relates to the one
// before it (css::combinator_t).
type Combinator int

const (
	// Descendant is the implicit combinator between whitespace-separated
	// simple selectors ("E F").
	Descendant Combinator = iota
	// DirectChild is "E > F".
	DirectChild
	// NextSibling is "E + F".
	NextSibling
)

func (c Combinator) String() string {
	switch c {
	case DirectChild:
		return ">"
	case NextSibling:
		return "+"
	default:
		return " "
	}
}

// PropertyFunction identifies a recognized CSS function-value name
// (css::property_function_t).
type PropertyFunction int

const (
	FunctionUnknown PropertyFunction = iota
	FunctionHSL
	FunctionHSLA
	FunctionRGB
	FunctionRGBA
	FunctionURL
)

var propertyFunctions = map[string]PropertyFunction{
	"hsl":  FunctionHSL,
	"hsla": FunctionHSLA,
	"rgb":  FunctionRGB,
	"rgba": FunctionRGBA,
	"url":  FunctionURL,
}

// ToPropertyFunction maps a lowercase function name to its PropertyFunction,
// or FunctionUnknown if not recognized.
func ToPropertyFunction(name string) PropertyFunction {
	if f, ok := propertyFunctions[name]; ok {
		return f
	}
	return FunctionUnknown
}

// ValueType is the tag of the property-value union (css::property_value_t).
type ValueType int

const (
	ValueNone ValueType = iota
	ValueString
	ValueHSL
	ValueHSLA
	ValueRGB
	ValueRGBA
	ValueURL
)

// RGBA is a clamped 0-255 RGB triple plus a 0.0-1.0 alpha.
type RGBA struct {
	Red, Green, Blue uint8
	Alpha            float64
}

// HSLA is a clamped hue(0-360)/saturation(0-100)/lightness(0-100) triple plus
// a 0.0-1.0 alpha. Hue/saturation/lightness are stored as float64 (unlike the
// source's uint8_t-truncated fields) since clamping to 0-360 or 0-100 would
// otherwise lose precision the spec's test vectors rely on.
type HSLA struct {
	Hue, Saturation, Lightness float64
	Alpha                      float64
}

// PseudoElement is a 16-bit bitfield of recognized pseudo-elements
// (css::pseudo_element_t).
type PseudoElement uint16

const (
	PseudoElementAfter PseudoElement = 1 << iota
	PseudoElementBefore
	PseudoElementFirstLetter
	PseudoElementFirstLine
	PseudoElementSelection
	PseudoElementBackdrop
)

var pseudoElements = map[string]PseudoElement{
	"after":        PseudoElementAfter,
	"before":       PseudoElementBefore,
	"first-letter": PseudoElementFirstLetter,
	"first-line":   PseudoElementFirstLine,
	"selection":    PseudoElementSelection,
	"backdrop":     PseudoElementBackdrop,
}

// ToPseudoElement maps a pseudo-element name (without the leading "::") to
// its bit, or 0 if unrecognized.
func ToPseudoElement(name string) PseudoElement {
	return pseudoElements[name]
}

// PseudoClass is a bitfield of recognized pseudo-classes
// (css::pseudo_class_t). Per §9, two parametric pseudo-classes that would
// otherwise collide in a bitfield (":nth-child(n)" vs ":nth-child(2n+1)")
// preserve only presence of the class, never the argument.
type PseudoClass uint64

const (
	PseudoClassActive PseudoClass = 1 << iota
	PseudoClassChecked
	PseudoClassDefault
	PseudoClassDir
	PseudoClassDisabled
	PseudoClassEmpty
	PseudoClassEnabled
	PseudoClassFirst
	PseudoClassFirstChild
	PseudoClassFirstOfType
	PseudoClassFullscreen
	PseudoClassFocus
	PseudoClassHover
	PseudoClassIndeterminate
	PseudoClassInRange
	PseudoClassInvalid
	PseudoClassLang
	PseudoClassLastChild
	PseudoClassLastOfType
	PseudoClassLeft
	PseudoClassLink
	PseudoClassNot
	PseudoClassNthChild
	PseudoClassNthLastChild
	PseudoClassNthLastOfType
	PseudoClassNthOfType
	PseudoClassOnlyChild
	PseudoClassOnlyOfType
	PseudoClassOptional
	PseudoClassOutOfRange
	PseudoClassReadOnly
	PseudoClassReadWrite
	PseudoClassRequired
	PseudoClassRight
	PseudoClassRoot
	PseudoClassScope
	PseudoClassTarget
	PseudoClassValid
	PseudoClassVisited
)

var pseudoClasses = map[string]PseudoClass{
	"active":          PseudoClassActive,
	"checked":         PseudoClassChecked,
	"default":         PseudoClassDefault,
	"dir":             PseudoClassDir,
	"disabled":        PseudoClassDisabled,
	"empty":           PseudoClassEmpty,
	"enabled":         PseudoClassEnabled,
	"first":           PseudoClassFirst,
	"first-child":     PseudoClassFirstChild,
	"first-of-type":   PseudoClassFirstOfType,
	"fullscreen":      PseudoClassFullscreen,
	"focus":           PseudoClassFocus,
	"hover":           PseudoClassHover,
	"indeterminate":   PseudoClassIndeterminate,
	"in-range":        PseudoClassInRange,
	"invalid":         PseudoClassInvalid,
	"lang":            PseudoClassLang,
	"last-child":      PseudoClassLastChild,
	"last-of-type":    PseudoClassLastOfType,
	"left":            PseudoClassLeft,
	"link":            PseudoClassLink,
	"not":             PseudoClassNot,
	"nth-child":       PseudoClassNthChild,
	"nth-last-child":  PseudoClassNthLastChild,
	"nth-last-of-type": PseudoClassNthLastOfType,
	"nth-of-type":     PseudoClassNthOfType,
	"only-child":      PseudoClassOnlyChild,
	"only-of-type":    PseudoClassOnlyOfType,
	"optional":        PseudoClassOptional,
	"out-of-range":    PseudoClassOutOfRange,
	"read-only":       PseudoClassReadOnly,
	"read-write":      PseudoClassReadWrite,
	"required":        PseudoClassRequired,
	"right":           PseudoClassRight,
	"root":            PseudoClassRoot,
	"scope":           PseudoClassScope,
	"target":          PseudoClassTarget,
	"valid":           PseudoClassValid,
	"visited":         PseudoClassVisited,
}

// ToPseudoClass maps a bare pseudo-class name (the part before any
// parenthesized argument, e.g. "nth-child" for ":nth-child(2n+1)") to its
// bit, or 0 if unrecognized.
func ToPseudoClass(name string) PseudoClass {
	return pseudoClasses[name]
}
