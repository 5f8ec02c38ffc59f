package css

import "sort"

// SimpleSelector is one compound selector term: an optional type name, an
// optional id, an unordered set of class names, and a pseudo-class bitfield
// (css_simple_selector_t).
type SimpleSelector struct {
	Name    string
	ID      string
	Classes map[string]struct{}
	Pseudo  PseudoClass
}

// NewSimpleSelector returns an empty SimpleSelector ready for Classes
// inserts.
func NewSimpleSelector() SimpleSelector {
	return SimpleSelector{Classes: make(map[string]struct{})}
}

// Empty reports whether ss carries no selection criteria at all.
func (ss SimpleSelector) Empty() bool {
	return ss.Name == "" && ss.ID == "" && len(ss.Classes) == 0 && ss.Pseudo == 0
}

// Equal compares two simple selectors, ignoring class-set insertion order
// (§4.6: "equality ... ignores class-set insertion order").
func (ss SimpleSelector) Equal(other SimpleSelector) bool {
	if ss.Name != other.Name || ss.ID != other.ID || ss.Pseudo != other.Pseudo {
		return false
	}
	if len(ss.Classes) != len(other.Classes) {
		return false
	}
	for c := range ss.Classes {
		if _, ok := other.Classes[c]; !ok {
			return false
		}
	}
	return true
}

// Key returns a canonical, order-independent string usable as a map key
// (or hash input), combining name, id, sorted class names, and the
// pseudo-class bitfield, per §4.6: "hashing combines name, id, class-set
// string hashes, and the pseudo-class bitfield."
func (ss SimpleSelector) Key() string {
	classes := make([]string, 0, len(ss.Classes))
	for c := range ss.Classes {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	key := ss.Name + "\x00" + ss.ID
	for _, c := range classes {
		key += "\x00." + c
	}
	key += "\x00#"
	for i := 0; i < 64; i++ {
		if ss.Pseudo&(1<<uint(i)) != 0 {
			key += "1"
		} else {
			key += "0"
		}
	}
	return key
}

// ChainedSimpleSelector is a (combinator, simple selector) pair following
// the selector's head (css_chained_simple_selector_t).
type ChainedSimpleSelector struct {
	Combinator     Combinator
	SimpleSelector SimpleSelector
}

// Selector is a non-empty chain: a head simple selector plus zero or more
// chained simple selectors (css_selector_t).
type Selector struct {
	First   SimpleSelector
	Chained []ChainedSimpleSelector
}

// Key returns a canonical string identifying the full selector chain,
// suitable for use as a document-tree map key.
func (s Selector) Key() string {
	key := s.First.Key()
	for _, c := range s.Chained {
		key += "\x01" + c.Combinator.String() + c.SimpleSelector.Key()
	}
	return key
}

// Last returns the final simple selector in the chain — the one a
// pseudo-element attaches to.
func (s Selector) Last() SimpleSelector {
	if len(s.Chained) == 0 {
		return s.First
	}
	return s.Chained[len(s.Chained)-1].SimpleSelector
}

// PropertyValue is a tagged union over {string, rgba, hsla, url, none}
// (css_property_value_t).
type PropertyValue struct {
	Type   ValueType
	String string
	RGBA   RGBA
	HSLA   HSLA
}

// Properties maps a property name to its ordered list of values
// (css_properties_t).
type Properties map[string][]PropertyValue

// PseudoElementProperties maps a pseudo-element mask to its Properties
// (css_pseudo_element_properties_t).
type PseudoElementProperties map[PseudoElement]Properties
